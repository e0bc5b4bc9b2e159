package reader

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/entity/backend"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Scores for the ways an input can match an entity. Higher wins.
const (
	ScoreMention        float32 = 1.00
	ScoreID             float32 = 0.90
	ScoreName           float32 = 0.80
	ScoreNickname       float32 = 0.75
	ScoreNameFolded     float32 = 0.70
	ScoreNicknameFolded float32 = 0.65
)

const entityNameQueryLimit = 25

var mentionPrefixes = []string{"<@!", "<@&", "<@", "<#"}

// EntityReader resolves an input to an entity of one kind, by mention,
// by id or by (nick)name.
type EntityReader struct {
	kind    string
	backend backend.EntityBackend
}

func Entity(kind string, b backend.EntityBackend) *EntityReader {
	return &EntityReader{
		kind:    kind,
		backend: b,
	}
}

func (er *EntityReader) ValueType() reflect.Type {
	return reflect.TypeFor[*data.Entity]()
}

func (er *EntityReader) Read(ctx context.Context, input string) (data.TypeReaderResult, error) {
	matches := make(map[string]data.TypeReaderValue)
	add := func(entity *data.Entity, score float32) {
		if current, ok := matches[entity.ID]; ok && current.Score >= score {
			return
		}
		matches[entity.ID] = data.TypeReaderValue{Value: entity, Score: score}
	}

	// By mention
	if id, ok := parseMention(input); ok {
		entity, err := er.lookup(ctx, id)
		if err != nil {
			return data.TypeReaderResult{}, err
		}
		if entity != nil {
			add(entity, ScoreMention)
		}
	}

	// By id
	if len(matches) == 0 && input != "" {
		entity, err := er.lookup(ctx, input)
		if err != nil {
			return data.TypeReaderResult{}, err
		}
		if entity != nil {
			add(entity, ScoreID)
		}
	}

	// By name or nickname
	if len(matches) == 0 && strings.TrimSpace(input) != "" {
		result, err := er.backend.QueryEntities(ctx, &backend.EntityQuery{
			Kind:  er.kind,
			Name:  input,
			Limit: entityNameQueryLimit,
		})
		if err != nil {
			return data.TypeReaderResult{}, fmt.Errorf("failed to query %s entities: %w", er.kind, err)
		}

		for _, entity := range result.Candidates {
			add(entity, nameScore(entity, input))
		}
	}

	if len(matches) == 0 {
		return data.FromError(data.ErrorObjectNotFound, fmt.Sprintf("%s not found.", capitalize(er.kind))), nil
	}

	values := make([]data.TypeReaderValue, 0, len(matches))
	for _, v := range matches {
		values = append(values, v)
	}
	sortValues(values)

	return data.FromValues(values...), nil
}

func (er *EntityReader) lookup(ctx context.Context, id string) (*data.Entity, error) {
	entity, err := er.backend.GetEntity(ctx, er.kind, id)
	if errors.Is(err, data.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s '%s': %w", er.kind, id, err)
	}
	return entity, nil
}

func nameScore(entity *data.Entity, input string) float32 {
	switch {
	case entity.Name == input:
		return ScoreName
	case entity.Nickname != "" && entity.Nickname == input:
		return ScoreNickname
	case backend.FoldName(entity.Name) == backend.FoldName(input):
		return ScoreNameFolded
	default:
		return ScoreNicknameFolded
	}
}

// parseMention extracts the id from "<@id>", "<@!id>", "<@&id>" or "<#id>".
func parseMention(input string) (string, bool) {
	if !strings.HasSuffix(input, ">") {
		return "", false
	}

	for _, prefix := range mentionPrefixes {
		if strings.HasPrefix(input, prefix) {
			id := input[len(prefix) : len(input)-1]
			return id, id != ""
		}
	}
	return "", false
}

// sortValues orders by descending score, then by id for a stable result.
func sortValues(values []data.TypeReaderValue) {
	sort.Slice(values, func(i, j int) bool {
		if values[i].Score != values[j].Score {
			return values[i].Score > values[j].Score
		}
		return values[i].Value.(*data.Entity).ID < values[j].Value.(*data.Entity).ID
	})
}

// capitalize title-cases a kind name, "user" becomes "User".
func capitalize(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}
