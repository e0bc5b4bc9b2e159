package backend

import (
	"sort"
	"strings"

	"github.com/mwantia/cmdparse/data"
	"golang.org/x/text/cases"
)

type EntityQuery struct {
	// Kind restricts results to one entity kind ("user", "role", ...)
	Kind string `json:"kind"`

	// Name matches the name or nickname, ignoring case
	Name string `json:"name,omitempty"`

	// Prefix matches ids starting with this string
	Prefix string `json:"prefix,omitempty"`

	// Max results to return (0 = unlimited)
	Limit int `json:"limit"`

	// Skip this many results during pagination
	Offset int `json:"offset"`
}

type EntityQueryResult struct {
	// List of all queried entity candidates, ordered by id
	Candidates []*data.Entity

	// Total matches before pagination
	TotalCount int

	// Whenever more results exist beyond the limit
	Paginating bool
}

// FoldName returns the caseless form of name used for name comparisons.
// A Caser keeps state, so every call gets its own.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Matches reports whether an entity satisfies all filters of the query.
func (q *EntityQuery) Matches(entity *data.Entity) bool {
	if q.Kind != "" && entity.Kind != q.Kind {
		return false
	}
	if q.Prefix != "" && !strings.HasPrefix(entity.ID, q.Prefix) {
		return false
	}
	if q.Name != "" {
		folded := FoldName(q.Name)
		if FoldName(entity.Name) != folded && (entity.Nickname == "" || FoldName(entity.Nickname) != folded) {
			return false
		}
	}
	return true
}

// ApplyQuery filters, sorts by id and paginates candidates.
func ApplyQuery(candidates []*data.Entity, query *EntityQuery) *EntityQueryResult {
	filtered := make([]*data.Entity, 0, len(candidates))
	for _, entity := range candidates {
		if query.Matches(entity) {
			filtered = append(filtered, entity)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Kind != filtered[j].Kind {
			return filtered[i].Kind < filtered[j].Kind
		}
		return filtered[i].ID < filtered[j].ID
	})

	return Paginate(filtered, query)
}

// Paginate applies Offset and Limit to already filtered and sorted candidates.
func Paginate(filtered []*data.Entity, query *EntityQuery) *EntityQueryResult {
	total := len(filtered)
	start := min(max(query.Offset, 0), total)
	end := total

	if query.Limit > 0 {
		end = min(start+query.Limit, total)
	}

	return &EntityQueryResult{
		Candidates: filtered[start:end],
		TotalCount: total,
		Paginating: end < total,
	}
}
