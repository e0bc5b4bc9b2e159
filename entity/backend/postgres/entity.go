package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/entity/backend"
)

const selectColumns = `SELECT kind, id, name, nickname, attributes, create_time FROM cmd_entities`

func (pb *PostgresBackend) PutEntity(ctx context.Context, entity *data.Entity) error {
	if err := backend.ValidateEntity(entity); err != nil {
		return err
	}

	pb.mu.RLock()
	defer pb.mu.RUnlock()

	if pb.closed {
		return data.ErrBackendClose
	}

	if entity.CreateTime.IsZero() {
		entity.CreateTime = time.Now()
	}

	// Sent as text, the simple protocol would encode []byte as bytea
	var attributesJSON *string
	if len(entity.Attributes) > 0 {
		bytes, err := json.Marshal(entity.Attributes)
		if err != nil {
			return err
		}
		attributesJSON = nullable(string(bytes))
	}

	_, err := pb.pool.Exec(ctx, `
		INSERT INTO cmd_entities (kind, id, name, folded_name, nickname, folded_nickname, attributes, create_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (kind, id) DO UPDATE SET
			name = EXCLUDED.name,
			folded_name = EXCLUDED.folded_name,
			nickname = EXCLUDED.nickname,
			folded_nickname = EXCLUDED.folded_nickname,
			attributes = EXCLUDED.attributes
	`, entity.Kind, entity.ID, entity.Name, backend.FoldName(entity.Name),
		nullable(entity.Nickname), nullable(backend.FoldName(entity.Nickname)),
		attributesJSON, entity.CreateTime.Unix())

	return err
}

func (pb *PostgresBackend) GetEntity(ctx context.Context, kind, id string) (*data.Entity, error) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	if pb.closed {
		return nil, data.ErrBackendClose
	}

	row := pb.pool.QueryRow(ctx, selectColumns+` WHERE kind = $1 AND id = $2`, kind, id)
	entity, err := scanEntity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, data.ErrNotExist
	}

	return entity, err
}

func (pb *PostgresBackend) DeleteEntity(ctx context.Context, kind, id string) error {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	if pb.closed {
		return data.ErrBackendClose
	}

	tag, err := pb.pool.Exec(ctx, `DELETE FROM cmd_entities WHERE kind = $1 AND id = $2`, kind, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return data.ErrNotExist
	}

	return nil
}

func (pb *PostgresBackend) QueryEntities(ctx context.Context, query *backend.EntityQuery) (*backend.EntityQueryResult, error) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	if pb.closed {
		return nil, data.ErrBackendClose
	}

	var where []string
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if query.Kind != "" {
		where = append(where, "kind = "+arg(query.Kind))
	}
	if query.Prefix != "" {
		where = append(where, "starts_with(id, "+arg(query.Prefix)+")")
	}
	if query.Name != "" {
		folded := arg(backend.FoldName(query.Name))
		where = append(where, fmt.Sprintf("(folded_name = %s OR folded_nickname = %s)", folded, folded))
	}

	stmt := selectColumns
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY kind, id"

	rows, err := pb.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*data.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return backend.Paginate(candidates, query), nil
}

func scanEntity(row pgx.Row) (*data.Entity, error) {
	var entity data.Entity
	var nickname *string
	var attributesJSON []byte
	var createTime int64

	if err := row.Scan(&entity.Kind, &entity.ID, &entity.Name, &nickname, &attributesJSON, &createTime); err != nil {
		return nil, err
	}

	if nickname != nil {
		entity.Nickname = *nickname
	}
	entity.CreateTime = time.Unix(createTime, 0)

	entity.Attributes = make(map[string]string)
	if len(attributesJSON) > 0 {
		if err := json.Unmarshal(attributesJSON, &entity.Attributes); err != nil {
			entity.Attributes = make(map[string]string)
		}
	}

	return &entity, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
