package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/entity/backend"
)

const selectColumns = `SELECT kind, id, name, nickname, attributes, create_time FROM cmd_entities`

func (sb *SQLiteBackend) PutEntity(ctx context.Context, entity *data.Entity) error {
	if err := backend.ValidateEntity(entity); err != nil {
		return err
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.closed {
		return data.ErrBackendClose
	}

	if entity.CreateTime.IsZero() {
		entity.CreateTime = time.Now()
	}

	// Serialize attributes to JSON
	var attributesJSON sql.NullString
	if len(entity.Attributes) > 0 {
		bytes, err := json.Marshal(entity.Attributes)
		if err != nil {
			return err
		}
		attributesJSON = sql.NullString{String: string(bytes), Valid: true}
	}

	_, err := sb.db.ExecContext(ctx, `
		INSERT INTO cmd_entities (kind, id, name, folded_name, nickname, folded_nickname, attributes, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			name = excluded.name,
			folded_name = excluded.folded_name,
			nickname = excluded.nickname,
			folded_nickname = excluded.folded_nickname,
			attributes = excluded.attributes
	`, entity.Kind, entity.ID, entity.Name, backend.FoldName(entity.Name),
		nullString(entity.Nickname), nullString(backend.FoldName(entity.Nickname)),
		attributesJSON, entity.CreateTime.Unix())

	return err
}

func (sb *SQLiteBackend) GetEntity(ctx context.Context, kind, id string) (*data.Entity, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	if sb.closed {
		return nil, data.ErrBackendClose
	}

	row := sb.db.QueryRowContext(ctx, selectColumns+` WHERE kind = ? AND id = ?`, kind, id)
	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.ErrNotExist
	}

	return entity, err
}

func (sb *SQLiteBackend) DeleteEntity(ctx context.Context, kind, id string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.closed {
		return data.ErrBackendClose
	}

	res, err := sb.db.ExecContext(ctx, `DELETE FROM cmd_entities WHERE kind = ? AND id = ?`, kind, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return data.ErrNotExist
	}

	return nil
}

func (sb *SQLiteBackend) QueryEntities(ctx context.Context, query *backend.EntityQuery) (*backend.EntityQueryResult, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	if sb.closed {
		return nil, data.ErrBackendClose
	}

	var where []string
	var args []any

	if query.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, query.Kind)
	}
	if query.Prefix != "" {
		where = append(where, `id LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(query.Prefix)+"%")
	}
	if query.Name != "" {
		folded := backend.FoldName(query.Name)
		where = append(where, "(folded_name = ? OR folded_nickname = ?)")
		args = append(args, folded, folded)
	}

	stmt := selectColumns
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY kind, id"

	rows, err := sb.db.QueryContext(ctx, stmt, args...)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (*data.Entity, error) {
	var entity data.Entity
	var nickname, attributesJSON sql.NullString
	var createTime int64

	if err := row.Scan(&entity.Kind, &entity.ID, &entity.Name, &nickname, &attributesJSON, &createTime); err != nil {
		return nil, err
	}

	entity.Nickname = nickname.String
	entity.CreateTime = time.Unix(createTime, 0)

	// Deserialize attributes
	entity.Attributes = make(map[string]string)
	if attributesJSON.Valid && attributesJSON.String != "" {
		if err := json.Unmarshal([]byte(attributesJSON.String), &entity.Attributes); err != nil {
			entity.Attributes = make(map[string]string)
		}
	}

	return &entity, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// escapeLike escapes LIKE wildcards so prefixes match literally.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
