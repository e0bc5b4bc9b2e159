package backend

import (
	"context"

	"github.com/mwantia/cmdparse/data"
)

// Backend is used as lifecycle entrypoint for other backend implementations.
type Backend interface {
	// Name returns the identifier name defined for this backend
	Name() string
	// Open is part of the lifecycle behaviour and gets called before the backend is used.
	Open(ctx context.Context) error
	// Close is part of the lifecycle behaviour and releases all resources held by the backend.
	Close(ctx context.Context) error
}

// EntityBackend stores entities that command arguments can be resolved against.
type EntityBackend interface {
	Backend

	// PutEntity creates or replaces the entity identified by its kind and id.
	PutEntity(ctx context.Context, entity *data.Entity) error

	// GetEntity returns data.ErrNotExist if no entity matches kind and id.
	GetEntity(ctx context.Context, kind, id string) (*data.Entity, error)

	// DeleteEntity returns data.ErrNotExist if no entity matches kind and id.
	DeleteEntity(ctx context.Context, kind, id string) error

	QueryEntities(ctx context.Context, query *EntityQuery) (*EntityQueryResult, error)
}

// EntityKey joins kind and id into the key used by flat key-value stores.
func EntityKey(kind, id string) string {
	return kind + "/" + id
}

// ValidateEntity checks that an entity can be stored.
func ValidateEntity(entity *data.Entity) error {
	if entity == nil || entity.Kind == "" || entity.ID == "" {
		return data.ErrInvalid
	}
	return nil
}
