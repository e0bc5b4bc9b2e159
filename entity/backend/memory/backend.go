package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/entity/backend"
	"github.com/tidwall/btree"
)

// MemoryBackend keeps entities in an ordered B-tree keyed by kind and id.
type MemoryBackend struct {
	mu sync.RWMutex

	entities *btree.Map[string, *data.Entity]
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entities: btree.NewMap[string, *data.Entity](0),
	}
}

// Returns the identifier name defined for this backend
func (*MemoryBackend) Name() string {
	return "memory"
}

// Open is part of the lifecycle behaviour and gets called before the backend is used.
func (mb *MemoryBackend) Open(ctx context.Context) error {
	// No initialization needed - backend is ready to use
	return nil
}

// Close is part of the lifecycle behaviour and releases all resources held by the backend.
func (mb *MemoryBackend) Close(ctx context.Context) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.entities.Clear()
	return nil
}

func (mb *MemoryBackend) PutEntity(ctx context.Context, entity *data.Entity) error {
	if err := backend.ValidateEntity(entity); err != nil {
		return err
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.entities.Set(backend.EntityKey(entity.Kind, entity.ID), entity.Clone())
	return nil
}

func (mb *MemoryBackend) GetEntity(ctx context.Context, kind, id string) (*data.Entity, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	entity, exists := mb.entities.Get(backend.EntityKey(kind, id))
	if !exists {
		return nil, data.ErrNotExist
	}

	return entity.Clone(), nil
}

func (mb *MemoryBackend) DeleteEntity(ctx context.Context, kind, id string) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if _, deleted := mb.entities.Delete(backend.EntityKey(kind, id)); !deleted {
		return data.ErrNotExist
	}

	return nil
}

func (mb *MemoryBackend) QueryEntities(ctx context.Context, query *backend.EntityQuery) (*backend.EntityQueryResult, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	var candidates []*data.Entity
	collect := func(key string, entity *data.Entity) bool {
		if err := ctx.Err(); err != nil {
			return false
		}
		candidates = append(candidates, entity.Clone())
		return true
	}

	if query.Kind != "" {
		// Keys are ordered, so a kind is a contiguous range starting at "<kind>/<prefix>"
		pivot := backend.EntityKey(query.Kind, query.Prefix)
		mb.entities.Ascend(pivot, func(key string, entity *data.Entity) bool {
			if !strings.HasPrefix(key, pivot) {
				return false
			}
			return collect(key, entity)
		})
	} else {
		mb.entities.Scan(collect)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return backend.ApplyQuery(candidates, query), nil
}
