package consul

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/entity/backend"
)

func (cb *ConsulBackend) PutEntity(ctx context.Context, entity *data.Entity) error {
	if err := backend.ValidateEntity(entity); err != nil {
		return err
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if entity.CreateTime.IsZero() {
		entity.CreateTime = time.Now()
	}

	value, err := json.Marshal(entity)
	if err != nil {
		return err
	}

	pair := &api.KVPair{
		Key:   cb.buildKey(entity.Kind, entity.ID),
		Value: value,
	}

	_, err = cb.kv.Put(pair, cb.writeOptions(ctx))
	return err
}

func (cb *ConsulBackend) GetEntity(ctx context.Context, kind, id string) (*data.Entity, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	pair, _, err := cb.kv.Get(cb.buildKey(kind, id), cb.queryOptions(ctx))
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, data.ErrNotExist
	}

	return decodeEntity(pair)
}

func (cb *ConsulBackend) DeleteEntity(ctx context.Context, kind, id string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	key := cb.buildKey(kind, id)
	pair, _, err := cb.kv.Get(key, cb.queryOptions(ctx))
	if err != nil {
		return err
	}
	if pair == nil {
		return data.ErrNotExist
	}

	_, err = cb.kv.Delete(key, cb.writeOptions(ctx))
	return err
}

func (cb *ConsulBackend) QueryEntities(ctx context.Context, query *backend.EntityQuery) (*backend.EntityQueryResult, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	prefix := cb.config.Prefix + "/"
	if query.Kind != "" {
		prefix = cb.buildKey(query.Kind, query.Prefix)
	}

	pairs, _, err := cb.kv.List(prefix, cb.queryOptions(ctx))
	if err != nil {
		return nil, err
	}

	candidates := make([]*data.Entity, 0, len(pairs))
	for _, pair := range pairs {
		entity, err := decodeEntity(pair)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, entity)
	}

	return backend.ApplyQuery(candidates, query), nil
}

func decodeEntity(pair *api.KVPair) (*data.Entity, error) {
	var entity data.Entity
	if err := json.Unmarshal(pair.Value, &entity); err != nil {
		return nil, err
	}
	if entity.Attributes == nil {
		entity.Attributes = make(map[string]string)
	}
	return &entity, nil
}
