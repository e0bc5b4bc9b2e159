package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/entity/backend"
	"github.com/mwantia/cmdparse/entity/backend/consul"
	"github.com/mwantia/cmdparse/entity/backend/memory"
	"github.com/mwantia/cmdparse/entity/backend/postgres"
	"github.com/mwantia/cmdparse/entity/backend/s3"
	"github.com/mwantia/cmdparse/entity/backend/sqlite"
)

// openDirectory creates and opens the entity backend described by raw.
func openDirectory(ctx context.Context, raw string) (backend.EntityBackend, error) {
	b, err := newDirectory(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory '%s': %w", raw, err)
	}

	if err := b.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open %s directory: %w", b.Name(), err)
	}
	return b, nil
}

func newDirectory(ctx context.Context, raw string) (backend.EntityBackend, error) {
	if raw == "" || raw == "memory" {
		return memory.NewMemoryBackend(), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "sqlite":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		if path == "" {
			path = ":memory:"
		}
		return sqlite.NewSQLiteBackend(path)
	case "postgres", "postgresql":
		return postgres.NewPostgresBackend(ctx, raw)
	case "consul":
		return consul.NewConsulBackend(&consul.ConsulBackendConfig{
			Address:    u.Host,
			Token:      u.Query().Get("token"),
			Datacenter: u.Query().Get("dc"),
			Prefix:     strings.Trim(u.Path, "/"),
		})
	case "s3":
		secret, _ := u.User.Password()
		return s3.NewS3Backend(u.Host, strings.Trim(u.Path, "/"), u.User.Username(), secret, u.Query().Get("ssl") == "true")
	default:
		return nil, fmt.Errorf("unknown directory scheme '%s'", u.Scheme)
	}
}

var demoEntities = []*data.Entity{
	{ID: "100", Kind: data.EntityKindUser, Name: "alice", Nickname: "Al", Attributes: map[string]string{data.AttributeStatus: "online"}},
	{ID: "101", Kind: data.EntityKindUser, Name: "Bob"},
	{ID: "102", Kind: data.EntityKindUser, Name: "bob", Nickname: "Bobby"},
	{ID: "200", Kind: data.EntityKindRole, Name: "admin", Attributes: map[string]string{data.AttributeColor: "red"}},
	{ID: "201", Kind: data.EntityKindRole, Name: "moderator"},
	{ID: "300", Kind: data.EntityKindChannel, Name: "general", Attributes: map[string]string{data.AttributeTopic: "Anything goes"}},
}

// seedDirectory adds the demo entities that are not present yet.
func seedDirectory(ctx context.Context, b backend.EntityBackend) error {
	for _, entity := range demoEntities {
		_, err := b.GetEntity(ctx, entity.Kind, entity.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, data.ErrNotExist) {
			return err
		}
		if err := b.PutEntity(ctx, entity); err != nil {
			return fmt.Errorf("failed to seed %s '%s': %w", entity.Kind, entity.Name, err)
		}
	}
	return nil
}
