package data

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

const (
	EntityKindUser    = "user"
	EntityKindRole    = "role"
	EntityKindChannel = "channel"
)

// Entity is a named object that command arguments can refer to, either by
// mention, by id or by name.
type Entity struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Name       string            `json:"name"`
	Nickname   string            `json:"nickname,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreateTime time.Time         `json:"create_time"`
}

// NewEntity creates an entity with a fresh time-ordered id.
func NewEntity(kind, name string) *Entity {
	return &Entity{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Kind:       kind,
		Name:       name,
		Attributes: make(map[string]string),
		CreateTime: time.Now(),
	}
}

// DisplayName returns the nickname if set, otherwise the name.
func (e *Entity) DisplayName() string {
	if e.Nickname != "" {
		return e.Nickname
	}
	return e.Name
}

// Clone returns a deep copy, so backends never hand out their own state.
func (e *Entity) Clone() *Entity {
	clone := *e
	clone.Attributes = maps.Clone(e.Attributes)
	return &clone
}
