// events/events.go - per-user progress notifications
package events

import (
	"context"
	"time"
)

const (
	TypeProgress    = "progress"
	TypeLevelUp     = "level_up"
	TypeAchievement = "achievement"
	TypeGameResult  = "game_result"
)

type Event struct {
	Type      string      `json:"type"`
	UserID    string      `json:"userId"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Bus carries events between API instances.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(Event)) error
	Close() error
}
