// Package events publishes world changes for consumers outside the game
// protocol, such as dashboards and audit logs.
package events

import "context"

// Event topic constants
const (
	TopicPropertiesChanged = "lumen.entity.properties"
	TopicEntityEntered     = "lumen.entity.entered"
	TopicEntityLeft        = "lumen.entity.left"
	TopicCharacterSaved    = "lumen.character.saved"
)

// Event types

// PropertiesChanged reports one entity's property delta for one tick.
type PropertiesChanged struct {
	Handle uint32            `json:"handle"`
	Type   string            `json:"type"`
	Tick   uint64            `json:"tick"`
	Values map[uint16]string `json:"values"` // id -> new value
}

type EntityEntered struct {
	Handle uint32 `json:"handle"`
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`
}

type EntityLeft struct {
	Handle uint32 `json:"handle"`
	Type   string `json:"type"`
}

type CharacterSaved struct {
	Name       string `json:"name"`
	Properties int    `json:"properties"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
