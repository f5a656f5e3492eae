package systems

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lumen/pkg/events"
	"lumen/pkg/shared/ecs"
	"lumen/pkg/shared/properties"
	"lumen/pkg/shared/world"
	"lumen/pkg/storage"
)

var ErrNotCharacter = errors.New("entity is not a character")

// PersistenceSystem moves characters between the world and the store.
// Calculated properties are never stored.
type PersistenceSystem struct {
	World     *ecs.World
	Registry  *properties.Registry
	Store     storage.Store
	Publisher events.Publisher
	Logger    *slog.Logger
}

func NewPersistenceSystem(world *ecs.World, reg *properties.Registry, store storage.Store, pub events.Publisher, logger *slog.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		World:     world,
		Registry:  reg,
		Store:     store,
		Publisher: pub,
		Logger:    logger,
	}
}

// LoadPlayer returns the saved character called name, or a new one if it
// was never saved.
func (s *PersistenceSystem) LoadPlayer(ctx context.Context, name string) (*world.Character, error) {
	c := world.NewCharacter(name)

	rec, err := s.Store.Load(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		s.Logger.Info("new character", "name", name)
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}

	values, err := rec.Values()
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	c.Restore(values)
	c.Name = name
	return c, nil
}

// Record captures the persistent state of the character at id. It must be
// called while the world is locked; the returned record can be saved later.
func (s *PersistenceSystem) Record(id ecs.Entity) (*storage.Record, error) {
	pres, ok := ecs.GetComponent[Presence](s.World, id)
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", id, ErrNotCharacter)
	}
	c, ok := pres.Object.(*world.Character)
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", id, ErrNotCharacter)
	}
	values, err := c.Persistent(s.Registry)
	if err != nil {
		return nil, err
	}
	return storage.NewRecord(c.Name, values), nil
}

// Save writes rec and announces it.
func (s *PersistenceSystem) Save(ctx context.Context, rec *storage.Record) error {
	if err := s.Store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save %q: %w", rec.Name, err)
	}
	s.Logger.Info("character saved", "name", rec.Name, "properties", len(rec.Properties))

	ev := events.CharacterSaved{Name: rec.Name, Properties: len(rec.Properties)}
	if err := s.Publisher.Publish(ctx, events.TopicCharacterSaved, ev); err != nil {
		s.Logger.Warn("publish failed", "topic", events.TopicCharacterSaved, "error", err)
	}
	return nil
}

// SavePlayer records and saves the character at id in one step.
func (s *PersistenceSystem) SavePlayer(ctx context.Context, id ecs.Entity) error {
	rec, err := s.Record(id)
	if err != nil {
		return err
	}
	return s.Save(ctx, rec)
}
