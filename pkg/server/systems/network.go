package systems

import (
	"context"
	"log/slog"

	"lumen/pkg/events"
	"lumen/pkg/metrics"
	"lumen/pkg/shared/ecs"
	protocol "lumen/pkg/shared/network"
	"lumen/pkg/shared/properties"
	"lumen/pkg/shared/world"
)

// Broadcaster delivers a packet to every connected session.
type Broadcaster interface {
	Broadcast(p *protocol.Packet)
}

// PropertySystem sends the property changes of every visible entity once
// per tick. The value cache of an entity is shared by all observers, so
// each entity is diffed exactly once per tick and the resulting packet is
// broadcast.
type PropertySystem struct {
	World       *ecs.World
	Registry    *properties.Registry
	Broadcaster Broadcaster
	Publisher   events.Publisher
	Metrics     *metrics.Metrics
	Logger      *slog.Logger

	tick uint64
}

func NewPropertySystem(world *ecs.World, reg *properties.Registry, b Broadcaster, pub events.Publisher, m *metrics.Metrics, logger *slog.Logger) *PropertySystem {
	return &PropertySystem{
		World:       world,
		Registry:    reg,
		Broadcaster: b,
		Publisher:   pub,
		Metrics:     m,
		Logger:      logger,
	}
}

// Tick returns the number of completed updates.
func (s *PropertySystem) Tick() uint64 { return s.tick }

func (s *PropertySystem) Update(dt float64) {
	s.tick++
	for _, id := range ecs.Query[Presence](s.World) {
		pres, _ := ecs.GetComponent[Presence](s.World, id)
		s.syncEntity(id, pres.Object)
	}
}

func (s *PropertySystem) syncEntity(id ecs.Entity, obj world.Object) {
	typeName := obj.TypeName()

	p := protocol.NewEntityProperties(id)
	changed := make(map[uint16]string)
	sink := properties.Multi(protocol.PacketSink{P: p}, properties.SinkFunc(func(pid uint16, v properties.Value) {
		changed[pid] = v.String()
	}))

	n, err := obj.SyncProperties(s.Registry, sink)
	if err != nil {
		s.Metrics.SyncError(typeName)
		s.Logger.Error("property sync failed", "entity", id, "type", typeName, "error", err)
		return
	}
	if n == 0 {
		return
	}
	if err := p.Err(); err != nil {
		// The cache holds values that never went out; start over so the
		// next tick resends them.
		obj.PropertyValues().Reset()
		s.Metrics.SyncError(typeName)
		s.Logger.Error("property packet unencodable", "entity", id, "type", typeName, "error", err)
		return
	}
	s.Metrics.PropertiesEmitted(typeName, n)
	s.Broadcaster.Broadcast(p)

	ev := events.PropertiesChanged{
		Handle: uint32(id),
		Type:   typeName,
		Tick:   s.tick,
		Values: changed,
	}
	if err := s.Publisher.Publish(context.Background(), events.TopicPropertiesChanged, ev); err != nil {
		s.Logger.Warn("publish failed", "topic", events.TopicPropertiesChanged, "error", err)
	}
}

// Prime fills the value cache of a freshly spawned object without sending
// anything. Observers learn its state from an enter snapshot instead.
func (s *PropertySystem) Prime(pres Presence) error {
	_, err := pres.Object.SyncProperties(s.Registry, properties.Discard)
	return err
}
