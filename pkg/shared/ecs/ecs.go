package ecs

import (
	"reflect"
	"slices"
	"sync/atomic"
)

// Entity is the handle of a world object. It is what goes on the wire.
type Entity uint32

// System is logic that runs once per tick.
type System interface {
	Update(dt float64)
}

// Component is data attached to entities.
type Component any

// World manages entities and their components. It is not safe for
// concurrent use; the server serializes access.
type World struct {
	nextEntityID atomic.Uint32
	// components maps ComponentType -> EntityID -> Component
	components map[reflect.Type]map[Entity]Component
	systems    []System
}

func NewWorld() *World {
	return &World{
		components: make(map[reflect.Type]map[Entity]Component),
	}
}

// NewEntity creates a new entity with a unique ID. IDs start at 1; 0 is
// never handed out.
func (w *World) NewEntity() Entity {
	return Entity(w.nextEntityID.Add(1))
}

// RemoveEntity removes all components associated with an entity.
func (w *World) RemoveEntity(e Entity) {
	for _, store := range w.components {
		delete(store, e)
	}
}

// AddComponent attaches c to e, replacing any component of the same type.
func (w *World) AddComponent(e Entity, c Component) {
	cType := reflect.TypeOf(c)
	if _, ok := w.components[cType]; !ok {
		w.components[cType] = make(map[Entity]Component)
	}
	w.components[cType][e] = c
}

// RemoveComponent removes the component of T from e.
func RemoveComponent[T Component](w *World, e Entity) {
	if store, ok := w.components[reflect.TypeFor[T]()]; ok {
		delete(store, e)
	}
}

// GetComponent retrieves the component of type T for an entity. Store
// pointers to have the caller see and make changes in place.
func GetComponent[T Component](w *World, e Entity) (T, bool) {
	if store, ok := w.components[reflect.TypeFor[T]()]; ok {
		if val, ok := store[e]; ok {
			return val.(T), true
		}
	}
	var zero T
	return zero, false
}

// AddSystem adds a system to the world.
func (w *World) AddSystem(s System) {
	w.systems = append(w.systems, s)
}

// Update runs all systems in the order they were added.
func (w *World) Update(dt float64) {
	for _, system := range w.systems {
		system.Update(dt)
	}
}

// Query returns all entities that have a component of type T, in ascending
// order.
func Query[T Component](w *World) []Entity {
	var entities []Entity
	if store, ok := w.components[reflect.TypeFor[T]()]; ok {
		for e := range store {
			entities = append(entities, e)
		}
	}
	slices.Sort(entities)
	return entities
}
