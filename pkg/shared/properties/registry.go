package properties

import (
	"reflect"
	"sync"
)

// Entity is implemented by every synchronizable entity type. E is the type
// itself, usually a pointer to a struct.
//
// DeclareProperties is called once per type, on whichever instance reaches
// the registry first; it must not depend on that instance's state.
type Entity[E any] interface {
	PropertyValues() *Values
	DeclareProperties(d *Declaration[E])
}

// Schema is the type-erased view of a Table, for callers that know an entity
// type only by name or reflect.Type.
type Schema interface {
	Name() string
	IDs() []uint16
	Kind(id uint16) (Kind, bool)
	Options(id uint16) (Options, bool)
}

// Registry holds one Table per entity type. Tables are built on first use
// and never change afterwards. The zero value is ready to use.
type Registry struct {
	tables sync.Map // reflect.Type -> *entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

type entry struct {
	table  any
	schema Schema
	err    error
}

// Lookup returns the table for E, building it from e's declaration if this
// is the first time E is seen. Concurrent first lookups may each build a
// table, but only one is published and all callers get that one. A failed
// build is published too, so a broken type fails the same way every time.
func Lookup[E Entity[E]](r *Registry, e E) (*Table[E], error) {
	key := reflect.TypeFor[E]()
	v, ok := r.tables.Load(key)
	if !ok {
		v, _ = r.tables.LoadOrStore(key, build(key, e))
	}
	ent := v.(*entry)
	if ent.err != nil {
		return nil, ent.err
	}
	return ent.table.(*Table[E]), nil
}

// Schema returns the table built for t, if any.
func (r *Registry) Schema(t reflect.Type) (Schema, bool) {
	v, ok := r.tables.Load(t)
	if !ok {
		return nil, false
	}
	ent := v.(*entry)
	if ent.err != nil {
		return nil, false
	}
	return ent.schema, true
}

func build[E Entity[E]](key reflect.Type, e E) *entry {
	d := &Declaration[E]{typeName: key.String()}
	e.DeclareProperties(d)
	if d.err != nil {
		return &entry{err: d.err}
	}
	t := newTable(key.String(), d.descs)
	return &entry{table: t, schema: t}
}

// Table maps wire ids to descriptors for one entity type.
type Table[E any] struct {
	name  string
	order []uint16
	byID  map[uint16]Descriptor[E]
	dups  []uint16
}

// newTable indexes descs by id. A repeated id replaces the earlier
// descriptor but keeps its original position.
func newTable[E any](name string, descs []Descriptor[E]) *Table[E] {
	t := &Table[E]{
		name:  name,
		order: make([]uint16, 0, len(descs)),
		byID:  make(map[uint16]Descriptor[E], len(descs)),
	}
	for _, d := range descs {
		if _, exists := t.byID[d.ID]; exists {
			t.dups = append(t.dups, d.ID)
		} else {
			t.order = append(t.order, d.ID)
		}
		t.byID[d.ID] = d
	}
	return t
}

// Name is the Go type name the table was built for, e.g. "*world.Monster".
func (t *Table[E]) Name() string { return t.name }

// Len returns the number of distinct ids.
func (t *Table[E]) Len() int { return len(t.order) }

// IDs returns every registered id in declaration order.
func (t *Table[E]) IDs() []uint16 {
	ids := make([]uint16, len(t.order))
	copy(ids, t.order)
	return ids
}

// Descriptor returns the descriptor for id or an error wrapping
// ErrUnknownProperty.
func (t *Table[E]) Descriptor(id uint16) (Descriptor[E], error) {
	d, ok := t.byID[id]
	if !ok {
		return Descriptor[E]{}, &PropertyError{Type: t.name, ID: id, Err: ErrUnknownProperty}
	}
	return d, nil
}

// Kind returns the kind registered for id.
func (t *Table[E]) Kind(id uint16) (Kind, bool) {
	d, ok := t.byID[id]
	return d.Kind, ok
}

// Options returns the options registered for id.
func (t *Table[E]) Options(id uint16) (Options, bool) {
	d, ok := t.byID[id]
	return d.Options, ok
}

// Calculated reports whether id is registered with the Calculated option.
func (t *Table[E]) Calculated(id uint16) bool {
	opts, ok := t.Options(id)
	return ok && opts.Has(Calculated)
}

// Duplicates lists ids that were declared more than once. The last
// declaration of each won.
func (t *Table[E]) Duplicates() []uint16 {
	return t.dups
}
