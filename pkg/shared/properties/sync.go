package properties

// Sync emits the properties of e that changed since they were last emitted
// and returns how many it emitted.
//
// With no ids every registered property is checked in declaration order.
// Otherwise ids are checked in the given order, once per occurrence; a repeat
// within one call always compares equal and is skipped. If any requested id
// is not registered for e's type, Sync returns an error wrapping
// ErrUnknownProperty before reading or emitting anything.
func Sync[E Entity[E]](r *Registry, e E, ids []uint16, sink Sink) (int, error) {
	t, err := Lookup(r, e)
	if err != nil {
		return 0, err
	}
	cache := e.PropertyValues()

	if len(ids) == 0 {
		ids = t.order
	} else {
		for _, id := range ids {
			if _, ok := t.byID[id]; !ok {
				return 0, &PropertyError{Type: t.name, ID: id, Err: ErrUnknownProperty}
			}
		}
	}

	emitted := 0
	for _, id := range ids {
		d := t.byID[id]
		current := d.read(e)
		if current.Equal(cache.Get(id, d.Kind)) {
			continue
		}
		cache.set(id, current)
		sink.Emit(id, current)
		emitted++
	}
	return emitted, nil
}

// Snapshot emits the current value of every property of e, changed or not,
// without touching its cache. It is what a newly arrived observer needs.
func Snapshot[E Entity[E]](r *Registry, e E, sink Sink) (int, error) {
	t, err := Lookup(r, e)
	if err != nil {
		return 0, err
	}
	for _, id := range t.order {
		sink.Emit(id, t.byID[id].read(e))
	}
	return len(t.order), nil
}

// Persistent returns the current values of every property of e that is not
// Calculated.
func Persistent[E Entity[E]](r *Registry, e E) (map[uint16]Value, error) {
	t, err := Lookup(r, e)
	if err != nil {
		return nil, err
	}
	values := make(map[uint16]Value, len(t.order))
	for _, id := range t.order {
		d := t.byID[id]
		if d.Options.Has(Calculated) {
			continue
		}
		values[id] = d.read(e)
	}
	return values, nil
}
