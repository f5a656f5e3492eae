package properties

// Values remembers, per wire id, the value last emitted for one entity
// instance. Embed it in the entity; the zero value is ready to use.
type Values struct {
	last map[uint16]Value
}

// Get returns the last emitted value for id, or the zero value of kind k if
// id was never emitted.
func (c *Values) Get(id uint16, k Kind) Value {
	if v, ok := c.last[id]; ok {
		return v
	}
	return Zero(k)
}

func (c *Values) set(id uint16, v Value) {
	if c.last == nil {
		c.last = make(map[uint16]Value)
	}
	c.last[id] = v
}

// Len returns how many ids have been emitted at least once.
func (c *Values) Len() int {
	return len(c.last)
}

// Reset forgets everything, so the next Sync emits every property that is
// not at its zero value.
func (c *Values) Reset() {
	clear(c.last)
}
