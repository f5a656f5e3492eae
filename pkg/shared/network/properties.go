package network

import (
	"fmt"

	"lumen/pkg/shared/properties"
)

// PacketSink writes each emitted property as a u16 id and its payload:
// numbers as f32 (integers widened), text as an lp-string.
//
// A string too long for its length prefix is not written at all and
// poisons the packet. The entity's cache already holds that value, so a
// caller that drops the packet must Reset the entity's Values.
type PacketSink struct {
	P *Packet
}

func (s PacketSink) Emit(id uint16, v properties.Value) {
	if v.Kind() == properties.KindString {
		if !fitsLpString(v.Text()) {
			s.P.fail(fmt.Errorf("property %d: %w: %d bytes", id, ErrStringTooLong, len(v.Text())))
			return
		}
		s.P.PutUint16(id)
		s.P.PutLpString(v.Text())
		return
	}
	s.P.PutUint16(id)
	s.P.PutFloat32(v.Wire())
}

// AddProperties appends the changed properties of e to p. With no ids every
// property of e is considered. It returns how many were written.
func AddProperties[E properties.Entity[E]](p *Packet, r *properties.Registry, e E, ids ...uint16) (int, error) {
	return properties.Sync(r, e, ids, PacketSink{P: p})
}

// AddSnapshot appends every property of e to p, changed or not.
func AddSnapshot[E properties.Entity[E]](p *Packet, r *properties.Registry, e E) (int, error) {
	return properties.Snapshot(r, e, PacketSink{P: p})
}

// Property is one decoded (id, value) pair.
type Property struct {
	ID    uint16
	Value properties.Value
}

// DecodeProperties reads (id, payload) pairs until the end of the packet.
// The schema of the entity's type tells which payload form each id uses;
// an id the schema does not know makes the rest of the packet unreadable.
func DecodeProperties(r *Reader, s properties.Schema) ([]Property, error) {
	var props []Property
	for r.Remaining() > 0 {
		id := r.ReadUint16()
		if err := r.Err(); err != nil {
			return props, fmt.Errorf("property id: %w", err)
		}
		kind, ok := s.Kind(id)
		if !ok {
			return props, &properties.PropertyError{Type: s.Name(), ID: id, Err: properties.ErrUnknownProperty}
		}

		var v properties.Value
		switch kind {
		case properties.KindString:
			v = properties.StringValue(r.ReadLpString())
		case properties.KindInteger:
			v = properties.IntValue(int32(r.ReadFloat32()))
		default:
			v = properties.FloatValue(r.ReadFloat32())
		}
		if err := r.Err(); err != nil {
			return props, fmt.Errorf("property %d: %w", id, err)
		}
		props = append(props, Property{ID: id, Value: v})
	}
	return props, r.Err()
}
