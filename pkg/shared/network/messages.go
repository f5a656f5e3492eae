package network

import (
	"fmt"

	"lumen/pkg/shared/ecs"
)

func EncodeLogin(name string) *Packet {
	p := NewPacket(OpLogin)
	p.PutLpString(name)
	return p
}

// DecodeLogin reads the body of an OpLogin packet.
func DecodeLogin(r *Reader) (string, error) {
	name := r.ReadLpString()
	if err := r.Err(); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if name == "" || len(name) > MaxNameLength {
		return "", fmt.Errorf("login: invalid name length %d", len(name))
	}
	return name, nil
}

func EncodeLoginResult(handle ecs.Entity) *Packet {
	p := NewPacket(OpLoginResult)
	p.PutUint32(uint32(handle))
	return p
}

// NewEntityEnter starts an OpEntityEnter packet; the caller appends the
// entity's full property list.
func NewEntityEnter(handle ecs.Entity, typeName string) *Packet {
	p := NewPacket(OpEntityEnter)
	p.PutUint32(uint32(handle))
	p.PutLpString(typeName)
	return p
}

// NewEntityProperties starts an OpEntityProperties packet; the caller
// appends changed properties.
func NewEntityProperties(handle ecs.Entity) *Packet {
	p := NewPacket(OpEntityProperties)
	p.PutUint32(uint32(handle))
	return p
}

func EncodeEntityLeave(handle ecs.Entity) *Packet {
	p := NewPacket(OpEntityLeave)
	p.PutUint32(uint32(handle))
	return p
}

// ReadHandle reads the u32 entity handle that leads every entity packet body.
func ReadHandle(r *Reader) ecs.Entity {
	return ecs.Entity(r.ReadUint32())
}
