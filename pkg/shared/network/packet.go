package network

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrShortPacket   = errors.New("packet too short")
	ErrStringTooLong = errors.New("string too long for length prefix")
)

// Packet is an outgoing message under construction. All fields are little
// endian. A write that cannot be encoded poisons the packet; check Err
// before sending.
type Packet struct {
	buf []byte
	err error
}

func NewPacket(op Opcode) *Packet {
	p := &Packet{buf: make([]byte, 0, 64)}
	p.PutUint16(uint16(op))
	return p
}

func (p *Packet) Opcode() Opcode {
	return Opcode(binary.LittleEndian.Uint16(p.buf))
}

func (p *Packet) PutUint16(v uint16) {
	p.buf = binary.LittleEndian.AppendUint16(p.buf, v)
}

func (p *Packet) PutUint32(v uint32) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *Packet) PutFloat32(v float32) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, math.Float32bits(v))
}

// PutLpString writes a u16 byte length followed by the raw bytes of s.
func (p *Packet) PutLpString(s string) {
	if !fitsLpString(s) {
		p.fail(fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s)))
		return
	}
	p.PutUint16(uint16(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *Packet) Len() int { return len(p.buf) }

func (p *Packet) Bytes() []byte { return p.buf }

func (p *Packet) Err() error { return p.err }

func (p *Packet) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func fitsLpString(s string) bool { return len(s) <= math.MaxUint16 }

// Reader consumes an incoming packet. The first failed read is sticky:
// later reads return zero values and Err reports the failure.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// ReadOpcode reads the leading opcode. It is only meaningful as the first read.
func (r *Reader) ReadOpcode() Opcode {
	return Opcode(r.ReadUint16())
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.off < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortPacket, n, r.off, len(r.buf)-r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) ReadUint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) ReadUint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(r.ReadUint32())
}

func (r *Reader) ReadLpString() string {
	n := r.ReadUint16()
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

// Remaining returns how many unread bytes are left.
func (r *Reader) Remaining() int {
	if r.err != nil {
		return 0
	}
	return len(r.buf) - r.off
}

func (r *Reader) Err() error { return r.err }
