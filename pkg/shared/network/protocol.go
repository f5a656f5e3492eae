package network

import "fmt"

// Opcode identifies a packet. It is the first two bytes of every packet.
type Opcode uint16

const (
	// OpLogin (Client -> Server): lp-string character name.
	OpLogin Opcode = 1
	// OpLoginResult (Server -> Client): u32 handle of the player's character.
	OpLoginResult Opcode = 2
	// OpEntityEnter (Server -> Client): u32 handle, lp-string type name, full property list.
	OpEntityEnter Opcode = 3
	// OpEntityProperties (Server -> Client): u32 handle, changed properties until end of packet.
	OpEntityProperties Opcode = 4
	// OpEntityLeave (Server -> Client): u32 handle.
	OpEntityLeave Opcode = 5
)

func (op Opcode) String() string {
	switch op {
	case OpLogin:
		return "Login"
	case OpLoginResult:
		return "LoginResult"
	case OpEntityEnter:
		return "EntityEnter"
	case OpEntityProperties:
		return "EntityProperties"
	case OpEntityLeave:
		return "EntityLeave"
	}
	return fmt.Sprintf("Opcode(%d)", uint16(op))
}

// MaxNameLength bounds the character name accepted in OpLogin.
const MaxNameLength = 24
