package world

import (
	"log/slog"
	"reflect"

	"go.uber.org/multierr"

	"lumen/pkg/shared/ecs"
	"lumen/pkg/shared/properties"
)

// Wire type names sent in OpEntityEnter.
const (
	TypeCharacter = "pc"
	TypeMonster   = "monster"
)

// Object is anything the server keeps in the world and shows to clients.
type Object interface {
	Handle() ecs.Entity
	SetHandle(h ecs.Entity)
	TypeName() string
	Alive() bool
	Health() int32
	AdjustHp(delta int32)
	Regenerate(hp, sp int32)
	PropertyValues() *properties.Values
	// SyncProperties emits the properties that changed since the last call
	// and returns how many.
	SyncProperties(r *properties.Registry, sink properties.Sink) (int, error)
	// SnapshotProperties emits every property, for an observer that has
	// not seen the object yet.
	SnapshotProperties(r *properties.Registry, sink properties.Sink) (int, error)
}

var (
	_ Object = (*Character)(nil)
	_ Object = (*Monster)(nil)
)

var types = map[string]reflect.Type{
	TypeCharacter: reflect.TypeFor[*Character](),
	TypeMonster:   reflect.TypeFor[*Monster](),
}

// Preload builds the property table of every world type so a malformed
// declaration stops the process at startup instead of at first use.
// Duplicate ids are tolerated, the last declaration wins, and each one is
// logged as a warning.
func Preload(r *properties.Registry, logger *slog.Logger) error {
	var err error
	if t, e := properties.Lookup(r, &Character{}); e != nil {
		err = multierr.Append(err, e)
	} else {
		warnDuplicates(logger, t.Name(), t.Duplicates())
	}
	if t, e := properties.Lookup(r, &Monster{}); e != nil {
		err = multierr.Append(err, e)
	} else {
		warnDuplicates(logger, t.Name(), t.Duplicates())
	}
	return err
}

func warnDuplicates(logger *slog.Logger, typeName string, ids []uint16) {
	for _, id := range ids {
		logger.Warn("duplicate property id, last declaration wins", "type", typeName, "id", id)
	}
}

// SchemaFor returns the property schema of the type sent as typeName.
// The type must have been preloaded into r.
func SchemaFor(r *properties.Registry, typeName string) (properties.Schema, bool) {
	t, ok := types[typeName]
	if !ok {
		return nil, false
	}
	return r.Schema(t)
}
