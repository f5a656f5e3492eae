package world

import (
	"lumen/pkg/shared/ecs"
	"lumen/pkg/shared/properties"
)

// Monster is a server controlled entity spawned from a definition. Its
// properties are discovered from struct tags.
type Monster struct {
	props  properties.Values
	handle ecs.Entity

	DefinitionID string

	Name  string  `prop:"200"`
	Level int32   `prop:"201"`
	Hp    int32   `prop:"202"`
	MaxHp int32   `prop:"203"`
	Speed float32 `prop:"204"`
}

func (m *Monster) PropertyValues() *properties.Values { return &m.props }

func (m *Monster) DeclareProperties(d *properties.Declaration[*Monster]) { d.Tagged() }

func (m *Monster) Handle() ecs.Entity { return m.handle }
func (m *Monster) SetHandle(h ecs.Entity) { m.handle = h }
func (m *Monster) TypeName() string { return TypeMonster }
func (m *Monster) Alive() bool { return m.Hp > 0 }
func (m *Monster) Health() int32 { return m.Hp }
func (m *Monster) AdjustHp(delta int32) { m.Hp = adjust(m.Hp, delta, m.MaxHp) }
func (m *Monster) Regenerate(hp, _ int32) { m.AdjustHp(hp) }

func (m *Monster) SyncProperties(r *properties.Registry, sink properties.Sink) (int, error) {
	return properties.Sync(r, m, nil, sink)
}

func (m *Monster) SnapshotProperties(r *properties.Registry, sink properties.Sink) (int, error) {
	return properties.Snapshot(r, m, sink)
}
