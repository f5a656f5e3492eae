package world

import (
	"lumen/pkg/shared/ecs"
	"lumen/pkg/shared/properties"
)

// Job is a character's class and advancement. The thousands digit is the
// class.
type Job int16

const (
	JobSwordsman Job = 1001
	JobWizard    Job = 2001
	JobArcher    Job = 3001
	JobCleric    Job = 4001
)

// Stance returns the combat stance of the job's class, or 0 for a job this
// server does not know.
func (j Job) Stance() int32 {
	switch j / 1000 {
	case 1:
		return 10000
	case 2:
		return 10006
	case 3:
		return 10008
	case 4, 9:
		return 10004
	}
	return 0
}

// Character is a player controlled entity.
type Character struct {
	props  properties.Values
	handle ecs.Entity

	Name     string
	TeamName string
	Job      Job
	Level    int32

	Hp, MaxHp int32
	Sp, MaxSp int32

	Str, Con, Int, Spr, Dex int32
}

// NewCharacter returns a level 1 swordsman named name.
func NewCharacter(name string) *Character {
	return &Character{
		Name:  name,
		Job:   JobSwordsman,
		Level: 1,
		Hp:    100,
		MaxHp: 100,
		Sp:    50,
		MaxSp: 50,
		Str:   5,
		Con:   5,
		Int:   5,
		Spr:   5,
		Dex:   5,
	}
}

func (c *Character) PropertyValues() *properties.Values { return &c.props }

func (c *Character) DeclareProperties(d *properties.Declaration[*Character]) {
	d.String(PCName, func(c *Character) string { return c.Name })
	d.String(PCTeamName, func(c *Character) string { return c.TeamName })
	d.Int(PCLevel, func(c *Character) int32 { return c.Level })
	d.Int(PCJob, func(c *Character) int32 { return int32(c.Job) })

	d.Int(PCHp, func(c *Character) int32 { return c.Hp })
	d.Int(PCMaxHp, func(c *Character) int32 { return c.MaxHp })
	d.Int(PCSp, func(c *Character) int32 { return c.Sp })
	d.Int(PCMaxSp, func(c *Character) int32 { return c.MaxSp })

	d.Int(PCStr, func(c *Character) int32 { return c.Str })
	d.Int(PCCon, func(c *Character) int32 { return c.Con })
	d.Int(PCInt, func(c *Character) int32 { return c.Int })
	d.Int(PCMna, func(c *Character) int32 { return c.Spr })
	d.Int(PCDex, func(c *Character) int32 { return c.Dex })

	d.Int(PCStance, func(c *Character) int32 { return c.Job.Stance() }, properties.Calculated)
}

func (c *Character) Handle() ecs.Entity { return c.handle }
func (c *Character) SetHandle(h ecs.Entity) { c.handle = h }
func (c *Character) TypeName() string { return TypeCharacter }
func (c *Character) Alive() bool { return c.Hp > 0 }
func (c *Character) Health() int32 { return c.Hp }
func (c *Character) AdjustHp(delta int32) { c.Hp = adjust(c.Hp, delta, c.MaxHp) }
func (c *Character) AdjustSp(delta int32) { c.Sp = adjust(c.Sp, delta, c.MaxSp) }

// Regenerate restores hp and sp, capped at their maximums.
func (c *Character) Regenerate(hp, sp int32) {
	c.AdjustHp(hp)
	c.AdjustSp(sp)
}

func (c *Character) SyncProperties(r *properties.Registry, sink properties.Sink) (int, error) {
	return properties.Sync(r, c, nil, sink)
}

func (c *Character) SnapshotProperties(r *properties.Registry, sink properties.Sink) (int, error) {
	return properties.Snapshot(r, c, sink)
}

func (c *Character) Persistent(r *properties.Registry) (map[uint16]properties.Value, error) {
	return properties.Persistent(r, c)
}

// Restore applies saved property values. Ids it does not know and values of
// the wrong kind are ignored, so old saves stay loadable.
func (c *Character) Restore(values map[uint16]properties.Value) {
	for id, v := range values {
		if v.Kind() == properties.KindString {
			switch id {
			case PCName:
				c.Name = v.Text()
			case PCTeamName:
				c.TeamName = v.Text()
			}
			continue
		}
		if v.Kind() != properties.KindInteger {
			continue
		}
		n := v.Int()
		switch id {
		case PCLevel:
			c.Level = n
		case PCJob:
			c.Job = Job(n)
		case PCHp:
			c.Hp = n
		case PCMaxHp:
			c.MaxHp = n
		case PCSp:
			c.Sp = n
		case PCMaxSp:
			c.MaxSp = n
		case PCStr:
			c.Str = n
		case PCCon:
			c.Con = n
		case PCInt:
			c.Int = n
		case PCMna:
			c.Spr = n
		case PCDex:
			c.Dex = n
		}
	}
}

// adjust adds delta to cur and keeps the result in [0, hi]. The sum is taken
// in 64 bits so a delta near the int32 limits cannot wrap.
func adjust(cur, delta, hi int32) int32 {
	return int32(max(0, min(int64(cur)+int64(delta), int64(hi))))
}
