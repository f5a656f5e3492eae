package systems

import (
	"time"

	"lumen/pkg/shared/ecs"
)

// RegenSystem restores HP and SP of living entities at a fixed interval.
type RegenSystem struct {
	World    *ecs.World
	Interval time.Duration
	Hp       int32
	Sp       int32

	elapsed float64
}

func NewRegenSystem(world *ecs.World, interval time.Duration, hp, sp int32) *RegenSystem {
	return &RegenSystem{
		World:    world,
		Interval: interval,
		Hp:       hp,
		Sp:       sp,
	}
}

func (s *RegenSystem) Update(dt float64) {
	if s.Interval <= 0 {
		return
	}
	s.elapsed += dt
	if s.elapsed < s.Interval.Seconds() {
		return
	}
	s.elapsed = 0

	for _, id := range ecs.Query[Presence](s.World) {
		pres, _ := ecs.GetComponent[Presence](s.World, id)
		if pres.Object.Alive() {
			pres.Object.Regenerate(s.Hp, s.Sp)
		}
	}
}
