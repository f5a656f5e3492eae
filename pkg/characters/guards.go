package characters

var builtins = []MonsterDefinition{
	{
		ID:          "guard_melee",
		Name:        "City Guard",
		Description: "A generic city guard armed with a sword.",
		Level:       5,
		MaxHp:       50,
		Speed:       1.0,
	},
	{
		ID:          "guard_ranged",
		Name:        "City Archer",
		Description: "A sharpshooter guard armed with a bow.",
		Level:       5,
		MaxHp:       40,
		Speed:       1.25,
	},
}

// DefaultSpawns puts one of each guard in the world.
func DefaultSpawns() []Spawn {
	return []Spawn{
		{Monster: "guard_melee", Count: 1},
		{Monster: "guard_ranged", Count: 1},
	}
}
