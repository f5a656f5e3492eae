package characters

import (
	"fmt"
	"io"
	"slices"

	yaml "gopkg.in/yaml.v2"

	"lumen/pkg/shared/world"
)

// MonsterDefinition is the static configuration for a monster type.
// This acts as a Blueprint/Prefab for spawning entities.
type MonsterDefinition struct {
	ID          string  `yaml:"id"` // Unique ID e.g. "guard_melee"
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Level       int32   `yaml:"level"`
	MaxHp       int32   `yaml:"maxHp"`
	Speed       float32 `yaml:"speed"`
}

// NewMonster returns a full health monster built from d.
func (d MonsterDefinition) NewMonster() *world.Monster {
	return &world.Monster{
		DefinitionID: d.ID,
		Name:         d.Name,
		Level:        d.Level,
		Hp:           d.MaxHp,
		MaxHp:        d.MaxHp,
		Speed:        d.Speed,
	}
}

func (d MonsterDefinition) validate() error {
	switch {
	case d.ID == "":
		return fmt.Errorf("monster definition without id")
	case d.MaxHp <= 0:
		return fmt.Errorf("monster %s: maxHp must be positive", d.ID)
	case d.Level < 1:
		return fmt.Errorf("monster %s: level must be at least 1", d.ID)
	}
	return nil
}

// Spawn places Count monsters of one definition in the world at startup.
type Spawn struct {
	Monster string `yaml:"monster"`
	Count   int    `yaml:"count"`
}

// Config is the content of a definitions file.
type Config struct {
	Monsters []MonsterDefinition `yaml:"monsters"`
	Spawns   []Spawn             `yaml:"spawns"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("definitions: %w", err)
	}
	return cfg, nil
}

// Registry holds monster definitions by id.
type Registry struct {
	defs map[string]MonsterDefinition
}

// NewRegistry returns a registry holding the built-in definitions.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]MonsterDefinition)}
	for _, def := range builtins {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Register(def MonsterDefinition) error {
	if err := def.validate(); err != nil {
		return err
	}
	if _, exists := r.defs[def.ID]; exists {
		return fmt.Errorf("duplicate monster id: %s", def.ID)
	}
	r.defs[def.ID] = def
	return nil
}

func (r *Registry) Get(id string) (MonsterDefinition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// IDs returns every definition id, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Apply registers the monsters of cfg and checks that every spawn names a
// known definition. It returns the spawns to place, or the built-in ones if
// cfg has none.
func (r *Registry) Apply(cfg *Config) ([]Spawn, error) {
	for _, def := range cfg.Monsters {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	if len(cfg.Spawns) == 0 {
		return DefaultSpawns(), nil
	}
	for _, s := range cfg.Spawns {
		if _, ok := r.defs[s.Monster]; !ok {
			return nil, fmt.Errorf("spawn of unknown monster %q", s.Monster)
		}
		if s.Count < 1 {
			return nil, fmt.Errorf("spawn of %s: count must be at least 1", s.Monster)
		}
	}
	return cfg.Spawns, nil
}
