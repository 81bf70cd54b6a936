package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Archetype holds static template data for a spawnable entity type.
type Archetype struct {
	ID         string  `yaml:"id"`
	Kind       string  `yaml:"kind"` // player, npc, base, wreckage, derelict, wormhole
	Name       string  `yaml:"name"`
	Health     float64 `yaml:"health"`
	Quality    int     `yaml:"quality"` // 0-100; >0 marks a minable/salvageable target
	Faction    string  `yaml:"faction"`
	Speed      float64 `yaml:"speed"`
	AggroRange float64 `yaml:"aggro_range"`
	DespawnMS  int64   `yaml:"despawn_ms"` // 0 = never
	Script     string  `yaml:"script"`     // lua AI decide function name; empty = builtin
	DestX      float64 `yaml:"dest_x"`     // wormhole exit
	DestY      float64 `yaml:"dest_y"`
}

// SpawnEntry defines where and how many entities to spawn at boot.
type SpawnEntry struct {
	Archetype    string  `yaml:"archetype"`
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	Count        int     `yaml:"count"`
	Scatter      float64 `yaml:"scatter"` // uniform jitter radius around (x, y)
	RespawnDelay int64   `yaml:"respawn_delay_ms"`
}

type archetypeFile struct {
	Archetypes []Archetype `yaml:"archetypes"`
}

type spawnFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// ArchetypeTable holds all archetypes indexed by ID.
type ArchetypeTable struct {
	templates map[string]*Archetype
}

func LoadArchetypeTable(path string) (*ArchetypeTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archetypes: %w", err)
	}
	var f archetypeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse archetypes: %w", err)
	}
	t := &ArchetypeTable{templates: make(map[string]*Archetype, len(f.Archetypes))}
	for i := range f.Archetypes {
		a := &f.Archetypes[i]
		if a.ID == "" {
			return nil, fmt.Errorf("archetype %d: missing id", i)
		}
		t.templates[a.ID] = a
	}
	return t, nil
}

func (t *ArchetypeTable) Get(id string) *Archetype {
	return t.templates[id]
}

func (t *ArchetypeTable) Count() int { return len(t.templates) }

// LoadSpawnList reads the boot spawn list.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn list: %w", err)
	}
	var f spawnFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn list: %w", err)
	}
	return f.Spawns, nil
}
