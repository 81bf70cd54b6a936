package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// InteractionDef is the per-kind configuration of a timed interaction:
// duration, range, cooldown scope, and the reward curve parameters.
type InteractionDef struct {
	Kind          string   `yaml:"kind"`
	Class         string   `yaml:"class"` // conflict/cooldown class; defaults to kind
	DurationMS    int64    `yaml:"duration_ms"`
	Range         float64  `yaml:"range"`
	CooldownMS    int64    `yaml:"cooldown_ms"`
	CooldownScope string   `yaml:"cooldown_scope"` // "actor" or "global"
	RewardUnit    string   `yaml:"reward_unit"`
	RewardMin     float64  `yaml:"reward_min"`
	RewardMax     float64  `yaml:"reward_max"`
	RewardPower   float64  `yaml:"reward_power"`
	TargetKinds   []string `yaml:"target_kinds"`
	ConsumeTarget bool     `yaml:"consume_target"`
	MaxTargets    int      `yaml:"max_targets"` // >1 enables multi-target collection
}

func (d *InteractionDef) Duration() time.Duration {
	return time.Duration(d.DurationMS) * time.Millisecond
}

func (d *InteractionDef) Cooldown() time.Duration {
	return time.Duration(d.CooldownMS) * time.Millisecond
}

func (d *InteractionDef) TargetsKind(kind string) bool {
	for _, k := range d.TargetKinds {
		if k == kind {
			return true
		}
	}
	return false
}

type interactionFile struct {
	Interactions []InteractionDef `yaml:"interactions"`
}

// InteractionTable holds all interaction definitions indexed by kind.
type InteractionTable struct {
	defs map[string]*InteractionDef
}

func LoadInteractionTable(path string) (*InteractionTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read interactions: %w", err)
	}
	var f interactionFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse interactions: %w", err)
	}
	return NewInteractionTable(f.Interactions)
}

// NewInteractionTable builds a table from definitions, normalizing defaults.
func NewInteractionTable(defs []InteractionDef) (*InteractionTable, error) {
	t := &InteractionTable{defs: make(map[string]*InteractionDef, len(defs))}
	for i := range defs {
		d := &defs[i]
		if d.Kind == "" {
			return nil, fmt.Errorf("interaction %d: missing kind", i)
		}
		if d.Class == "" {
			d.Class = d.Kind
		}
		if d.CooldownScope == "" {
			d.CooldownScope = "actor"
		}
		if d.CooldownScope != "actor" && d.CooldownScope != "global" {
			return nil, fmt.Errorf("interaction %s: bad cooldown_scope %q", d.Kind, d.CooldownScope)
		}
		if d.DurationMS <= 0 {
			return nil, fmt.Errorf("interaction %s: duration_ms must be positive", d.Kind)
		}
		if d.MaxTargets < 1 {
			d.MaxTargets = 1
		}
		if d.RewardPower <= 0 {
			d.RewardPower = 1
		}
		t.defs[d.Kind] = d
	}
	return t, nil
}

func (t *InteractionTable) Get(kind string) *InteractionDef {
	return t.defs[kind]
}

func (t *InteractionTable) Count() int { return len(t.defs) }
