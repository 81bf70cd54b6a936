package world

import "time"

// CooldownScope decides who a cooldown binds: a single actor or everyone.
// Scope is per-interaction-kind configuration, never inferred ad hoc.
type CooldownScope string

const (
	ScopeActor  CooldownScope = "actor"
	ScopeGlobal CooldownScope = "global"
)

type cooldownKey struct {
	class  string
	target string
	actor  string // empty under ScopeGlobal
}

// Cooldowns maps (class, target[, actor]) to an expiry instant. Records are
// pruned lazily on lookup and swept in bulk by the cleanup phase.
type Cooldowns struct {
	m map[cooldownKey]time.Time
}

func NewCooldowns() *Cooldowns {
	return &Cooldowns{m: make(map[cooldownKey]time.Time, 128)}
}

func key(class, target, actor string, scope CooldownScope) cooldownKey {
	if scope == ScopeGlobal {
		actor = ""
	}
	return cooldownKey{class: class, target: target, actor: actor}
}

func (c *Cooldowns) Set(class, target, actor string, scope CooldownScope, until time.Time) {
	c.m[key(class, target, actor, scope)] = until
}

// Remaining reports the time left on a cooldown, pruning it if expired.
// A cooldown is considered over exactly at its expiry instant.
func (c *Cooldowns) Remaining(now time.Time, class, target, actor string, scope CooldownScope) (time.Duration, bool) {
	k := key(class, target, actor, scope)
	until, ok := c.m[k]
	if !ok {
		return 0, false
	}
	if !until.After(now) {
		delete(c.m, k)
		return 0, false
	}
	return until.Sub(now), true
}

// DropTarget clears all cooldowns bound to a target, in any scope. Called
// when the target is destroyed.
func (c *Cooldowns) DropTarget(target string) {
	for k := range c.m {
		if k.target == target {
			delete(c.m, k)
		}
	}
}

// Sweep removes every expired record and reports how many were dropped.
func (c *Cooldowns) Sweep(now time.Time) int {
	n := 0
	for k, until := range c.m {
		if !until.After(now) {
			delete(c.m, k)
			n++
		}
	}
	return n
}

func (c *Cooldowns) Len() int { return len(c.m) }
