package capability

// Capability names an optional behaviour a component may provide. Consumers
// query the registry instead of probing for globals: either a provider is
// registered under the name or it is not.
type Capability string

const (
	CombatResolve Capability = "combat.resolve"
	AIDecide      Capability = "ai.decide"
	ProfileStore  Capability = "profile.store"
)

// Registry maps capability names to their providers. Registered once at
// boot, read-only afterwards, so no locking.
type Registry struct {
	providers map[Capability]any
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[Capability]any, 8),
	}
}

// Register binds a provider to a capability. Last registration wins.
func (r *Registry) Register(c Capability, provider any) {
	r.providers[c] = provider
}

// Lookup returns the provider for a capability, if one is registered.
func (r *Registry) Lookup(c Capability) (any, bool) {
	p, ok := r.providers[c]
	return p, ok
}

func (r *Registry) Has(c Capability) bool {
	_, ok := r.providers[c]
	return ok
}
