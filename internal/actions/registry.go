package actions

import (
	"fmt"
	"sort"
	"sync"

	"grindbot/internal/client"
	"grindbot/internal/state"
)

// Registry is the named catalogue of action descriptors. Populated at
// startup, immutable afterwards; reads are lock-free after Freeze.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]*Descriptor
	order   []string
	frozen  bool
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]*Descriptor)}
}

// Register adds a descriptor. Duplicate names and post-freeze
// registration are programming errors.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("descriptor requires a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("registry is frozen; cannot register %s", d.Name)
	}
	if _, dup := r.actions[d.Name]; dup {
		return fmt.Errorf("action %s already registered", d.Name)
	}
	r.actions[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// MustRegister registers or panics; used during startup wiring where a
// duplicate is a bug.
func (r *Registry) MustRegister(d *Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Freeze seals the registry against further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Get returns the named descriptor, false when absent.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.actions[name]
	return d, ok
}

// All returns every descriptor in registration order.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.actions[name])
	}
	return out
}

// Names returns all action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	sort.Strings(out)
	return out
}

// Applicable returns the descriptors whose preconditions hold in the
// state, in registration order (the planner's deterministic expansion
// order).
func (r *Registry) Applicable(s state.Map) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.All() {
		if d.Applicable(s) {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// DefaultRegistry builds the full standard catalogue wired against the
// given client capabilities. The lookup_item_info action registers only
// when the client implements the optional ItemSearcher probe.
func DefaultRegistry(gc client.GameClient) *Registry {
	r := NewRegistry()

	// Combat family.
	r.MustRegister(NewRestAction())
	r.MustRegister(NewInitiateCombatSearchAction())
	r.MustRegister(NewFindMonstersAction())
	r.MustRegister(NewAnalyzeCombatViabilityAction())
	r.MustRegister(NewAttackAction())

	// Movement family.
	r.MustRegister(NewMoveAction())
	r.MustRegister(NewMoveToResourceAction())
	r.MustRegister(NewMoveToWorkshopAction())

	// Gathering family.
	r.MustRegister(NewFindResourcesAction())
	r.MustRegister(NewFindWorkshopsAction())
	r.MustRegister(NewGatherResourcesAction())
	r.MustRegister(NewGatherResourceQuantityAction())

	// Crafting family.
	r.MustRegister(NewAnalyzeCraftingRequirementsAction())
	r.MustRegister(NewAnalyzeCraftingChainAction())
	r.MustRegister(NewPlanCraftingMaterialsAction())
	r.MustRegister(NewTransformRawMaterialsAction())
	r.MustRegister(NewCraftItemAction())
	for _, d := range NewUpgradeSkillActions() {
		r.MustRegister(d)
	}

	// Equipment family.
	r.MustRegister(NewAnalyzeEquipmentAction())
	r.MustRegister(NewEquipItemAction())
	r.MustRegister(NewUnequipItemAction())
	r.MustRegister(NewFindXPSourcesAction())

	// Knowledge family.
	r.MustRegister(NewMapLookupAction())
	r.MustRegister(NewExploreMapAction())
	r.MustRegister(NewAnalyzeKnowledgeStateAction())
	if _, ok := gc.(client.ItemSearcher); ok {
		r.MustRegister(NewLookupItemInfoAction())
	}

	r.Freeze()
	return r
}
