package patterns

import (
	"fmt"

	"github.com/pthm-cable/sigil/config"
	"github.com/pthm-cable/sigil/params"
	"github.com/pthm-cable/sigil/systems"
)

// PatternInfo describes a pattern for UI display and metadata.
type PatternInfo struct {
	ID          string // Variant id (used for config speeds and perf tracking)
	Name        string // Display name
	Description string // What the pattern draws
	Category    string // Grouping (e.g., "field", "geometric", "particle")
}

// Env carries shared resources into generator constructors.
type Env struct {
	Config *config.Config
	Pool   *systems.RowPool // May be nil for single-threaded rendering
}

// Constructor builds a fresh generator.
type Constructor func(env Env) Generator

type entry struct {
	info PatternInfo
	ctor Constructor
}

// Registry holds metadata and constructors for all patterns.
// This centralizes naming so the UI, driver and perf tracker stay in sync.
type Registry struct {
	entries []entry
	byID    map[string]int
}

// NewRegistry creates a registry with all known patterns.
func NewRegistry() *Registry {
	reg := &Registry{byID: make(map[string]int)}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all built-in patterns.
// Update this when adding new variants.
func (r *Registry) registerDefaults() {
	// Wave fields
	r.Register(PatternInfo{ID: Interference.String(), Name: "Interference", Description: "Superimposed point-source waves", Category: "field"},
		func(env Env) Generator { return NewInterference(env) })
	r.Register(PatternInfo{ID: ContourInterference.String(), Name: "Contour Interference", Description: "Iso-lines of the wave field", Category: "field"},
		func(env Env) Generator { return NewContourInterference(env) })

	// Geometric
	r.Register(PatternInfo{ID: Gentle.String(), Name: "Gentle Flow", Description: "Layered sinusoidal strokes", Category: "geometric"},
		func(env Env) Generator { return NewGentleFlow() })
	r.Register(PatternInfo{ID: Mandala.String(), Name: "Mandala", Description: "Breathing concentric point layers", Category: "geometric"},
		func(env Env) Generator { return NewMandala() })
	r.Register(PatternInfo{ID: ShellRidge.String(), Name: "Shell Ridge", Description: "Distorted concentric rings with texture", Category: "geometric"},
		func(env Env) Generator { return NewShellRidge() })

	// Particles
	r.Register(PatternInfo{ID: VectorField.String(), Name: "Vector Field", Description: "Ribbons advected through a noise field", Category: "particle"},
		func(env Env) Generator { return NewVectorField(env) })
}

// Register adds a pattern. Registering an existing ID replaces it.
func (r *Registry) Register(info PatternInfo, ctor Constructor) {
	if i, ok := r.byID[info.ID]; ok {
		r.entries[i] = entry{info: info, ctor: ctor}
		return
	}
	r.byID[info.ID] = len(r.entries)
	r.entries = append(r.entries, entry{info: info, ctor: ctor})
}

// Get returns pattern info by variant.
func (r *Registry) Get(v Variant) (PatternInfo, bool) {
	i, ok := r.byID[v.String()]
	if !ok {
		return PatternInfo{}, false
	}
	return r.entries[i].info, true
}

// GetName returns the display name for a variant.
// Falls back to the variant id if not found.
func (r *Registry) GetName(v Variant) string {
	if info, ok := r.Get(v); ok {
		return info.Name
	}
	return v.String()
}

// New constructs a generator for v.
func (r *Registry) New(v Variant, env Env) (Generator, error) {
	i, ok := r.byID[v.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	return r.entries[i].ctor(env), nil
}

// All returns all registered patterns in registration order.
func (r *Registry) All() []PatternInfo {
	out := make([]PatternInfo, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.info
	}
	return out
}

// ByCategory returns patterns filtered by category.
func (r *Registry) ByCategory(category string) []PatternInfo {
	var result []PatternInfo
	for _, e := range r.entries {
		if e.info.Category == category {
			result = append(result, e.info)
		}
	}
	return result
}

// Descriptor is the metadata the collaborator reads for the current frame.
type Descriptor struct {
	Variant    string
	Name       string
	Complexity int
}

// Describe builds a descriptor for v with parameters p.
func (r *Registry) Describe(v Variant, g Generator, p params.Parameters) Descriptor {
	return Descriptor{
		Variant:    v.String(),
		Name:       r.GetName(v),
		Complexity: g.Complexity(p),
	}
}
