package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayFront      OverlayID = "front"
	OverlaySide       OverlayID = "side"
	OverlayTurbulence OverlayID = "turbulence"
	OverlayShadow     OverlayID = "shadow"
	OverlayTunnel     OverlayID = "tunnel"
	OverlayNormals    OverlayID = "normals"
	OverlayAir        OverlayID = "air"
	OverlayForcePlot  OverlayID = "force_plot"
	OverlayPerf       OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "S", "V")
	Category    string      // Grouping: fields, tunnel, panels
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
	Default     bool        // Enabled at startup
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
	order       []OverlayID // Maintains insertion order for display
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds standard overlays.
func (r *OverlayRegistry) registerDefaults() {
	// 2D fields; the turbulence and shadow grids share a slot
	r.Register(OverlayDescriptor{
		ID:          OverlayFront,
		Name:        "Front",
		Description: "Occupancy projected along the wind",
		Key:         rl.KeyF,
		KeyLabel:    "F",
		Category:    "fields",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlaySide,
		Name:        "Side",
		Description: "Row occupancy per slice",
		Key:         rl.KeyS,
		KeyLabel:    "S",
		Category:    "fields",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayTurbulence,
		Name:        "Turbulence",
		Description: "Turbulence magnitude carried downstream",
		Key:         rl.KeyT,
		KeyLabel:    "T",
		Category:    "fields",
		Exclusive:   []OverlayID{OverlayShadow},
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayShadow,
		Name:        "Wind Shadow",
		Description: "Blocked free stream behind the object",
		Key:         rl.KeyW,
		KeyLabel:    "W",
		Category:    "fields",
		Exclusive:   []OverlayID{OverlayTurbulence},
	})

	// 3D tunnel
	r.Register(OverlayDescriptor{
		ID:          OverlayTunnel,
		Name:        "Tunnel",
		Description: "Windframe with the current slice in 3D",
		Key:         rl.KeyV,
		KeyLabel:    "V",
		Category:    "tunnel",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayNormals,
		Name:        "Normals",
		Description: "Surface normals of the current slice",
		Key:         rl.KeyN,
		KeyLabel:    "N",
		Category:    "tunnel",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayAir,
		Name:        "Air Pixels",
		Description: "Tracked air parcels of the current slice",
		Key:         rl.KeyA,
		KeyLabel:    "A",
		Category:    "tunnel",
	})

	// Panels
	r.Register(OverlayDescriptor{
		ID:          OverlayForcePlot,
		Name:        "Force Plot",
		Description: "Lift and drag per slice",
		Key:         rl.KeyG,
		KeyLabel:    "G",
		Category:    "panels",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Performance",
		Description: "Per-pass timing",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "panels",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.order = append(r.order, desc.ID)
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	desc, ok := r.byID[id]
	if !ok {
		return false
	}

	newState := !r.enabled[id]
	r.enabled[id] = newState

	// If enabling, disable exclusive overlays
	if newState {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}

	return newState
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}

	r.enabled[id] = enabled

	// If enabling, disable exclusive overlays
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// Get returns an overlay descriptor by ID.
func (r *OverlayRegistry) Get(id OverlayID) (OverlayDescriptor, bool) {
	desc, ok := r.byID[id]
	return desc, ok
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}

// EnabledOverlays returns a list of currently enabled overlay IDs.
func (r *OverlayRegistry) EnabledOverlays() []OverlayID {
	var result []OverlayID
	for _, id := range r.order {
		if r.enabled[id] {
			result = append(result, id)
		}
	}
	return result
}
