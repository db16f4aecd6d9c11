package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pthm-cable/aerosweep/aero"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds a sweep's outputs and the diffusion fields at the end of
// the last slice, for offline inspection.
type Snapshot struct {
	Version int `msgpack:"version"`
	Sweep   int `msgpack:"sweep"`

	Params aero.Params `msgpack:"params"`
	Wind   aero.Wind   `msgpack:"wind"`

	Results []ResultState `msgpack:"results"`
	Total   ResultState   `msgpack:"total"`

	// Visualization images, row-major, VisSize per side
	VisSize int       `msgpack:"vis_size"`
	Front   []float32 `msgpack:"front"`
	Side    []float32 `msgpack:"side"`

	// Diffusion fields, FieldSize per side
	FieldSize  int       `msgpack:"field_size"`
	Turbulence []float32 `msgpack:"turbulence"` // Interleaved x, y
	Shadow     []float32 `msgpack:"shadow"`

	Bookmark *Bookmark `msgpack:"bookmark,omitempty"`
}

// ResultState is the serializable form of aero.Result.
type ResultState struct {
	Lift   [3]float64 `msgpack:"lift"`
	Drag   [3]float64 `msgpack:"drag"`
	Side   [3]float64 `msgpack:"side"`
	Torque [3]float64 `msgpack:"torque"`
}

func resultState(r aero.Result) ResultState {
	return ResultState{Lift: r.Lift, Drag: r.Drag, Side: r.Side, Torque: r.Torque}
}

// Result converts back to aero.Result.
func (r ResultState) Result() aero.Result {
	return aero.Result{Lift: r.Lift, Drag: r.Drag, Side: r.Side, Torque: r.Torque}
}

// CaptureSnapshot copies the simulator's current outputs.
func CaptureSnapshot(sim *aero.Simulator, sweep int) *Snapshot {
	s := &Snapshot{
		Version: SnapshotVersion,
		Sweep:   sweep,
		Params:  sim.Params(),
		Wind:    sim.Wind(),
		Total:   resultState(sim.Result()),
	}
	for _, r := range sim.Results() {
		s.Results = append(s.Results, resultState(r))
	}
	if v := sim.Vis(); v != nil {
		s.VisSize = v.Size
		s.Front = append([]float32(nil), v.Front...)
		s.Side = append([]float32(nil), v.Side...)
	}
	if f := sim.Fields(); f != nil {
		s.FieldSize = f.N
		s.Shadow = append([]float32(nil), f.ShadCurr...)
		s.Turbulence = make([]float32, 0, 2*len(f.TurbCurr))
		for _, v := range f.TurbCurr {
			s.Turbulence = append(s.Turbulence, v[0], v[1])
		}
	}
	return s
}

// SaveSnapshot writes a snapshot to dir and returns the file path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Sweep)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Sweep, sanitized)
	}
	path := filepath.Join(dir, name+".msgpack")

	data, err := msgpack.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := msgpack.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, expected %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
