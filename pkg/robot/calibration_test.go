package robot

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gwillem/armsim/pkg/arm"
	"github.com/gwillem/armsim/pkg/program"
)

func TestAxisCalibration_Fraction(t *testing.T) {
	cal := AxisCalibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		raw      int
		expected float64
	}{
		{1000, 0},    // min -> 0
		{3000, 1},    // max -> 1
		{2000, 0.5},  // mid -> 0.5
		{1500, 0.25}, // quarter
		{2500, 0.75}, // three-quarter
	}

	for _, tt := range tests {
		got := cal.Fraction(tt.raw)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("Fraction(%d) = %f, want %f", tt.raw, got, tt.expected)
		}
	}
}

func TestAxisCalibration_Raw(t *testing.T) {
	cal := AxisCalibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		f        float64
		expected int
	}{
		{0, 1000},    // 0 -> min
		{1, 3000},    // 1 -> max
		{0.5, 2000},  // mid
		{-0.5, 1000}, // clamped low
		{1.5, 3000},  // clamped high
	}

	for _, tt := range tests {
		got := cal.Raw(tt.f)
		if got != tt.expected {
			t.Errorf("Raw(%f) = %d, want %d", tt.f, got, tt.expected)
		}
	}
}

func TestAxisCalibration_Inverted(t *testing.T) {
	cal := AxisCalibration{RangeMin: 1000, RangeMax: 3000, Inverted: true}

	if got := cal.Raw(0); got != 3000 {
		t.Errorf("Raw(0) = %d, want 3000", got)
	}
	if got := cal.Fraction(3000); math.Abs(got) > 0.001 {
		t.Errorf("Fraction(3000) = %f, want 0", got)
	}
}

func TestAxisCalibration_RoundTrip(t *testing.T) {
	cal := AxisCalibration{
		RangeMin: 823,
		RangeMax: 3540,
	}

	// Test round-trip: raw -> fraction -> raw
	for raw := cal.RangeMin; raw <= cal.RangeMax; raw += 100 {
		f := cal.Fraction(raw)
		back := cal.Raw(f)
		if math.Abs(float64(back-raw)) > 1 {
			t.Errorf("Round-trip failed: %d -> %f -> %d", raw, f, back)
		}
	}
}

func TestCalibration_IDs(t *testing.T) {
	cal := Calibration{
		Gripper: AxisCalibration{ID: 3},
		Rail:    AxisCalibration{ID: 1},
		Lift:    AxisCalibration{ID: 2},
	}

	ids := cal.IDs()
	expected := []int{1, 2, 3}

	if len(ids) != len(expected) {
		t.Fatalf("IDs returned %d IDs, want %d", len(ids), len(expected))
	}

	for i, id := range ids {
		if id != expected[i] {
			t.Errorf("IDs()[%d] = %d, want %d", i, id, expected[i])
		}
	}
}

func TestNewAxisCalibration(t *testing.T) {
	up := NewAxisCalibration(1, 1000, 3000)
	if up.Inverted || up.RangeMin != 1000 || up.RangeMax != 3000 {
		t.Errorf("NewAxisCalibration(1000, 3000) = %+v", up)
	}

	down := NewAxisCalibration(2, 3000, 1000)
	if !down.Inverted || down.RangeMin != 1000 || down.RangeMax != 3000 {
		t.Errorf("NewAxisCalibration(3000, 1000) = %+v", down)
	}

	// The recorded ends map back to the start and the end of the axis.
	if got := down.Fraction(3000); math.Abs(got) > 0.001 {
		t.Errorf("Fraction(start) = %f, want 0", got)
	}
	if got := down.Raw(1); got != 1000 {
		t.Errorf("Raw(1) = %d, want 1000", got)
	}
}

func TestCalibration_State(t *testing.T) {
	g := arm.DefaultGeometry()
	cal := Calibration{
		Rail:    NewAxisCalibration(1, 1000, 1800),
		Lift:    NewAxisCalibration(2, 2500, 2000),
		Gripper: NewAxisCalibration(3, 100, 200),
	}

	tests := []struct {
		raw  map[int]int
		want arm.State
	}{
		{map[int]int{1: 1000, 2: 2500, 3: 100}, arm.State{}},
		{map[int]int{1: 1400, 2: 2000, 3: 200}, arm.State{X: 400, CaptureDelta: 250, CaptureOn: true}},
		{map[int]int{1: 1390, 2: 2290, 3: 140}, arm.State{X: 400, CaptureDelta: 100}}, // snapped
		{map[int]int{1: 2500, 2: 2600, 3: 160}, arm.State{X: 800, CaptureOn: true}},   // clamped
		{map[int]int{3: 200}, arm.State{CaptureOn: true}},                             // missing servos
	}

	for _, tt := range tests {
		got := cal.State(tt.raw, g)
		if got != tt.want {
			t.Errorf("State(%v) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestRig_Targets(t *testing.T) {
	r := &Rig{
		calibration: Calibration{
			Rail:    AxisCalibration{ID: 1, RangeMin: 1000, RangeMax: 1800},
			Lift:    AxisCalibration{ID: 2, RangeMin: 2000, RangeMax: 2500},
			Gripper: AxisCalibration{ID: 3, RangeMin: 100, RangeMax: 200},
		},
		geom: arm.DefaultGeometry(),
	}

	got := r.Targets(arm.State{X: 400, CaptureDelta: 250, CaptureOn: true})
	want := map[int]int{1: 1400, 2: 2500, 3: 200}
	for id, pos := range want {
		if got[id] != pos {
			t.Errorf("Targets()[%d] = %d, want %d", id, got[id], pos)
		}
	}

	got = r.Targets(arm.State{})
	if got[1] != 1000 || got[2] != 2000 || got[3] != 100 {
		t.Errorf("Targets(zero) = %v", got)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)

	cfg := &Config{
		DelayMS: 20,
		Rig: RigConfig{
			Port:        "/dev/ttyUSB0",
			Calibration: Calibration{Rail: AxisCalibration{ID: 1, RangeMin: 1, RangeMax: 2}},
		},
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if loaded.Delay() != 20*time.Millisecond {
		t.Errorf("Delay() = %v, want 20ms", loaded.Delay())
	}
	if !loaded.Rig.IsCalibrated() || loaded.Rig.Calibration[Rail].RangeMax != 2 {
		t.Errorf("calibration not restored: %+v", loaded.Rig)
	}
}

func TestLoadConfigOrDefault(t *testing.T) {
	cfg, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfigOrDefault: %v", err)
	}
	if cfg.Delay() != program.DefaultDelay {
		t.Errorf("Delay() = %v, want %v", cfg.Delay(), program.DefaultDelay)
	}
	if cfg.Rig.IsCalibrated() {
		t.Error("empty config reports calibrated rig")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigOrDefault(path); err == nil {
		t.Error("expected error for malformed config")
	}
}
