package airmass

import (
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var allModels = []Model{
	KastenYoung1989, Simple, Kasten1966, YoungIrvine1967, Gueymard1993, Young1994, Pickering2002,
}

func TestRelativeOverhead(t *testing.T) {
	for _, m := range allModels {
		t.Run(m.String(), func(t *testing.T) {
			am := Relative(0, m)
			if math.Abs(am-1.0) > 1e-3 {
				t.Errorf("Relative(0, %s) = %v, want ~1.0", m, am)
			}
		})
	}
}

func TestRelativeKnownValues(t *testing.T) {
	tests := []struct {
		name    string
		zenith  float64
		model   Model
		want    float64
		epsilon float64
	}{
		{name: "simple at 60", zenith: 60, model: Simple, want: 2.0, epsilon: 1e-9},
		{name: "youngirvine1967 at 60", zenith: 60, model: YoungIrvine1967, want: 1.9928, epsilon: 1e-4},
		{name: "kastenyoung1989 at 60", zenith: 60, model: KastenYoung1989, want: 1.9943, epsilon: 1e-3},
		{name: "kasten1966 at 60", zenith: 60, model: Kasten1966, want: 1.9928, epsilon: 1e-3},
		{name: "young1994 at 60", zenith: 60, model: Young1994, want: 1.9917, epsilon: 1e-3},
		{name: "kastenyoung1989 at 85", zenith: 85, model: KastenYoung1989, want: 10.32, epsilon: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Relative(tt.zenith, tt.model)
			if math.Abs(got-tt.want) > tt.epsilon {
				t.Errorf("Relative(%v, %s) = %v, want %v ± %v", tt.zenith, tt.model, got, tt.want, tt.epsilon)
			}
		})
	}
}

func TestModelsAgreeAtModerateZenith(t *testing.T) {
	for _, m := range allModels {
		am := Relative(60, m)
		if math.Abs(am-2.0)/2.0 > 0.01 {
			t.Errorf("%s: Relative(60) = %v, more than 1%% from 2.0", m, am)
		}
	}
}

func TestDefaultModelMonotonic(t *testing.T) {
	prev := Relative(0, DefaultModel)
	for z := 0.1; z < 90; z += 0.1 {
		am := Relative(z, DefaultModel)
		if am < prev {
			t.Fatalf("airmass decreased at z=%.1f: %v < %v", z, am, prev)
		}
		prev = am
	}
}

func TestBelowHorizonPropagatesNonFinite(t *testing.T) {
	for _, m := range []Model{KastenYoung1989, Kasten1966, Gueymard1993, Pickering2002} {
		am := Relative(120, m)
		if !math.IsNaN(am) && !math.IsInf(am, 0) {
			t.Errorf("%s: Relative(120) = %v, want non-finite", m, am)
		}
	}

	// no clamping: secant keeps going past the horizon
	if got := Relative(120, Simple); math.Abs(got-(-2.0)) > 1e-9 {
		t.Errorf("Relative(120, simple) = %v, want -2", got)
	}
}

func TestRelativeSlice(t *testing.T) {
	zeniths := []float64{0, 30, 60, 89, 120}
	got := RelativeSlice(zeniths, Simple)
	if len(got) != len(zeniths) {
		t.Fatalf("len = %d, want %d", len(got), len(zeniths))
	}
	for i, z := range zeniths {
		want := Relative(z, Simple)
		if got[i] != want {
			t.Errorf("index %d: got %v, want %v", i, got[i], want)
		}
	}

	if out := RelativeSlice(nil, DefaultModel); len(out) != 0 {
		t.Errorf("expected empty result for empty input, got %v", out)
	}
}

func TestParseModel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     Model
		warnings int
	}{
		{name: "canonical", input: "young1994", want: Young1994},
		{name: "mixed case", input: "KastenYoung1989", want: KastenYoung1989},
		{name: "upper case", input: "PICKERING2002", want: Pickering2002},
		{name: "padded", input: " simple ", want: Simple},
		{name: "empty selects default", input: "", want: DefaultModel},
		{name: "unknown falls back", input: "not-a-real-model", want: DefaultModel, warnings: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			got := ParseModel(tt.input, zap.New(core).Sugar())
			if got != tt.want {
				t.Errorf("ParseModel(%q) = %s, want %s", tt.input, got, tt.want)
			}
			if logs.Len() != tt.warnings {
				t.Errorf("got %d warnings, want %d", logs.Len(), tt.warnings)
			}
		})
	}
}

func TestUnknownModelMatchesDefault(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := ParseModel("not-a-real-model", zap.New(core).Sugar())

	for _, z := range []float64{0, 15, 45, 75, 89.5} {
		if Relative(z, m) != Relative(z, KastenYoung1989) {
			t.Errorf("z=%v: fallback result differs from kastenyoung1989", z)
		}
	}

	entries := logs.FilterMessage("unrecognized model, falling back to default").All()
	if len(entries) != 1 {
		t.Fatalf("expected one fallback diagnostic, got %d", len(entries))
	}
	if entries[0].ContextMap()["model"] != "not-a-real-model" {
		t.Errorf("diagnostic does not name the offending model: %v", entries[0].ContextMap())
	}
}

func TestParseModelNilLogger(t *testing.T) {
	if m := ParseModel("bogus", nil); m != DefaultModel {
		t.Errorf("ParseModel with nil logger = %s, want default", m)
	}
}

func TestAbsolute(t *testing.T) {
	if got := Absolute(2.0, standardPressure); got != 2.0 {
		t.Errorf("Absolute at sea level = %v, want 2.0", got)
	}

	p := PressureFromAltitude(0)
	if math.Abs(p-standardPressure) > 50 {
		t.Errorf("PressureFromAltitude(0) = %v, want ~%v", p, standardPressure)
	}
	if hi := PressureFromAltitude(1500); hi >= p {
		t.Errorf("pressure should fall with altitude: %v >= %v", hi, p)
	}
}

func TestModels(t *testing.T) {
	names := Models()
	if len(names) != 7 {
		t.Fatalf("expected 7 models, got %d: %v", len(names), names)
	}
	for _, name := range names {
		if _, ok := Lookup(name); !ok {
			t.Errorf("Lookup(%q) failed for a listed model", name)
		}
	}
}
