// Package airmass computes the relative optical airmass traversed by sunlight
// for a given solar zenith angle using one of several published empirical models.
//
// Zenith angles are given in degrees. No validation or clamping is performed:
// zenith angles at or beyond 90 degrees produce NaN or Inf for most models and
// callers are expected to mask those values themselves.
package airmass

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Model identifies an empirical relative airmass formula
type Model int

const (
	// KastenYoung1989 is the default model. Requires apparent (refracted) zenith.
	KastenYoung1989 Model = iota
	// Simple is secant of the apparent zenith angle
	Simple
	// Kasten1966 requires apparent zenith
	Kasten1966
	// YoungIrvine1967 requires true zenith
	YoungIrvine1967
	// Gueymard1993 requires apparent zenith
	Gueymard1993
	// Young1994 requires true zenith
	Young1994
	// Pickering2002 requires apparent zenith
	Pickering2002
)

// DefaultModel is used when no model, or an unrecognized model, is requested
const DefaultModel = KastenYoung1989

// standardPressure is sea-level pressure in Pascals
const standardPressure = 101325.0

var modelNames = map[Model]string{
	KastenYoung1989: "kastenyoung1989",
	Simple:          "simple",
	Kasten1966:      "kasten1966",
	YoungIrvine1967: "youngirvine1967",
	Gueymard1993:    "gueymard1993",
	Young1994:       "young1994",
	Pickering2002:   "pickering2002",
}

var modelsByName = func() map[string]Model {
	m := make(map[string]Model, len(modelNames))
	for model, name := range modelNames {
		m[name] = model
	}
	return m
}()

// formulas maps each model to its formula, z in degrees
var formulas = map[Model]func(z float64) float64{
	KastenYoung1989: kastenYoung1989,
	Simple:          simple,
	Kasten1966:      kasten1966,
	YoungIrvine1967: youngIrvine1967,
	Gueymard1993:    gueymard1993,
	Young1994:       young1994,
	Pickering2002:   pickering2002,
}

// String returns the canonical lowercase name of the model
func (m Model) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return "unknown"
}

// Models returns the canonical names of every supported model, sorted
func Models() []string {
	names := make([]string, 0, len(modelNames))
	for _, name := range modelNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a model name case-insensitively. The boolean reports whether
// the name matched one of the supported models.
func Lookup(name string) (Model, bool) {
	m, ok := modelsByName[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// ParseModel resolves a model name case-insensitively. An empty name selects
// the default model silently; an unrecognized name selects the default model
// and emits a warning through logger. A nil logger discards the warning.
func ParseModel(name string, logger *zap.SugaredLogger) Model {
	if strings.TrimSpace(name) == "" {
		return DefaultModel
	}
	if m, ok := Lookup(name); ok {
		return m
	}
	if logger != nil {
		logger.Warnw("unrecognized model, falling back to default",
			"model", name,
			"default", DefaultModel.String(),
			"valid_models", Models())
	}
	return DefaultModel
}

// Relative returns the relative (not pressure-corrected) airmass at sea level
// for zenith angle z in degrees
func Relative(z float64, m Model) float64 {
	f, ok := formulas[m]
	if !ok {
		f = formulas[DefaultModel]
	}
	return f(z)
}

// RelativeSlice applies Relative element-wise. The result has the same length
// and order as zeniths.
func RelativeSlice(zeniths []float64, m Model) []float64 {
	f, ok := formulas[m]
	if !ok {
		f = formulas[DefaultModel]
	}
	out := make([]float64, len(zeniths))
	for i, z := range zeniths {
		out[i] = f(z)
	}
	return out
}

// Absolute converts a relative airmass to a pressure-corrected absolute
// airmass for the given site pressure in Pascals
func Absolute(relative, pressure float64) float64 {
	return relative * pressure / standardPressure
}

// PressureFromAltitude estimates the mean site pressure in Pascals from
// altitude above sea level in meters using the standard atmosphere
func PressureFromAltitude(altitude float64) float64 {
	return 100 * math.Pow((44331.514-altitude)/11880.516, 1/0.1902632)
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

func simple(z float64) float64 {
	return 1.0 / math.Cos(degToRad(z))
}

func kasten1966(z float64) float64 {
	return 1.0 / (math.Cos(degToRad(z)) + 0.15*math.Pow(93.885-z, -1.253))
}

func youngIrvine1967(z float64) float64 {
	sec := 1.0 / math.Cos(degToRad(z))
	return sec * (1 - 0.0012*(sec*sec-1))
}

func kastenYoung1989(z float64) float64 {
	return 1.0 / (math.Cos(degToRad(z)) + 0.50572*math.Pow(6.07995+(90-z), -1.6364))
}

func gueymard1993(z float64) float64 {
	return 1.0 / (math.Cos(degToRad(z)) + 0.00176759*z*math.Pow(94.37515-z, -1.21563))
}

func young1994(z float64) float64 {
	c := math.Cos(degToRad(z))
	c2 := c * c
	return (1.002432*c2 + 0.148386*c + 0.0096467) /
		(c2*c + 0.149864*c2 + 0.0102963*c + 0.000303978)
}

func pickering2002(z float64) float64 {
	h := 90 - z
	return 1.0 / math.Sin(degToRad(h+244.0/(165+47.0*math.Pow(h, 1.1))))
}
