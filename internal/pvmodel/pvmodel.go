// Package pvmodel is a reference PV performance evaluator: it converts a
// weather series and a system parameter map into an AC power series.
//
// The model is deliberately small. A horizontal array receives beam and
// diffuse irradiance, beam is reduced by the ASHRAE incidence-angle modifier,
// an optional SAPM spectral modifier is driven by absolute airmass, cell
// temperature follows the SAPM open-rack model and DC/AC conversion follows
// PVWatts.
package pvmodel

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/chrissnell/pvlifetime/internal/degradation"
	"github.com/chrissnell/pvlifetime/internal/timeseries"
	"github.com/chrissnell/pvlifetime/internal/weather"
	"github.com/chrissnell/pvlifetime/pkg/airmass"
	"github.com/chrissnell/pvlifetime/pkg/solar"
)

// Parameter names understood by the evaluator
const (
	ParamPDC0        = "pdc0"          // DC nameplate at 1000 W/m² and 25 °C, W
	ParamGammaPDC    = "gamma_pdc"     // DC temperature coefficient, 1/°C
	ParamIAMB        = "b"             // ASHRAE incidence-angle coefficient
	ParamTempA       = "temp_a"        // SAPM cell temperature coefficient a
	ParamTempB       = "temp_b"        // SAPM cell temperature coefficient b
	ParamTempDeltaT  = "temp_deltaT"   // SAPM module-to-cell temperature difference, °C
	ParamInverterPDC = "inverter_pdc0" // inverter DC input limit, W
	ParamEtaInvNom   = "eta_inv_nom"   // nominal inverter efficiency
	ParamEtaInvRef   = "eta_inv_ref"   // reference inverter efficiency
)

// Spectral polynomial coefficients a0..a4; the modifier is applied only when
// at least one of them is set
var spectralParams = []string{"a0", "a1", "a2", "a3", "a4"}

// Defaults for optional parameters (open_rack_glass_polymer temperature model)
var Defaults = degradation.Parameters{
	ParamGammaPDC:   -0.004,
	ParamIAMB:       0.05,
	ParamTempA:      -3.56,
	ParamTempB:      -0.075,
	ParamTempDeltaT: 3,
	ParamEtaInvNom:  0.96,
	ParamEtaInvRef:  0.9637,
}

// ErrMissingPDC0 is returned when the parameter map has no positive pdc0
var ErrMissingPDC0 = errors.New("system parameters must include a positive pdc0")

// Evaluator is a pure function of its weather and parameter inputs
type Evaluator struct {
	Site  weather.Site
	Model airmass.Model
}

// New creates an evaluator for a site using the given airmass model
func New(site weather.Site, model airmass.Model) *Evaluator {
	return &Evaluator{Site: site, Model: model}
}

// Run evaluates AC power (W) for every weather timestamp
func (e *Evaluator) Run(ctx context.Context, w *weather.Series, params degradation.Parameters) (timeseries.Series, error) {
	if w.Len() == 0 {
		return nil, weather.ErrEmpty
	}
	p := withDefaults(params)
	if p[ParamPDC0] <= 0 || math.IsNaN(p[ParamPDC0]) {
		return nil, ErrMissingPDC0
	}

	pressure := airmass.PressureFromAltitude(e.Site.Altitude)
	spectral, hasSpectral := spectralCoefficients(params)

	out := make(timeseries.Series, w.Len())
	for i, rd := range w.Readings {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("evaluation cancelled: %w", err)
			}
		}

		pos := solar.SolarPosition(rd.Time, e.Site.Latitude, e.Site.Longitude)

		// horizontal array: angle of incidence equals the zenith angle
		beam := math.Max(rd.DNI*math.Cos(degToRad(pos.ZenithDeg)), 0)
		diffuse := math.Max(rd.DHI, 0)
		effective := beam*ashraeIAM(pos.ZenithDeg, p[ParamIAMB]) + diffuse

		if hasSpectral && effective > 0 {
			am := airmass.Relative(pos.ApparentZenithDeg, e.Model)
			effective *= spectralModifier(airmass.Absolute(am, pressure), spectral)
		}

		poa := beam + diffuse
		tCell := sapmCellTemperature(poa, rd.TempAir, rd.WindSpeed, p[ParamTempA], p[ParamTempB], p[ParamTempDeltaT])
		pdc := pvwattsDC(effective, tCell, p[ParamPDC0], p[ParamGammaPDC])
		pac := pvwattsInverter(pdc, p[ParamInverterPDC], p[ParamEtaInvNom], p[ParamEtaInvRef])

		out[i] = timeseries.Point{Time: rd.Time, Value: pac}
	}

	return out, nil
}

// PinInverter returns a copy of params with inverter_pdc0 set to the current
// pdc0 when it is absent. Call it once on the baseline system so the inverter
// rating stays at nameplate while module pdc0 degrades year over year.
func PinInverter(params degradation.Parameters) degradation.Parameters {
	p := params.Clone()
	if p == nil {
		p = degradation.Parameters{}
	}
	if _, ok := p[ParamInverterPDC]; !ok {
		if pdc0, ok := p[ParamPDC0]; ok {
			p[ParamInverterPDC] = pdc0
		}
	}
	return p
}

// withDefaults overlays params on the defaults without touching either map
func withDefaults(params degradation.Parameters) degradation.Parameters {
	p := make(degradation.Parameters, len(Defaults)+len(params))
	for k, v := range Defaults {
		p[k] = v
	}
	for k, v := range params {
		p[k] = v
	}
	if _, ok := p[ParamInverterPDC]; !ok {
		p[ParamInverterPDC] = p[ParamPDC0]
	}
	return p
}

func spectralCoefficients(params degradation.Parameters) ([5]float64, bool) {
	var c [5]float64
	found := false
	for i, name := range spectralParams {
		if v, ok := params[name]; ok {
			c[i] = v
			found = true
		}
	}
	return c, found
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

// ashraeIAM is the ASHRAE incidence-angle modifier
func ashraeIAM(aoi, b float64) float64 {
	if aoi >= 90 {
		return 0
	}
	iam := 1 - b*(1/math.Cos(degToRad(aoi))-1)
	return math.Max(iam, 0)
}

// spectralModifier is the SAPM fourth-order airmass polynomial
func spectralModifier(amAbs float64, c [5]float64) float64 {
	if math.IsNaN(amAbs) || math.IsInf(amAbs, 0) {
		return 1
	}
	f := c[0] + amAbs*(c[1]+amAbs*(c[2]+amAbs*(c[3]+amAbs*c[4])))
	return math.Max(f, 0)
}

// sapmCellTemperature returns cell temperature in °C
func sapmCellTemperature(poa, tempAir, windSpeed, a, b, deltaT float64) float64 {
	tModule := poa*math.Exp(a+b*windSpeed) + tempAir
	return tModule + poa/1000*deltaT
}

// pvwattsDC returns DC power in W
func pvwattsDC(effective, tCell, pdc0, gamma float64) float64 {
	return effective / 1000 * pdc0 * (1 + gamma*(tCell-25))
}

// pvwattsInverter returns AC power in W, clipped at the inverter AC rating
func pvwattsInverter(pdc, pdc0, etaNom, etaRef float64) float64 {
	if pdc <= 0 || pdc0 <= 0 {
		return 0
	}
	pac0 := etaNom * pdc0
	zeta := pdc / pdc0
	eta := etaNom / etaRef * (-0.0162*zeta - 0.0059/zeta + 0.9858)
	pac := eta * pdc
	return math.Max(math.Min(pac, pac0), 0)
}
