package solar

import (
	"math"
	"time"

	"github.com/chrissnell/pvlifetime/pkg/airmass"
)

// DefaultLinkeTurbidity is a typical clear-sky Linke turbidity (range: 2-6)
const DefaultLinkeTurbidity = 3.0

// Irradiance holds the three irradiance components in W/m²
type Irradiance struct {
	GHI float64 // global horizontal
	DNI float64 // direct normal
	DHI float64 // diffuse horizontal
}

// ClearSkyIneichenPerez computes clear-sky irradiance for a site using the
// Ineichen-Perez model. Airmass is computed with model from the apparent
// zenith angle and pressure-corrected for altitude (meters).
func ClearSkyIneichenPerez(t time.Time, latitude, longitude, altitude, linkeTurbidity float64, model airmass.Model) Irradiance {
	pos := SolarPosition(t, latitude, longitude)
	return ClearSkyAt(pos, ExtraterrestrialIrradiance(t), altitude, linkeTurbidity, model)
}

// ClearSkyAt evaluates the Ineichen-Perez model for a precomputed solar
// position and extraterrestrial irradiance
func ClearSkyAt(pos Position, dniExtra, altitude, linkeTurbidity float64, model airmass.Model) Irradiance {
	if pos.ApparentZenithDeg >= 90 {
		return Irradiance{} // Sun below horizon, no irradiance
	}

	am := airmass.Relative(pos.ApparentZenithDeg, model)
	amAbs := airmass.Absolute(am, airmass.PressureFromAltitude(altitude))
	cosZ := math.Max(math.Cos(degToRad(pos.ZenithDeg)), 0)
	tl := linkeTurbidity

	fh1 := math.Exp(-altitude / 8000)
	fh2 := math.Exp(-altitude / 1250)
	cg1 := 5.09e-5*altitude + 0.868
	cg2 := 3.92e-5*altitude + 0.0387

	ghi := cg1 * dniExtra * cosZ * math.Exp(-cg2*amAbs*(fh1+fh2*(tl-1))) * math.Exp(0.01*math.Pow(amAbs, 1.8))
	ghi = math.Max(ghi, 0)

	// Beam component, limited so that diffuse never goes negative
	b := 0.664 + 0.163/fh1
	bnci := math.Max(b*dniExtra*math.Exp(-0.09*amAbs*(tl-1)), 0)
	dni := bnci
	if cosZ > 0 {
		bnci2 := (1 - (0.1-0.2*math.Exp(-tl))/(0.1+0.882/fh1)) / cosZ
		bnci2 = ghi * math.Min(math.Max(bnci2, 0), 1e20)
		dni = math.Min(bnci, bnci2)
	}
	dhi := math.Max(ghi-dni*cosZ, 0)

	return Irradiance{GHI: ghi, DNI: dni, DHI: dhi}
}
