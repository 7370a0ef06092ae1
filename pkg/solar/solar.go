// Package solar provides solar geometry and clear-sky irradiance used to
// drive PV performance evaluation.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Constants
const (
	solarConstant = 1361.0 // Solar constant in W/m², the average solar energy at the top of Earth's atmosphere
)

// Position describes where the sun is for an observer at a given instant
type Position struct {
	ZenithDeg         float64 // true (geometric) zenith angle
	ApparentZenithDeg float64 // zenith corrected for atmospheric refraction
	ElevationDeg      float64 // apparent elevation above the horizon
	AzimuthDeg        float64 // degrees east of north
	DeclinationDeg    float64
	EqOfTimeMin       float64
}

// degToRad converts an angle from degrees to radians for trigonometric calculations
func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

// radToDeg converts an angle from radians to degrees for human-readable output
func radToDeg(rad float64) float64 {
	return rad * (180.0 / math.Pi)
}

// fixAngle normalizes an angle to the range [0, 360) degrees
func fixAngle(a float64) float64 {
	return a - 360.0*math.Floor(a/360.0)
}

// SolarPosition computes the sun's position for an observer at latitude and
// longitude (degrees, east positive) using the NOAA low-precision algorithm.
func SolarPosition(t time.Time, latitude, longitude float64) Position {
	t = t.UTC()
	jd := julian.TimeToJD(t)
	T := (jd - 2451545.0) / 36525.0 // Julian centuries since J2000.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032)) // Mean longitude of the Sun
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))  // Mean anomaly of the Sun
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)       // Eccentricity of Earth's orbit
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	omega := 125.04 - 1934.136*T
	lambda := L0 + C - 0.00569 - 0.00478*math.Sin(degToRad(omega)) // Apparent longitude
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	eps := eps0 + 0.00256*math.Cos(degToRad(omega))
	declRad := math.Asin(math.Sin(degToRad(eps)) * math.Sin(degToRad(lambda)))

	y := math.Tan(degToRad(eps)/2) * math.Tan(degToRad(eps)/2)
	eqTimeMin := radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4

	// Hour angle from true solar time
	utcMin := float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60.0
	tst := math.Mod(utcMin+4*longitude+eqTimeMin, 1440)
	if tst < 0 {
		tst += 1440
	}
	ha := tst/4 - 180

	latRad := degToRad(latitude)
	cosZen := math.Sin(latRad)*math.Sin(declRad) + math.Cos(latRad)*math.Cos(declRad)*math.Cos(degToRad(ha))
	cosZen = math.Max(-1, math.Min(1, cosZen))
	zenRad := math.Acos(cosZen)
	zenDeg := radToDeg(zenRad)

	var azDeg float64
	if den := math.Cos(latRad) * math.Sin(zenRad); math.Abs(den) > 1e-9 {
		azCos := (math.Sin(latRad)*cosZen - math.Sin(declRad)) / den
		azCos = math.Max(-1, math.Min(1, azCos))
		azDeg = radToDeg(math.Acos(azCos))
		if ha > 0 {
			azDeg = fixAngle(azDeg + 180)
		} else {
			azDeg = fixAngle(540 - azDeg)
		}
	} else if latitude > 0 {
		azDeg = 180
	}

	elevation := 90 - zenDeg
	elevation += refraction(elevation)

	return Position{
		ZenithDeg:         zenDeg,
		ApparentZenithDeg: 90 - elevation,
		ElevationDeg:      elevation,
		AzimuthDeg:        azDeg,
		DeclinationDeg:    radToDeg(declRad),
		EqOfTimeMin:       eqTimeMin,
	}
}

// refraction returns the atmospheric refraction correction in degrees for a
// geometric elevation in degrees
func refraction(elevation float64) float64 {
	if elevation > 85 {
		return 0
	}
	te := math.Tan(degToRad(elevation))
	var arcsec float64
	switch {
	case elevation > 5:
		arcsec = 58.1/te - 0.07/(te*te*te) + 0.000086/math.Pow(te, 5)
	case elevation > -0.575:
		arcsec = 1735 + elevation*(-518.2+elevation*(103.4+elevation*(-12.79+elevation*0.711)))
	default:
		arcsec = -20.772 / te
	}
	return arcsec / 3600
}

// ExtraterrestrialIrradiance returns the normal-incidence irradiance at the top
// of the atmosphere in W/m², adjusted for Earth-Sun distance
func ExtraterrestrialIrradiance(t time.Time) float64 {
	n := float64(t.YearDay())
	return solarConstant * (1 + 0.033*math.Cos(degToRad(360.0*n/365.0)))
}
