// Package psychro provides dry and moist air properties used by the heat and
// mass transfer calculations. Temperatures are in °C unless a name says otherwise.
package psychro

import "math"

const (
	// StefanBoltzmann constant, W/m²/K⁴.
	StefanBoltzmann = 5.670374419e-8
	// Kelvin offset.
	Kelvin = 273.15
	// SeaLevelPressure, Pa.
	SeaLevelPressure = 101325.0
	// GasConstant, J/mol/K.
	GasConstant = 8.314462618
	// MolarMassAir and MolarMassWater, kg/mol.
	MolarMassAir   = 0.028965
	MolarMassWater = 0.018015
	// CpAir is the specific heat of dry air, J/kg/K.
	CpAir = 1005.0
	// MolarVolumeSTP, L/mol.
	MolarVolumeSTP = 22.414
)

// Pressure returns barometric pressure in Pa. A positive override wins;
// otherwise pressure follows the standard atmosphere at the given elevation.
func Pressure(elevation, override float64) float64 {
	if override > 0 {
		return override
	}
	return SeaLevelPressure * math.Pow(1-2.25577e-5*elevation, 5.25588)
}

// DryAir holds transport properties of dry air at one temperature and pressure.
type DryAir struct {
	Density      float64 // kg/m³
	Viscosity    float64 // Pa·s, dynamic
	Kinematic    float64 // m²/s
	Conductivity float64 // W/m/K
	VapourDiff   float64 // m²/s, diffusivity of water vapour in air
	Expansion    float64 // 1/K, volumetric expansion coefficient
}

// Air returns dry air properties at temperature t (°C) and pressure p (Pa).
func Air(t, p float64) DryAir {
	tk := t + Kelvin
	rho := p * MolarMassAir / (GasConstant * tk)
	// Sutherland
	mu := 1.8325e-5 * (296.16 + 120) / (tk + 120) * math.Pow(tk/296.16, 1.5)
	return DryAir{
		Density:      rho,
		Viscosity:    mu,
		Kinematic:    mu / rho,
		Conductivity: AirConductivity(t),
		VapourDiff:   2.26e-5 * math.Pow(tk/Kelvin, 1.81) * (SeaLevelPressure / p),
		Expansion:    1 / tk,
	}
}

// AirConductivity returns the thermal conductivity of dry air, W/m/K.
func AirConductivity(t float64) float64 {
	return 0.02425 + 7.038e-5*t
}

// SatVapourPressure returns saturation vapour pressure over water in Pa (Buck 1981).
func SatVapourPressure(t float64) float64 {
	return 611.21 * math.Exp((18.678-t/234.5)*(t/(257.14+t)))
}

// VapourDensity returns water vapour density in kg/m³ at temperature t and relative humidity rh (%).
func VapourDensity(t, rh float64) float64 {
	e := SatVapourPressure(t) * rh / 100
	return e * MolarMassWater / (GasConstant * (t + Kelvin))
}

// LatentHeat returns the latent heat of vaporization of water, J/kg.
func LatentHeat(t float64) float64 {
	return 2.501e6 - 2370*t
}

// WaterMoleFraction returns the mole fraction of water vapour in moist air.
func WaterMoleFraction(t, rh, p float64) float64 {
	e := SatVapourPressure(t) * rh / 100
	if e >= p {
		return 1
	}
	return e / p
}
