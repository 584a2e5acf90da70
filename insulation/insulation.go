// Package insulation computes effective thermal conductivity of fur and
// feather layers from fibre geometry.
package insulation

import (
	"math"

	"github.com/pthm-cable/endotherm/config"
	"github.com/pthm-cable/endotherm/psychro"
)

// maxFibreFraction keeps the conduction model finite for impossibly dense coats.
const maxFibreFraction = 0.99

// Side is the insulation of one body side.
type Side struct {
	Conductivity float64 // W/m/K
	Depth        float64 // m
	Absorptivity float64 // solar, 1 - reflectivity
}

// Insulation is the output of the insulation model.
type Insulation struct {
	Dorsal     Side
	Ventral    Side
	Compressed Side    // ventral fur under the contact area
	Combined   float64 // area-weighted dorsal/ventral conductivity
	Overridden bool
}

// Compute evaluates the fur model at the mean fur temperature meanTemp (°C).
func Compute(fur config.FurConfig, ventralFrac, meanTemp float64) Insulation {
	kk := fur.KeratinConductivity
	if kk <= 0 {
		kk = 0.209
	}
	ka := psychro.AirConductivity(meanTemp)
	tk := meanTemp + psychro.Kelvin

	compDepth := fur.CompressedDepth
	if compDepth <= 0 || compDepth > fur.Ventral.Depth {
		compDepth = fur.Ventral.Depth
	}

	ins := Insulation{
		Dorsal:     Side{Depth: fur.Dorsal.Depth, Absorptivity: 1 - fur.Dorsal.Reflectivity},
		Ventral:    Side{Depth: fur.Ventral.Depth, Absorptivity: 1 - fur.Ventral.Reflectivity},
		Compressed: Side{Depth: compDepth, Absorptivity: 1 - fur.Ventral.Reflectivity},
	}

	if fur.ConductivityOverride > 0 {
		k := fur.ConductivityOverride
		ins.Dorsal.Conductivity = k
		ins.Ventral.Conductivity = k
		ins.Compressed.Conductivity = k
		ins.Overridden = true
	} else {
		ins.Dorsal.Conductivity = Conductivity(fur.Dorsal, fur.Dorsal.Depth, ka, kk, tk)
		ins.Ventral.Conductivity = Conductivity(fur.Ventral, fur.Ventral.Depth, ka, kk, tk)

		compressed := fur.Ventral
		if compDepth > 0 && compDepth < fur.Ventral.Depth {
			compressed.Density *= fur.Ventral.Depth / compDepth
		}
		ins.Compressed.Conductivity = Conductivity(compressed, compDepth, ka, kk, tk)
	}

	ins.Combined = ins.Dorsal.Conductivity*(1-ventralFrac) + ins.Ventral.Conductivity*ventralFrac
	return ins
}

// Conductivity returns the effective conductivity of a fibre layer of the given
// depth: conduction through air and keratin plus radiation between fibres.
// ka and kk are air and keratin conductivity; tk is the layer temperature in K.
func Conductivity(s config.FurSide, depth, ka, kk, tk float64) float64 {
	rad := 4 * psychro.StefanBoltzmann * tk * tk * tk

	phi := s.Density * math.Pi * s.Diameter * s.Diameter / 4
	if phi <= 0 {
		// Bare air gap.
		return ka + rad*depth
	}
	phi = math.Min(phi, maxFibreFraction)

	parallel := phi*kk + (1-phi)*ka
	perpendicular := ka * ((1+phi)*kk + (1-phi)*ka) / ((1-phi)*kk + (1+phi)*ka)

	// Fibres standing upright conduct along their length.
	incline := 0.0
	if s.Length > 0 {
		incline = math.Min(depth/s.Length, 1)
	}
	cond := incline*parallel + (1-incline)*perpendicular

	extinction := s.Density * s.Diameter
	return cond + 4*rad/(3*extinction)
}
