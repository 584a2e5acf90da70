package exchange

import (
	"math"

	"github.com/pthm-cable/endotherm/config"
	"github.com/pthm-cable/endotherm/psychro"
)

// cpMolarAir is the molar heat capacity of air, J/mol/K.
const cpMolarAir = 29.1

const maxWaterFraction = 0.99

// Respiration is the gas and water exchange of the lungs.
type Respiration struct {
	Metabolism  float64 // W driving ventilation
	OxygenLps   float64 // L/s of O2 consumed at STP
	AirflowLps  float64 // L/s of dry air inspired at STP
	ExhaledTemp float64 // °C

	O2In   float64 // mol/s
	O2Out  float64
	N2In   float64
	N2Out  float64
	CO2Out float64
	AirIn  float64 // dry air, mol/s
	AirOut float64

	WaterIn  float64 // mol/s
	WaterOut float64
	Water    float64 // kg/s lost
	Heat     float64 // W lost, latent plus sensible
}

// OxyJoule returns joules released per litre of O2 at the given respiratory quotient.
func OxyJoule(rq float64) float64 {
	return (16.18 + 5.02*rq) * 1000
}

// Respire computes ventilation for metabolic heat production qmet (W) with the
// breathing multiplier panting and lung temperature tLung.
func Respire(env config.EnvironmentConfig, phys config.PhysiologyConfig, pressure, qmet, panting, tLung float64) Respiration {
	r := Respiration{Metabolism: math.Max(qmet, 0)}

	rq := phys.RespiratoryQuotient
	r.OxygenLps = r.Metabolism / OxyJoule(rq)
	consumed := r.OxygenLps / psychro.MolarVolumeSTP

	extraction := phys.O2ExtractionPct / 100
	if extraction <= 0 {
		extraction = 0.2
	}
	o2Frac := env.O2Pct / 100
	if o2Frac <= 0 {
		o2Frac = 0.2095
	}

	r.O2In = consumed / extraction * math.Max(panting, 1)
	r.AirIn = r.O2In / o2Frac
	r.N2In = r.AirIn * env.N2Pct / 100
	r.O2Out = r.O2In - consumed
	r.N2Out = r.N2In
	r.CO2Out = r.AirIn*env.CO2Pct/100 + consumed*rq
	r.AirOut = r.AirIn - consumed + consumed*rq
	r.AirflowLps = r.AirIn * psychro.MolarVolumeSTP

	r.ExhaledTemp = math.Min(env.AirTemp+phys.BreathOffset, tLung)

	xin := math.Min(psychro.WaterMoleFraction(env.AirTemp, env.RelativeHumidity, pressure), maxWaterFraction)
	xout := math.Min(psychro.WaterMoleFraction(r.ExhaledTemp, phys.ExitRH, pressure), maxWaterFraction)
	r.WaterIn = r.AirIn * xin / (1 - xin)
	r.WaterOut = r.AirOut * xout / (1 - xout)

	evaporated := r.WaterOut - r.WaterIn
	r.Water = evaporated * psychro.MolarMassWater
	latent := r.Water * psychro.LatentHeat(r.ExhaledTemp)
	sensible := r.AirOut * cpMolarAir * (r.ExhaledTemp - env.AirTemp)
	r.Heat = latent + sensible
	return r
}
