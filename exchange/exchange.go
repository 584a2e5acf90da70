// Package exchange computes the heat and mass fluxes between an endotherm and
// its microclimate for one candidate physiological state.
//
// The body is a four-node network: core, skin, dorsal fur surface and ventral
// fur surface. Heat produced in the core leaves through the lungs or is
// conducted through flesh and fat to the skin, where it is evaporated,
// conducted into the substrate, or passed through the fur to the two outer
// surfaces. The outer surfaces exchange solar, infrared and convective heat
// with the environment.
package exchange

import (
	"math"

	"github.com/pthm-cable/endotherm/config"
	"github.com/pthm-cable/endotherm/geometry"
	"github.com/pthm-cable/endotherm/insulation"
	"github.com/pthm-cable/endotherm/psychro"
)

// FatConductivity is the conductivity of subcutaneous fat, W/m/K.
const FatConductivity = 0.23

// minLayer keeps fur conductance finite for furless surfaces.
const minLayer = 1e-5

// Unknowns of the node balance, in order.
const (
	IdxSkin = iota
	IdxFurDorsal
	IdxFurVentral
	IdxGeneration
	NumUnknowns
)

// State is the effector state an exchange model is built for.
type State struct {
	CoreTemp          float64 // °C
	FleshConductivity float64 // W/m/K
	SkinWetness       float64 // % of skin area
	Panting           float64 // breathing multiplier
	MinMetabolism     float64 // W, Q10-adjusted basal rate
}

// Exchange is the full flux breakdown at one solution point. Loss terms are positive when heat leaves the body.
type Exchange struct {
	SkinTemp       float64
	FurDorsalTemp  float64
	FurVentralTemp float64
	LungTemp       float64

	// Generation is the heat the core must produce to hold core temperature.
	Generation float64
	// Metabolism is the heat actually produced: Generation, but never below the minimum rate.
	Metabolism float64

	Solar           float64
	SolarDorsal     float64
	SolarVentral    float64
	Infrared        float64
	Convection      float64
	Conduction      float64
	EvapCutaneous   float64
	EvapRespiratory float64
	CoreToSkin      float64

	CutaneousWater float64 // kg/s
	WetArea        float64 // m², eyes plus wetted furred and bare skin
	Respiration    Respiration

	// Per-surface terms.
	FurDorsalFlow  float64 // skin to dorsal surface
	FurVentralFlow float64
	ConvDorsal     float64
	ConvVentral    float64
	IRDorsal       float64
	IRVentral      float64
}

// Evaporation is total evaporative heat loss.
func (e Exchange) Evaporation() float64 {
	return e.EvapCutaneous + e.EvapRespiratory
}

// Imbalance is the signed residual energy balance: positive means the body gains heat.
func (e Exchange) Imbalance() float64 {
	return e.Solar + e.Metabolism - e.Infrared - e.Convection - e.Conduction - e.EvapCutaneous - e.EvapRespiratory
}

// Model holds everything that stays fixed while the interface temperatures are solved.
type Model struct {
	env      config.EnvironmentConfig
	phys     config.PhysiologyConfig
	shape    int
	geo      geometry.Geometry
	ins      insulation.Insulation
	state    State
	pressure float64
	emis     float64

	gCore    float64 // core to skin, W/K
	gDorsal  float64 // skin to dorsal surface through fur
	gVentral float64 // skin to ventral surface through uncompressed fur
	gContact float64 // skin to substrate through compressed fur

	furWetDorsal  float64 // m² of wettable skin under dorsal fur
	furWetVentral float64

	solarDorsal  float64
	solarVentral float64
}

// New builds the exchange model for one effector state.
func New(cfg *config.Config, geo geometry.Geometry, ins insulation.Insulation, st State) *Model {
	m := &Model{
		env:      cfg.Environment,
		phys:     cfg.Physiology,
		shape:    cfg.Body.Shape,
		geo:      geo,
		ins:      ins,
		state:    st,
		pressure: psychro.Pressure(cfg.Environment.Elevation, cfg.Environment.Pressure),
		emis:     cfg.Body.Emissivity,
	}

	rFlesh := 1 / (st.FleshConductivity * geo.FleshShape)
	rFat := 0.0
	if geo.FatThickness > 0 {
		rFat = geo.FatThickness / (FatConductivity * geo.SkinArea)
	}
	m.gCore = 1 / (rFlesh + rFat)

	contactFrac := 0.0
	if geo.OuterArea > 0 {
		contactFrac = geo.ContactArea / geo.OuterArea
	}
	skinContact := geo.SkinArea * contactFrac
	m.gDorsal = layer(ins.Dorsal, (geo.SkinDorsal+geo.ConvDorsal)/2)
	m.gVentral = layer(ins.Ventral, (geo.SkinVentral-skinContact+geo.ConvVentral)/2)
	m.gContact = layer(ins.Compressed, (skinContact+geo.ContactArea)/2)

	furred := math.Max(geo.SkinArea-geo.EyeArea-geo.BareEvapArea, 0)
	if geo.SkinArea > 0 {
		m.furWetDorsal = furred * geo.SkinDorsal / geo.SkinArea
		m.furWetVentral = furred * geo.SkinVentral / geo.SkinArea
	}

	m.solarDorsal, m.solarVentral = m.absorbedSolar()
	return m
}

func layer(s insulation.Side, area float64) float64 {
	if area <= 0 {
		return 0
	}
	return s.Conductivity * area / math.Max(s.Depth, minLayer)
}

func (m *Model) absorbedSolar() (dorsal, ventral float64) {
	q := m.env.Solar
	if q <= 0 {
		return 0, 0
	}
	diffuse := q * m.env.DiffuseFraction
	direct := 0.0
	if m.env.Zenith < 90 {
		cosz := math.Max(math.Cos(m.env.Zenith*math.Pi/180), 0.05)
		direct = q * (1 - m.env.DiffuseFraction) / cosz
	}
	dorsal = m.ins.Dorsal.Absorptivity * (m.geo.Silhouette*direct + m.geo.Dorsal.Sky*m.geo.ConvDorsal*diffuse)
	ventral = m.ins.Ventral.Absorptivity * m.geo.Ventral.Ground * m.geo.ConvVentral * q * (1 - m.env.SubstrateAbsorptivity)
	return dorsal, ventral
}

// Guess returns a starting point for the solver.
func (m *Model) Guess() []float64 {
	ts := m.state.CoreTemp - 1
	tf := (ts + m.env.AirTemp) / 2
	return []float64{ts, tf, tf, m.state.MinMetabolism}
}

// Residual evaluates the four node balances at x into r. Each entry is in watts.
func (m *Model) Residual(x, r []float64) {
	ex := m.Evaluate(x)

	r[IdxGeneration] = ex.Generation - ex.EvapRespiratory - ex.CoreToSkin
	r[IdxSkin] = ex.CoreToSkin - ex.EvapCutaneous - ex.Conduction - ex.FurDorsalFlow - ex.FurVentralFlow
	if m.gDorsal > 0 {
		r[IdxFurDorsal] = ex.FurDorsalFlow + ex.SolarDorsal - ex.ConvDorsal - ex.IRDorsal
	} else {
		r[IdxFurDorsal] = ex.FurDorsalTemp - ex.SkinTemp
	}
	if m.gVentral > 0 {
		r[IdxFurVentral] = ex.FurVentralFlow + ex.SolarVentral - ex.ConvVentral - ex.IRVentral
	} else {
		r[IdxFurVentral] = ex.FurVentralTemp - ex.SkinTemp
	}
}

// Evaluate computes every flux at x.
func (m *Model) Evaluate(x []float64) Exchange {
	ts, tfd, tfv, gen := x[IdxSkin], x[IdxFurDorsal], x[IdxFurVentral], x[IdxGeneration]
	ex := Exchange{
		SkinTemp:       ts,
		FurDorsalTemp:  tfd,
		FurVentralTemp: tfv,
		LungTemp:       (m.state.CoreTemp + ts) / 2,
		Generation:     gen,
		Metabolism:     math.Max(gen, m.state.MinMetabolism),
	}

	ex.Respiration = Respire(m.env, m.phys, m.pressure, ex.Metabolism, m.state.Panting, ex.LungTemp)
	ex.EvapRespiratory = ex.Respiration.Heat

	ex.CoreToSkin = m.gCore * (m.state.CoreTemp - ts)
	ex.Conduction = m.gContact * (ts - m.env.SubstrateTemp)
	ex.EvapCutaneous, ex.CutaneousWater = m.cutaneous(ts, tfd, tfv)
	ex.WetArea = m.wetArea()

	ex.FurDorsalFlow = m.gDorsal * (ts - tfd)
	ex.FurVentralFlow = m.gVentral * (ts - tfv)
	ex.ConvDorsal, ex.IRDorsal = m.surfaceLoss(tfd, m.geo.ConvDorsal, m.geo.Dorsal)
	ex.ConvVentral, ex.IRVentral = m.surfaceLoss(tfv, m.geo.ConvVentral, m.geo.Ventral)
	ex.Convection = ex.ConvDorsal + ex.ConvVentral
	ex.Infrared = ex.IRDorsal + ex.IRVentral
	ex.SolarDorsal = m.solarDorsal
	ex.SolarVentral = m.solarVentral
	ex.Solar = m.solarDorsal + m.solarVentral
	return ex
}

func (m *Model) wetArea() float64 {
	wet := m.state.SkinWetness / 100
	return m.geo.EyeArea + wet*(m.furWetDorsal+m.furWetVentral+m.geo.BareEvapArea)
}

// surfaceLoss returns convective and net infrared loss from a fur surface at tf.
func (m *Model) surfaceLoss(tf, area float64, vf geometry.ViewFactors) (conv, ir float64) {
	if area <= 0 {
		return 0, 0
	}
	h := Coefficients(m.shape, m.geo.CharDim, tf, m.env.AirTemp, m.env.WindSpeed, m.pressure)
	conv = h.Heat * area * (tf - m.env.AirTemp)

	k4 := func(t float64) float64 {
		tk := t + psychro.Kelvin
		return tk * tk * tk * tk
	}
	surround := vf.Sky*k4(m.env.SkyTemp) + vf.Ground*k4(m.env.GroundTemp) +
		vf.Vegetation*k4(m.env.BushTemp) + vf.Object*k4(m.env.ObjectTemp)
	ir = m.emis * psychro.StefanBoltzmann * area * (k4(tf) - surround)
	return conv, ir
}

// cutaneous returns evaporative heat loss (W) and water loss (kg/s) from the skin.
// Vapour leaving furred skin diffuses through the fur before reaching moving air;
// eyes and bare skin evaporate directly.
func (m *Model) cutaneous(ts, tfd, tfv float64) (heat, water float64) {
	wet := m.state.SkinWetness / 100
	deficit := psychro.VapourDensity(ts, 100) - psychro.VapourDensity(m.env.AirTemp, m.env.RelativeHumidity)
	if deficit <= 0 {
		return 0, 0
	}

	air := psychro.Air(ts, m.pressure)
	hd := Coefficients(m.shape, m.geo.CharDim, ts, m.env.AirTemp, m.env.WindSpeed, m.pressure).Mass
	hdD := Coefficients(m.shape, m.geo.CharDim, tfd, m.env.AirTemp, m.env.WindSpeed, m.pressure).Mass
	hdV := Coefficients(m.shape, m.geo.CharDim, tfv, m.env.AirTemp, m.env.WindSpeed, m.pressure).Mass

	through := func(h, depth float64) float64 {
		return 1 / (1/h + depth/air.VapourDiff)
	}
	conductance := wet*m.furWetDorsal*through(hdD, m.ins.Dorsal.Depth) +
		wet*m.furWetVentral*through(hdV, m.ins.Ventral.Depth) +
		(m.geo.EyeArea+wet*m.geo.BareEvapArea)*hd

	water = conductance * deficit
	return water * psychro.LatentHeat(ts), water
}
