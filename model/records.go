package model

import (
	"log/slog"

	"github.com/pthm-cable/endotherm/telemetry"
)

// Thermoregulation is the final physiological response.
type Thermoregulation struct {
	CoreTemp          float64 `csv:"core_temp"`        // °C
	LungTemp          float64 `csv:"lung_temp"`        // °C
	SkinTemp          float64 `csv:"skin_temp"`        // °C
	FurDorsalTemp     float64 `csv:"fur_dorsal_temp"`  // °C, fur-air interface
	FurVentralTemp    float64 `csv:"fur_ventral_temp"` // °C
	FurTemp           float64 `csv:"fur_temp"`         // °C, area-weighted
	Posture           float64 `csv:"posture"`          // shape elongation ratio
	Panting           float64 `csv:"panting"`          // breathing multiplier
	SkinWetness       float64 `csv:"skin_wetness"`     // %
	FleshConductivity float64 `csv:"flesh_k"`          // W/m/K
	FurConductivity   float64 `csv:"fur_k"`            // W/m/K, area-weighted
	FurDorsalK        float64 `csv:"fur_dorsal_k"`
	FurVentralK       float64 `csv:"fur_ventral_k"`
	CompressedFurK    float64 `csv:"fur_compressed_k"`
	Q10Factor         float64 `csv:"q10_factor"`
	HeatStress        bool    `csv:"heat_stress"`
	Stage             string  `csv:"stage"` // last effector advanced
}

// Morphology is the geometry of the final posture.
type Morphology struct {
	Volume             float64 `csv:"volume"` // m³
	FleshVolume        float64 `csv:"flesh_volume"`
	FatThickness       float64 `csv:"fat_thickness"` // m
	Length             float64 `csv:"length"`        // m
	Width              float64 `csv:"width"`
	Height             float64 `csv:"height"`
	CharDim            float64 `csv:"char_dim"`
	SkinArea           float64 `csv:"area_skin"` // m²
	OuterArea          float64 `csv:"area_total"`
	DorsalArea         float64 `csv:"area_dorsal"`
	VentralArea        float64 `csv:"area_ventral"`
	ConvectiveArea     float64 `csv:"area_convection"`
	ContactArea        float64 `csv:"area_conduction"`
	EvaporativeArea    float64 `csv:"area_evaporation"` // wet skin, eyes and bare skin
	Silhouette         float64 `csv:"area_silhouette"`
	SilhouetteNormal   float64 `csv:"area_silhouette_normal"`
	SilhouetteParallel float64 `csv:"area_silhouette_parallel"`
	FSkyDorsal         float64 `csv:"f_sky"`
	FGroundVentral     float64 `csv:"f_ground"`
}

// EnergyBalance holds the heat flux terms in W. Loss terms are positive when heat leaves.
type EnergyBalance struct {
	Solar            float64 `csv:"q_solar"`
	Infrared         float64 `csv:"q_infrared"`
	Metabolism       float64 `csv:"q_metabolism"`
	EvapCutaneous    float64 `csv:"q_evap_skin"`
	EvapRespiratory  float64 `csv:"q_evap_resp"`
	Convection       float64 `csv:"q_convection"`
	Conduction       float64 `csv:"q_conduction"`
	Imbalance        float64 `csv:"q_imbalance"`  // gain minus loss
	Generation       float64 `csv:"q_generation"` // heat required to hold core temperature
	MinMetabolism    float64 `csv:"q_min"`        // Q10-adjusted basal rate
	SolverIterations int     `csv:"solver_iterations"`
	SolverResidual   float64 `csv:"solver_residual"`
	SolverConverged  bool    `csv:"solver_converged"`
	SolverStalled    bool    `csv:"solver_stalled"` // no descent direction left before the iteration cap
	SolverMethod     string  `csv:"solver_method"`
	Escalations      int     `csv:"escalations"`
	Outcome          string  `csv:"outcome"`
	Converged        bool    `csv:"converged"`
}

// Evaporation is total evaporative heat loss.
func (e EnergyBalance) Evaporation() float64 {
	return e.EvapCutaneous + e.EvapRespiratory
}

// MassBalance holds gas and water exchange.
type MassBalance struct {
	AirflowLps     float64 `csv:"air_lps"`  // L/s inspired at STP
	OxygenMlph     float64 `csv:"o2_mlph"`  // mL/h consumed at STP
	RespWaterGph   float64 `csv:"h2o_resp"` // g/h
	CutWaterGph    float64 `csv:"h2o_skin"`
	TotalWaterGph  float64 `csv:"h2o_total"`
	O2In           float64 `csv:"o2_mol_in"` // mol/s
	O2Out          float64 `csv:"o2_mol_out"`
	N2In           float64 `csv:"n2_mol_in"`
	N2Out          float64 `csv:"n2_mol_out"`
	AirIn          float64 `csv:"air_mol_in"`
	AirOut         float64 `csv:"air_mol_out"`
	CO2Out         float64 `csv:"co2_mol_out"`
	WaterIn        float64 `csv:"h2o_mol_in"`
	WaterOut       float64 `csv:"h2o_mol_out"`
	ExhaledTempC   float64 `csv:"exhaled_temp"`
	RespiredMetabW float64 `csv:"q_ventilation"` // metabolic rate driving ventilation
}

// Result is the output of one solve.
type Result struct {
	Thermoregulation Thermoregulation
	Morphology       Morphology
	Energy           EnergyBalance
	Mass             MassBalance

	// Trace holds every escalation pass when debug.trace is on.
	Trace []telemetry.EscalationEvent
}

// Row is the flat, CSV-ready form of a Result.
type Row struct {
	Thermoregulation
	Morphology
	EnergyBalance
	MassBalance
}

// Row flattens the four records.
func (r *Result) Row() Row {
	return Row{r.Thermoregulation, r.Morphology, r.Energy, r.Mass}
}

// LogValue implements slog.LogValuer for structured logging.
func (t Thermoregulation) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("core_temp", t.CoreTemp),
		slog.Float64("skin_temp", t.SkinTemp),
		slog.Float64("fur_temp", t.FurTemp),
		slog.Float64("posture", t.Posture),
		slog.Float64("flesh_k", t.FleshConductivity),
		slog.Float64("panting", t.Panting),
		slog.Float64("skin_wetness", t.SkinWetness),
		slog.Float64("q10_factor", t.Q10Factor),
		slog.String("stage", t.Stage),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (e EnergyBalance) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("solar", e.Solar),
		slog.Float64("infrared", e.Infrared),
		slog.Float64("metabolism", e.Metabolism),
		slog.Float64("evaporation", e.Evaporation()),
		slog.Float64("convection", e.Convection),
		slog.Float64("conduction", e.Conduction),
		slog.Float64("imbalance", e.Imbalance),
		slog.Int("solver_iterations", e.SolverIterations),
		slog.Bool("solver_stalled", e.SolverStalled),
		slog.Int("escalations", e.Escalations),
		slog.String("outcome", e.Outcome),
		slog.Bool("converged", e.Converged),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (m MassBalance) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("air_lps", m.AirflowLps),
		slog.Float64("o2_mlph", m.OxygenMlph),
		slog.Float64("h2o_total_gph", m.TotalWaterGph),
	)
}
