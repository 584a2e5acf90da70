package model

import "github.com/pthm-cable/endotherm/thermoreg"

const (
	secondsPerHour = 3600
	gramsPerKg     = 1000
	mlPerLitre     = 1000
)

// assemble packages the final state and its last evaluation into a Result.
func assemble(st *thermoreg.State, sum thermoreg.Summary, ev evaluation) *Result {
	ex, geo, ins, sol := ev.ex, ev.geo, ev.ins, ev.sol

	furTemp := ex.FurDorsalTemp
	if geo.OuterArea > 0 {
		furTemp = (ex.FurDorsalTemp*geo.DorsalArea + ex.FurVentralTemp*geo.VentralArea) / geo.OuterArea
	}

	res := &Result{}
	res.Thermoregulation = Thermoregulation{
		CoreTemp:          st.CoreTemp.Value,
		LungTemp:          ex.LungTemp,
		SkinTemp:          ex.SkinTemp,
		FurDorsalTemp:     ex.FurDorsalTemp,
		FurVentralTemp:    ex.FurVentralTemp,
		FurTemp:           furTemp,
		Posture:           st.Posture.Value,
		Panting:           st.Panting.Value,
		SkinWetness:       st.SkinWetness.Value,
		FleshConductivity: st.FleshConductivity.Value,
		FurConductivity:   ins.Combined,
		FurDorsalK:        ins.Dorsal.Conductivity,
		FurVentralK:       ins.Ventral.Conductivity,
		CompressedFurK:    ins.Compressed.Conductivity,
		Q10Factor:         st.Q10Factor(),
		HeatStress:        st.HeatStress,
		Stage:             sum.LastStage.String(),
	}

	res.Morphology = Morphology{
		Volume:             geo.Volume,
		FleshVolume:        geo.FleshVolume,
		FatThickness:       geo.FatThickness,
		Length:             geo.Length,
		Width:              geo.Width,
		Height:             geo.Height,
		CharDim:            geo.CharDim,
		SkinArea:           geo.SkinArea,
		OuterArea:          geo.OuterArea,
		DorsalArea:         geo.DorsalArea,
		VentralArea:        geo.VentralArea,
		ConvectiveArea:     geo.ConvectiveArea(),
		ContactArea:        geo.ContactArea,
		EvaporativeArea:    ex.WetArea,
		Silhouette:         geo.Silhouette,
		SilhouetteNormal:   geo.SilhouetteNormal,
		SilhouetteParallel: geo.SilhouetteParallel,
		FSkyDorsal:         geo.Dorsal.Sky,
		FGroundVentral:     geo.Ventral.Ground,
	}

	res.Energy = EnergyBalance{
		Solar:            ex.Solar,
		Infrared:         ex.Infrared,
		Metabolism:       ex.Metabolism,
		EvapCutaneous:    ex.EvapCutaneous,
		EvapRespiratory:  ex.EvapRespiratory,
		Convection:       ex.Convection,
		Conduction:       ex.Conduction,
		Imbalance:        ex.Imbalance(),
		Generation:       ex.Generation,
		MinMetabolism:    st.MinMetabolism(),
		SolverIterations: sol.Iterations,
		SolverResidual:   sol.Norm,
		SolverConverged:  sol.Converged,
		SolverStalled:    sol.Stalled,
		SolverMethod:     sol.Method,
		Escalations:      sum.Escalations,
		Outcome:          sum.Outcome.String(),
		Converged:        sum.Outcome == thermoreg.OutcomeBalanced && sol.Converged,
	}

	r := ex.Respiration
	res.Mass = MassBalance{
		AirflowLps:     r.AirflowLps,
		OxygenMlph:     r.OxygenLps * mlPerLitre * secondsPerHour,
		RespWaterGph:   r.Water * gramsPerKg * secondsPerHour,
		CutWaterGph:    ex.CutaneousWater * gramsPerKg * secondsPerHour,
		O2In:           r.O2In,
		O2Out:          r.O2Out,
		N2In:           r.N2In,
		N2Out:          r.N2Out,
		AirIn:          r.AirIn,
		AirOut:         r.AirOut,
		CO2Out:         r.CO2Out,
		WaterIn:        r.WaterIn,
		WaterOut:       r.WaterOut,
		ExhaledTempC:   r.ExhaledTemp,
		RespiredMetabW: r.Metabolism,
	}
	res.Mass.TotalWaterGph = res.Mass.RespWaterGph + res.Mass.CutWaterGph
	return res
}
