package insulation

import (
	"math"
	"testing"

	"github.com/pthm-cable/endotherm/config"
	"github.com/pthm-cable/endotherm/psychro"
)

func TestCompute_Override(t *testing.T) {
	fur := config.Default().Fur
	fur.ConductivityOverride = 0.05

	ins := Compute(fur, 0.5, 30)
	if !ins.Overridden {
		t.Error("expected Overridden")
	}
	for name, s := range map[string]Side{"dorsal": ins.Dorsal, "ventral": ins.Ventral, "compressed": ins.Compressed} {
		if s.Conductivity != 0.05 {
			t.Errorf("%s conductivity = %v, want 0.05", name, s.Conductivity)
		}
	}
	if math.Abs(ins.Combined-0.05) > 1e-12 {
		t.Errorf("combined = %v, want 0.05", ins.Combined)
	}
}

func TestCompute_CombinedIsAreaWeighted(t *testing.T) {
	fur := config.Default().Fur
	fur.Ventral.Density = 1e8

	ins := Compute(fur, 0.3, 30)
	want := 0.7*ins.Dorsal.Conductivity + 0.3*ins.Ventral.Conductivity
	if math.Abs(ins.Combined-want) > 1e-12 {
		t.Errorf("combined = %v, want %v", ins.Combined, want)
	}
}

func TestCompute_CompressedFurConductsMore(t *testing.T) {
	fur := config.Default().Fur
	fur.Ventral.Depth = 6e-3
	fur.CompressedDepth = 2e-3

	ins := Compute(fur, 0.5, 30)
	if ins.Compressed.Depth != 2e-3 {
		t.Errorf("compressed depth = %v, want 2e-3", ins.Compressed.Depth)
	}
	// Conductance per unit area must rise when the layer is squashed.
	if ins.Compressed.Conductivity/ins.Compressed.Depth <= ins.Ventral.Conductivity/ins.Ventral.Depth {
		t.Errorf("compressed conductance %v should exceed ventral %v",
			ins.Compressed.Conductivity/ins.Compressed.Depth, ins.Ventral.Conductivity/ins.Ventral.Depth)
	}
}

func TestCompute_CompressedDepthClamped(t *testing.T) {
	fur := config.Default().Fur
	fur.Ventral.Depth = 2e-3
	fur.CompressedDepth = 5e-3

	ins := Compute(fur, 0.5, 30)
	if ins.Compressed.Depth != fur.Ventral.Depth {
		t.Errorf("compressed depth = %v, want ventral depth %v", ins.Compressed.Depth, fur.Ventral.Depth)
	}
}

func TestCompute_Absorptivity(t *testing.T) {
	fur := config.Default().Fur
	fur.Dorsal.Reflectivity = 0.25
	ins := Compute(fur, 0.5, 30)
	if math.Abs(ins.Dorsal.Absorptivity-0.75) > 1e-12 {
		t.Errorf("dorsal absorptivity = %v, want 0.75", ins.Dorsal.Absorptivity)
	}
}

// ---------- Conductivity ----------

func TestConductivity_BareGap(t *testing.T) {
	ka := psychro.AirConductivity(20)
	tk := 20 + psychro.Kelvin
	got := Conductivity(config.FurSide{}, 0.01, ka, 0.209, tk)
	want := ka + 4*psychro.StefanBoltzmann*tk*tk*tk*0.01
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("bare gap conductivity = %v, want %v", got, want)
	}
}

func TestConductivity_DenserFurLowersRadiation(t *testing.T) {
	ka := psychro.AirConductivity(30)
	tk := 30 + psychro.Kelvin
	sparse := config.FurSide{Diameter: 30e-6, Length: 20e-3, Density: 1e6, Depth: 5e-3}
	dense := sparse
	dense.Density = 1e8

	ks := Conductivity(sparse, sparse.Depth, ka, 0.209, tk)
	kd := Conductivity(dense, dense.Depth, ka, 0.209, tk)
	if kd >= ks {
		t.Errorf("dense fur k = %v should be below sparse fur k = %v", kd, ks)
	}
	if kd <= 0 || math.IsNaN(kd) {
		t.Errorf("expected positive finite conductivity, got %v", kd)
	}
}

func TestConductivity_WarmerLayerConductsMore(t *testing.T) {
	s := config.Default().Fur.Dorsal
	cold := Conductivity(s, s.Depth, psychro.AirConductivity(0), 0.209, psychro.Kelvin)
	warm := Conductivity(s, s.Depth, psychro.AirConductivity(40), 0.209, 40+psychro.Kelvin)
	if warm <= cold {
		t.Errorf("k at 40°C (%v) should exceed k at 0°C (%v)", warm, cold)
	}
}
