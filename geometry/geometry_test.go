package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/endotherm/config"
)

func bareBody(shape int) (config.BodyConfig, config.FurConfig) {
	cfg := config.Default()
	body := cfg.Body
	body.Shape = shape
	body.ShapeC = 1
	fur := cfg.Fur
	fur.Dorsal.Depth = 0
	fur.Ventral.Depth = 0
	return body, fur
}

// ---------- closed-form areas ----------

func TestCompute_SkinAreaClosedForm(t *testing.T) {
	const v = 0.001 // 1 kg at 1000 kg/m³

	sphereR := math.Cbrt(3 * v / (4 * math.Pi))
	cylR := math.Cbrt(v / (2 * math.Pi * 2))
	plateW := math.Cbrt(v / 2)

	tests := []struct {
		name       string
		shape      int
		elongation float64
		want       float64
	}{
		{"sphere", config.ShapeSphere, 1, 4 * math.Pi * sphereR * sphereR},
		{"cylinder", config.ShapeCylinder, 2, 2*math.Pi*cylR*(2*cylR*2) + 2*math.Pi*cylR*cylR},
		{"plate", config.ShapePlate, 2, 2 * (2*plateW*plateW + 2*plateW*plateW + plateW*plateW)},
		{"ellipsoid as sphere", config.ShapeEllipsoid, 1, 4 * math.Pi * sphereR * sphereR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, fur := bareBody(tt.shape)
			g, err := Compute(body, fur, tt.elongation)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if math.Abs(g.SkinArea-tt.want)/tt.want > 1e-9 {
				t.Errorf("skin area = %v, want %v", g.SkinArea, tt.want)
			}
			if math.Abs(g.OuterArea-g.SkinArea) > 1e-12 {
				t.Errorf("outer area %v should equal skin area %v without fur", g.OuterArea, g.SkinArea)
			}
			if math.Abs(g.Volume-v) > 1e-15 {
				t.Errorf("volume = %v, want %v", g.Volume, v)
			}
		})
	}
}

func TestCompute_EllipsoidThomsen(t *testing.T) {
	const v = 0.001
	body, fur := bareBody(config.ShapeEllipsoid)
	body.ShapeC = 1.1

	b := math.Cbrt(3 * v / (4 * math.Pi * 2 * 1.1))
	a, c := 2*b, 1.1*b
	const p = 1.6075
	ap, bp, cp := math.Pow(a, p), math.Pow(b, p), math.Pow(c, p)
	want := 4 * math.Pi * math.Pow((ap*bp+ap*cp+bp*cp)/3, 1/p)

	g, err := Compute(body, fur, 2)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if math.Abs(g.SkinArea-want)/want > 1e-9 {
		t.Errorf("skin area = %v, want %v", g.SkinArea, want)
	}
	if math.Abs(g.Length-2*a) > 1e-12 || math.Abs(g.Width-2*b) > 1e-12 || math.Abs(g.Height-2*c) > 1e-12 {
		t.Errorf("dimensions = %v x %v x %v, want %v x %v x %v", g.Length, g.Width, g.Height, 2*a, 2*b, 2*c)
	}
	sphere := 4 * math.Pi * math.Pow(3*v/(4*math.Pi), 2.0/3.0)
	if g.SkinArea <= sphere {
		t.Errorf("elongated area %v should exceed sphere %v", g.SkinArea, sphere)
	}
}

func TestCompute_VolumeRoundTrip(t *testing.T) {
	for shape := config.ShapeCylinder; shape <= config.ShapeEllipsoid; shape++ {
		x := fromVolume(shape, 0.002, 1.7, 1.3)
		if got := volume(shape, x); math.Abs(got-0.002) > 1e-12 {
			t.Errorf("shape %d: volume(fromVolume(0.002)) = %v", shape, got)
		}
	}
}

func TestEllipsoidArea_SphereExact(t *testing.T) {
	got := EllipsoidArea(0.1, 0.1, 0.1)
	want := 4 * math.Pi * 0.01
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("EllipsoidArea(r,r,r) = %v, want %v", got, want)
	}
}

// ---------- posture ----------

func TestCompute_ElongationIncreasesArea(t *testing.T) {
	for shape := config.ShapeCylinder; shape <= config.ShapeEllipsoid; shape++ {
		if shape == config.ShapeSphere {
			continue
		}
		body, fur := bareBody(shape)
		lo, err := Compute(body, fur, 1.1)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		hi, err := Compute(body, fur, 3)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if hi.SkinArea <= lo.SkinArea {
			t.Errorf("shape %d: area at elongation 3 (%v) should exceed 1.1 (%v)", shape, hi.SkinArea, lo.SkinArea)
		}
	}
}

func TestCompute_SphereIgnoresElongation(t *testing.T) {
	body, fur := bareBody(config.ShapeSphere)
	a, _ := Compute(body, fur, 1)
	b, _ := Compute(body, fur, 4)
	if a.SkinArea != b.SkinArea {
		t.Errorf("sphere area changed with elongation: %v vs %v", a.SkinArea, b.SkinArea)
	}
}

// ---------- fur and fat ----------

func TestCompute_FurInflatesOuterSurface(t *testing.T) {
	cfg := config.Default()
	g, err := Compute(cfg.Body, cfg.Fur, 1.1)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if g.OuterArea <= g.SkinArea {
		t.Errorf("outer area %v should exceed skin area %v with fur", g.OuterArea, g.SkinArea)
	}
	if math.Abs(g.DorsalArea+g.VentralArea-g.OuterArea) > 1e-12 {
		t.Errorf("dorsal+ventral = %v, want %v", g.DorsalArea+g.VentralArea, g.OuterArea)
	}
}

func TestCompute_FatLayer(t *testing.T) {
	body, fur := bareBody(config.ShapeEllipsoid)
	body.FatPresent = true
	body.FatPct = 20

	g, err := Compute(body, fur, 1.1)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	wantFat := 1 * 0.2 / FatDensity
	if math.Abs(g.FatVolume-wantFat) > 1e-15 {
		t.Errorf("fat volume = %v, want %v", g.FatVolume, wantFat)
	}
	if g.FatThickness <= 0 {
		t.Errorf("expected positive fat thickness, got %v", g.FatThickness)
	}
	if math.Abs(g.FleshVolume+g.FatVolume-g.Volume) > 1e-15 {
		t.Errorf("flesh + fat = %v, want %v", g.FleshVolume+g.FatVolume, g.Volume)
	}
}

func TestCompute_NegativeFleshVolume(t *testing.T) {
	body, fur := bareBody(config.ShapeEllipsoid)
	body.FatPresent = true
	body.FatPct = 100
	body.Density = 2000 // denser than fat, so fat alone outweighs the body volume

	_, err := Compute(body, fur, 1.1)
	if !errors.Is(err, ErrNegativeFleshVolume) {
		t.Errorf("expected ErrNegativeFleshVolume, got %v", err)
	}
}

func TestCompute_InvalidShape(t *testing.T) {
	for _, shape := range []int{0, 5, -1} {
		body, fur := bareBody(config.ShapeSphere)
		body.Shape = shape
		if _, err := Compute(body, fur, 1); !errors.Is(err, ErrInvalidShape) {
			t.Errorf("shape %d: expected ErrInvalidShape, got %v", shape, err)
		}
	}
}

// ---------- allometry, orientation, view factors ----------

func TestCompute_MammalAllometry(t *testing.T) {
	body, fur := bareBody(config.ShapeEllipsoid)
	body.Allometry = AllometryMammal
	body.Mass = 10
	g, err := Compute(body, fur, 1.1)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	want := 0.1 * math.Pow(10, 0.67)
	if math.Abs(g.SkinArea-want) > 1e-12 {
		t.Errorf("mammal skin area = %v, want %v", g.SkinArea, want)
	}
}

func TestCompute_SunOrientation(t *testing.T) {
	body, fur := bareBody(config.ShapeCylinder)
	body.SunOrientation = SunNormal
	g, _ := Compute(body, fur, 3)
	if g.Silhouette != g.SilhouetteNormal {
		t.Errorf("normal orientation silhouette = %v, want %v", g.Silhouette, g.SilhouetteNormal)
	}
	if g.SilhouetteNormal <= g.SilhouetteParallel {
		t.Errorf("elongated cylinder should shade more broadside (%v) than end-on (%v)", g.SilhouetteNormal, g.SilhouetteParallel)
	}

	body.SunOrientation = 7
	if _, err := Compute(body, fur, 3); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
}

func TestViewFactors_SumToOne(t *testing.T) {
	body, _ := bareBody(config.ShapeSphere)
	body.FSky = 0.5
	body.FGround = 0.3
	body.FVegetation = 0.1
	d, v := viewFactors(body)
	for name, f := range map[string]ViewFactors{"dorsal": d, "ventral": v} {
		sum := f.Sky + f.Ground + f.Vegetation + f.Object
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("%s view factors sum to %v", name, sum)
		}
	}
	if math.Abs(d.Sky-0.5) > 1e-12 {
		t.Errorf("dorsal sky = %v, want 0.5", d.Sky)
	}
}

func TestCompute_ContactArea(t *testing.T) {
	body, fur := bareBody(config.ShapeEllipsoid)
	body.ContactFrac = 0.2
	g, _ := Compute(body, fur, 1.1)
	if math.Abs(g.ContactArea-0.2*g.OuterArea) > 1e-12 {
		t.Errorf("contact area = %v, want %v", g.ContactArea, 0.2*g.OuterArea)
	}
	if math.Abs(g.ConvectiveArea()+g.ContactArea-g.OuterArea) > 1e-12 {
		t.Errorf("convective + contact = %v, want %v", g.ConvectiveArea()+g.ContactArea, g.OuterArea)
	}
}
