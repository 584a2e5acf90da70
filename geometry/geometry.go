// Package geometry derives body dimensions, areas and view factors from mass,
// density and shape for the four idealized body shapes.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/endotherm/config"
)

// FatDensity is the density of subcutaneous fat, kg/m³.
const FatDensity = 901.0

// Allometry modes.
const (
	AllometryGeometric = 0
	AllometryBird      = 1
	AllometryMammal    = 2
)

// Sun orientation modes.
const (
	SunAverage  = 0
	SunNormal   = 1
	SunParallel = 2
)

var (
	ErrInvalidShape        = errors.New("geometry: shape class must be 1-4")
	ErrNegativeFleshVolume = errors.New("geometry: fat fraction leaves negative flesh volume")
	ErrInvalidDimension    = errors.New("geometry: non-positive dimension")
	ErrInvalidMode         = errors.New("geometry: unknown allometry or sun orientation mode")
)

// ViewFactors are radiative configuration factors for one side of the body.
// They sum to one.
type ViewFactors struct {
	Sky        float64
	Ground     float64
	Vegetation float64
	Object     float64
}

// Geometry is the output of the geometry engine for one posture.
type Geometry struct {
	Volume       float64 // m³, total body without fur
	FleshVolume  float64 // m³
	FatVolume    float64 // m³
	FatThickness float64 // m

	// Linear dimensions of the skin surface.
	Length float64
	Width  float64
	Height float64

	CharDim float64 // m, characteristic dimension for convection

	SkinArea     float64 // m²
	SkinDorsal   float64
	SkinVentral  float64
	OuterArea    float64 // m², fur-air interface
	DorsalArea   float64
	VentralArea  float64
	ConvDorsal   float64 // convective and radiative area, dorsal
	ConvVentral  float64 // convective and radiative area, ventral minus contact
	ContactArea  float64 // conductive area against the substrate
	EyeArea      float64 // always-wet skin area
	BareEvapArea float64 // skin area evaporating without fur resistance

	Silhouette         float64 // area projected toward the sun for the orientation mode
	SilhouetteNormal   float64
	SilhouetteParallel float64

	// FleshShape is the shape term S such that flesh conductance is k·S, W/K.
	FleshShape float64

	Dorsal  ViewFactors
	Ventral ViewFactors
}

// axes holds half-dimensions: cylinder (half-length, radius, radius),
// sphere (r, r, r), plate (half-length, half-width, half-height),
// ellipsoid (semi-axes).
type axes struct {
	a, b, c float64
}

// Compute runs the geometry engine for the given elongation ratio.
func Compute(body config.BodyConfig, fur config.FurConfig, elongation float64) (Geometry, error) {
	var g Geometry
	if body.Shape < config.ShapeCylinder || body.Shape > config.ShapeEllipsoid {
		return g, fmt.Errorf("%w: got %d", ErrInvalidShape, body.Shape)
	}
	if body.Mass <= 0 || body.Density <= 0 || elongation <= 0 {
		return g, fmt.Errorf("%w: mass %g, density %g, elongation %g", ErrInvalidDimension, body.Mass, body.Density, elongation)
	}
	ratioC := body.ShapeC
	if ratioC <= 0 {
		ratioC = 1
	}

	g.Volume = body.Mass / body.Density
	if body.FatPresent {
		g.FatVolume = body.Mass * body.FatPct / 100 / FatDensity
	}
	g.FleshVolume = g.Volume - g.FatVolume
	if g.FleshVolume <= 0 {
		return g, fmt.Errorf("%w: fat volume %g of body volume %g", ErrNegativeFleshVolume, g.FatVolume, g.Volume)
	}

	skin := fromVolume(body.Shape, g.Volume, elongation, ratioC)
	flesh := fromVolume(body.Shape, g.FleshVolume, elongation, ratioC)
	g.FatThickness = skin.b - flesh.b
	g.FleshShape = 2 * g.FleshVolume * (1/(flesh.a*flesh.a) + 1/(flesh.b*flesh.b) + 1/(flesh.c*flesh.c))

	g.Length, g.Width, g.Height = 2*skin.a, 2*skin.b, 2*skin.c
	g.SkinArea = area(body.Shape, skin)
	g.SilhouetteNormal, g.SilhouetteParallel = silhouettes(body.Shape, skin)
	g.CharDim = charDim(body.Shape, skin, g.Volume)

	// Outer surface sits one area-weighted fur depth beyond the skin.
	vf := body.VentralFrac
	depth := fur.Dorsal.Depth*(1-vf) + fur.Ventral.Depth*vf
	outer := axes{skin.a + depth, skin.b + depth, skin.c + depth}
	g.OuterArea = area(body.Shape, outer)
	sn, sp := silhouettes(body.Shape, outer)
	if depth > 0 {
		g.SilhouetteNormal, g.SilhouetteParallel = sn, sp
		g.CharDim = charDim(body.Shape, outer, volume(body.Shape, outer))
	}

	switch body.Allometry {
	case AllometryGeometric:
	case AllometryBird, AllometryMammal:
		allo := allometricArea(body.Allometry, body.Mass)
		scale := allo / g.SkinArea
		g.SkinArea = allo
		g.OuterArea *= scale
		g.SilhouetteNormal *= scale
		g.SilhouetteParallel *= scale
	default:
		return g, fmt.Errorf("%w: allometry %d", ErrInvalidMode, body.Allometry)
	}

	switch body.SunOrientation {
	case SunAverage:
		g.Silhouette = (g.SilhouetteNormal + g.SilhouetteParallel) / 2
	case SunNormal:
		g.Silhouette = g.SilhouetteNormal
	case SunParallel:
		g.Silhouette = g.SilhouetteParallel
	default:
		return g, fmt.Errorf("%w: sun orientation %d", ErrInvalidMode, body.SunOrientation)
	}

	contact := math.Min(body.ContactFrac, vf)
	g.SkinDorsal = g.SkinArea * (1 - vf)
	g.SkinVentral = g.SkinArea * vf
	g.DorsalArea = g.OuterArea * (1 - vf)
	g.VentralArea = g.OuterArea * vf
	g.ContactArea = g.OuterArea * contact
	g.ConvDorsal = g.DorsalArea
	g.ConvVentral = g.VentralArea - g.ContactArea
	g.EyeArea = g.SkinArea * body.EyePct / 100
	g.BareEvapArea = g.SkinArea * body.BareEvapPct / 100

	g.Dorsal, g.Ventral = viewFactors(body)
	return g, nil
}

// ConvectiveArea is the total area exchanging heat with air.
func (g Geometry) ConvectiveArea() float64 {
	return g.ConvDorsal + g.ConvVentral
}

func fromVolume(shape int, v, ratioB, ratioC float64) axes {
	switch shape {
	case config.ShapeCylinder:
		r := math.Cbrt(v / (2 * math.Pi * ratioB))
		return axes{r * ratioB, r, r}
	case config.ShapeSphere:
		r := math.Cbrt(3 * v / (4 * math.Pi))
		return axes{r, r, r}
	case config.ShapePlate:
		w := math.Cbrt(v / (ratioB * ratioC))
		return axes{ratioB * w / 2, w / 2, ratioC * w / 2}
	default:
		b := math.Cbrt(3 * v / (4 * math.Pi * ratioB * ratioC))
		return axes{ratioB * b, b, ratioC * b}
	}
}

func volume(shape int, x axes) float64 {
	switch shape {
	case config.ShapeCylinder:
		return 2 * math.Pi * x.b * x.c * x.a
	case config.ShapeSphere:
		return 4.0 / 3.0 * math.Pi * x.a * x.a * x.a
	case config.ShapePlate:
		return 8 * x.a * x.b * x.c
	default:
		return 4.0 / 3.0 * math.Pi * x.a * x.b * x.c
	}
}

func area(shape int, x axes) float64 {
	switch shape {
	case config.ShapeCylinder:
		return 4*math.Pi*x.b*x.a + 2*math.Pi*x.b*x.b
	case config.ShapeSphere:
		return 4 * math.Pi * x.a * x.a
	case config.ShapePlate:
		return 8 * (x.a*x.b + x.a*x.c + x.b*x.c)
	default:
		return EllipsoidArea(x.a, x.b, x.c)
	}
}

// EllipsoidArea approximates the surface of an ellipsoid with Thomsen's formula.
func EllipsoidArea(a, b, c float64) float64 {
	const p = 1.6075
	ap, bp, cp := math.Pow(a, p), math.Pow(b, p), math.Pow(c, p)
	return 4 * math.Pi * math.Pow((ap*bp+ap*cp+bp*cp)/3, 1/p)
}

func silhouettes(shape int, x axes) (normal, parallel float64) {
	switch shape {
	case config.ShapeCylinder:
		return 4 * x.b * x.a, math.Pi * x.b * x.b
	case config.ShapeSphere:
		s := math.Pi * x.a * x.a
		return s, s
	case config.ShapePlate:
		return 4 * x.a * x.b, 4 * x.b * x.c
	default:
		return math.Pi * x.a * x.b, math.Pi * x.b * x.c
	}
}

func charDim(shape int, x axes, v float64) float64 {
	switch shape {
	case config.ShapeCylinder, config.ShapeSphere:
		return 2 * x.b
	default:
		return math.Cbrt(v)
	}
}

// allometricArea returns skin area in m² from empirical mass scaling.
func allometricArea(mode int, mass float64) float64 {
	if mode == AllometryBird {
		// Walsberg & King 1978, cm² from grams
		return 10 * math.Pow(mass*1000, 0.667) / 1e4
	}
	// Stahl 1967
	return 0.1 * math.Pow(mass, 0.67)
}

func viewFactors(body config.BodyConfig) (dorsal, ventral ViewFactors) {
	dorsal = ViewFactors{Sky: body.FSky, Vegetation: body.FVegetation, Object: body.FObject}
	dorsal.Ground = 1 - dorsal.Sky - dorsal.Vegetation - dorsal.Object
	ventral = ViewFactors{Ground: body.FGround, Vegetation: body.FVegetation, Object: body.FObject}
	ventral.Sky = 1 - ventral.Ground - ventral.Vegetation - ventral.Object
	return dorsal.normalized(), ventral.normalized()
}

func (v ViewFactors) normalized() ViewFactors {
	v.Sky = math.Max(v.Sky, 0)
	v.Ground = math.Max(v.Ground, 0)
	v.Vegetation = math.Max(v.Vegetation, 0)
	v.Object = math.Max(v.Object, 0)
	sum := v.Sky + v.Ground + v.Vegetation + v.Object
	if sum == 0 {
		return ViewFactors{Sky: 0.5, Ground: 0.5}
	}
	v.Sky /= sum
	v.Ground /= sum
	v.Vegetation /= sum
	v.Object /= sum
	return v
}
