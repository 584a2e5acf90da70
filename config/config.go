// Package config provides the configuration bundle for a heat and mass balance solve.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned by Validate when the bundle cannot describe a body.
var ErrInvalid = errors.New("config: invalid configuration")

// Shape classes understood by the geometry engine.
const (
	ShapeCylinder  = 1
	ShapeSphere    = 2
	ShapePlate     = 3
	ShapeEllipsoid = 4
)

// Config holds every input of one solve.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Body        BodyConfig        `yaml:"body"`
	Fur         FurConfig         `yaml:"fur"`
	Physiology  PhysiologyConfig  `yaml:"physiology"`
	Solver      SolverConfig      `yaml:"solver"`
	Debug       DebugConfig       `yaml:"debug"`
}

// EnvironmentConfig holds the microclimate drivers. Read-only during a solve.
type EnvironmentConfig struct {
	AirTemp               float64 `yaml:"air_temp"`               // °C, local air at animal height
	GroundTemp            float64 `yaml:"ground_temp"`            // °C, radiant ground surface
	SkyTemp               float64 `yaml:"sky_temp"`               // °C, radiant sky
	SubstrateTemp         float64 `yaml:"substrate_temp"`         // °C, substrate under the contact area
	BushTemp              float64 `yaml:"bush_temp"`              // °C, surrounding vegetation
	ObjectTemp            float64 `yaml:"object_temp"`            // °C, nearby object
	WindSpeed             float64 `yaml:"wind_speed"`             // m/s
	RelativeHumidity      float64 `yaml:"relative_humidity"`      // %
	Solar                 float64 `yaml:"solar"`                  // W/m², global horizontal
	Zenith                float64 `yaml:"zenith"`                 // degrees
	DiffuseFraction       float64 `yaml:"diffuse_fraction"`       // 0-1 share of solar that is diffuse
	Elevation             float64 `yaml:"elevation"`              // m
	Pressure              float64 `yaml:"pressure"`               // Pa, <= 0 means derive from elevation
	O2Pct                 float64 `yaml:"o2_pct"`                 // % of dry air
	N2Pct                 float64 `yaml:"n2_pct"`                 // % of dry air
	CO2Pct                float64 `yaml:"co2_pct"`                // % of dry air
	SubstrateAbsorptivity float64 `yaml:"substrate_absorptivity"` // 0-1
}

// BodyConfig holds the mostly immutable body description.
type BodyConfig struct {
	Mass           float64 `yaml:"mass"`            // kg
	Density        float64 `yaml:"density"`         // kg/m³
	FatPct         float64 `yaml:"fat_pct"`         // % of mass that is subcutaneous fat
	FatPresent     bool    `yaml:"fat_present"`     // model a subcutaneous fat layer
	Shape          int     `yaml:"shape"`           // 1 cylinder, 2 sphere, 3 plate, 4 ellipsoid
	ShapeC         float64 `yaml:"shape_c"`         // secondary axis ratio for plate and ellipsoid
	Allometry      int     `yaml:"allometry"`       // 0 geometric, 1 bird skin, 2 mammal skin
	SunOrientation int     `yaml:"sun_orientation"` // 0 average, 1 normal to beam, 2 parallel to beam
	Emissivity     float64 `yaml:"emissivity"`
	FSky           float64 `yaml:"f_sky"`
	FGround        float64 `yaml:"f_ground"`
	FObject        float64 `yaml:"f_object"`
	FVegetation    float64 `yaml:"f_vegetation"`
	VentralFrac    float64 `yaml:"ventral_fraction"` // share of outer area that is ventral; caps contact
	ContactFrac    float64 `yaml:"contact_fraction"` // share of outer area touching the substrate
	EyePct         float64 `yaml:"eye_pct"`          // % of skin area that is always wet (eyes)
	BareEvapPct    float64 `yaml:"bare_evap_pct"`    // % of skin area evaporating without fur resistance
}

// FurSide holds hair or feather properties for one side of the body.
type FurSide struct {
	Diameter     float64 `yaml:"diameter"`     // m
	Length       float64 `yaml:"length"`       // m
	Density      float64 `yaml:"density"`      // fibres per m²
	Depth        float64 `yaml:"depth"`        // m
	Reflectivity float64 `yaml:"reflectivity"` // 0-1, solar
}

// FurConfig holds the insulation layer.
type FurConfig struct {
	Dorsal               FurSide `yaml:"dorsal"`
	Ventral              FurSide `yaml:"ventral"`
	CompressedDepth      float64 `yaml:"compressed_depth"`      // m, ventral fur under the contact area
	ConductivityOverride float64 `yaml:"conductivity_override"` // W/m/K, > 0 bypasses the fibre model
	KeratinConductivity  float64 `yaml:"keratin_conductivity"`  // W/m/K
}

// EffectorConfig describes one thermoregulatory effector.
type EffectorConfig struct {
	Initial   float64 `yaml:"initial"`
	Max       float64 `yaml:"max"`
	Increment float64 `yaml:"increment"`

	// Enabled is set by normalization. Initial, Max and Increment keep the
	// values as written; the state collapses a disabled ceiling to Initial.
	Enabled bool `yaml:"-"`
}

// PhysiologyConfig holds effectors and metabolic constants.
type PhysiologyConfig struct {
	Posture           EffectorConfig `yaml:"posture"`            // shape elongation ratio
	FleshConductivity EffectorConfig `yaml:"flesh_conductivity"` // W/m/K
	CoreTemp          EffectorConfig `yaml:"core_temp"`          // °C
	Panting           EffectorConfig `yaml:"panting"`            // breathing multiplier, baseline 1
	SkinWetness       EffectorConfig `yaml:"skin_wetness"`       // % of skin area

	Q10                 float64 `yaml:"q10"`
	CoreTempRef         float64 `yaml:"core_temp_ref"`        // °C at which basal_metabolism applies
	BasalMetabolism     float64 `yaml:"basal_metabolism"`     // W, <= 0 means Kleiber estimate
	RespiratoryQuotient float64 `yaml:"respiratory_quotient"` // CO2 produced per O2 consumed
	O2ExtractionPct     float64 `yaml:"o2_extraction_pct"`    // % of inspired O2 taken up
	ExitRH              float64 `yaml:"exit_rh"`              // % relative humidity of exhaled air
	BreathOffset        float64 `yaml:"breath_offset"`        // K, exhaled air above air temperature
}

// SolverConfig holds numeric controls.
type SolverConfig struct {
	Tolerance      float64 `yaml:"tolerance"`       // W, residual energy imbalance accepted
	MaxIterations  int     `yaml:"max_iterations"`  // Newton iterations per solve
	MaxStep        float64 `yaml:"max_step"`        // K, largest temperature change per Newton step
	MaxEscalations int     `yaml:"max_escalations"` // outer policy iterations
}

// DebugConfig controls the side channels around a solve.
type DebugConfig struct {
	Dump     bool   `yaml:"dump"`      // write the bundle before solving
	DumpPath string `yaml:"dump_path"` // CSV path, .gz suffix compresses
	Trace    bool   `yaml:"trace"`     // record every escalation iteration
}

// Default returns the embedded defaults, normalized.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: parsing embedded defaults: %v", err))
	}
	cfg.Normalize()
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse is Load for an in-memory YAML document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize derives effector capability flags. An effector with a zero
// increment, or a ceiling at or below its initial value, is disabled. The
// effector fields themselves are left as written so that a later Set can
// re-enable it.
func (c *Config) Normalize() {
	p := &c.Physiology
	for _, e := range []*EffectorConfig{&p.Posture, &p.FleshConductivity, &p.CoreTemp, &p.Panting, &p.SkinWetness} {
		e.normalize()
	}
	if p.SkinWetness.Max > 100 {
		p.SkinWetness.Max = 100
	}
	if p.Panting.Initial < 1 {
		p.Panting.Initial = 1
		if p.Panting.Max < 1 {
			p.Panting.Max = 1
		}
	}
	if p.CoreTempRef == 0 {
		p.CoreTempRef = p.CoreTemp.Initial
	}
	if c.Body.ContactFrac > c.Body.VentralFrac {
		c.Body.ContactFrac = c.Body.VentralFrac
	}
	if c.Solver.MaxIterations <= 0 {
		c.Solver.MaxIterations = 200
	}
	if c.Solver.MaxStep <= 0 {
		c.Solver.MaxStep = 10
	}
	if c.Solver.MaxEscalations <= 0 {
		c.Solver.MaxEscalations = 5000
	}
}

func (e *EffectorConfig) normalize() {
	e.Enabled = e.Increment > 0 && e.Max > e.Initial
}

// Validate reports the first field that cannot describe a physical body.
func (c *Config) Validate() error {
	b := c.Body
	switch {
	case b.Mass <= 0:
		return fmt.Errorf("%w: body.mass must be positive, got %g", ErrInvalid, b.Mass)
	case b.Density <= 0:
		return fmt.Errorf("%w: body.density must be positive, got %g", ErrInvalid, b.Density)
	case b.Shape < ShapeCylinder || b.Shape > ShapeEllipsoid:
		return fmt.Errorf("%w: body.shape must be 1-4, got %d", ErrInvalid, b.Shape)
	case b.FatPct < 0 || b.FatPct > 100:
		return fmt.Errorf("%w: body.fat_pct must be within 0-100, got %g", ErrInvalid, b.FatPct)
	case b.VentralFrac < 0 || b.VentralFrac > 1:
		return fmt.Errorf("%w: body.ventral_fraction must be within 0-1, got %g", ErrInvalid, b.VentralFrac)
	case c.Physiology.Posture.Initial <= 0:
		return fmt.Errorf("%w: physiology.posture.initial must be positive", ErrInvalid)
	case c.Physiology.FleshConductivity.Initial <= 0:
		return fmt.Errorf("%w: physiology.flesh_conductivity.initial must be positive", ErrInvalid)
	case c.Physiology.SkinWetness.Initial < 0:
		return fmt.Errorf("%w: physiology.skin_wetness.initial must not be negative", ErrInvalid)
	case c.Solver.Tolerance <= 0:
		return fmt.Errorf("%w: solver.tolerance must be positive", ErrInvalid)
	}
	for name, s := range map[string]FurSide{"dorsal": c.Fur.Dorsal, "ventral": c.Fur.Ventral} {
		if s.Depth < 0 || s.Diameter < 0 || s.Length < 0 || s.Density < 0 {
			return fmt.Errorf("%w: fur.%s dimensions must not be negative", ErrInvalid, name)
		}
	}
	return nil
}

// Clone returns a deep copy. The bundle holds no reference types, so a value copy suffices.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
