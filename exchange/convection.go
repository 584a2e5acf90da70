package exchange

import (
	"math"

	"github.com/pthm-cable/endotherm/config"
	"github.com/pthm-cable/endotherm/psychro"
)

const gravity = 9.80665

// minNusselt is the still-air conduction limit.
const minNusselt = 2.0

// forced holds Nu = a·Re^b coefficients per shape class.
var forced = map[int][2]float64{
	config.ShapeCylinder:  {0.193, 0.618},
	config.ShapeSphere:    {0.37, 0.6},
	config.ShapePlate:     {0.102, 0.675},
	config.ShapeEllipsoid: {0.35, 0.6},
}

// free holds Nu = c·(Gr·Pr)^¼ coefficients per shape class.
var free = map[int]float64{
	config.ShapeCylinder:  0.53,
	config.ShapeSphere:    0.58,
	config.ShapePlate:     0.54,
	config.ShapeEllipsoid: 0.53,
}

// Transfer holds heat and mass transfer coefficients for one surface.
type Transfer struct {
	Heat float64 // W/m²/K
	Mass float64 // m/s
}

// Coefficients returns combined free and forced convection coefficients for a
// surface at ts in air at ta moving at wind m/s, characteristic dimension d.
func Coefficients(shape int, d, ts, ta, wind, pressure float64) Transfer {
	film := (ts + ta) / 2
	air := psychro.Air(film, pressure)
	cp := psychro.CpAir
	pr := cp * air.Viscosity / air.Conductivity

	re := wind * d / air.Kinematic
	fc := forced[shape]
	nuForced := fc[0] * math.Pow(re, fc[1])

	gr := gravity * air.Expansion * math.Abs(ts-ta) * d * d * d / (air.Kinematic * air.Kinematic)
	nuFree := free[shape] * math.Pow(gr*pr, 0.25)

	nu := math.Max(nuForced+nuFree, minNusselt)
	hc := nu * air.Conductivity / d

	// Lewis analogy
	le := air.Conductivity / (air.Density * cp * air.VapourDiff)
	hd := hc / (air.Density * cp * math.Pow(le, 2.0/3.0))
	return Transfer{Heat: hc, Mass: hd}
}
