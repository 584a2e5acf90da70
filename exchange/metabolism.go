package exchange

import "math"

// Kleiber returns the mammalian basal metabolic rate in W for a mass in kg
// (70·M^0.75 kcal/day).
func Kleiber(mass float64) float64 {
	return 70 * math.Pow(mass, 0.75) * 4184 / 86400
}

// Q10Factor is the multiplicative change in metabolic rate when core
// temperature moves from ref to tc.
func Q10Factor(q10, tc, ref float64) float64 {
	if q10 <= 0 {
		return 1
	}
	return math.Pow(q10, (tc-ref)/10)
}

// BasalRate returns the configured basal rate, falling back to Kleiber when unset.
func BasalRate(basal, mass float64) float64 {
	if basal > 0 {
		return basal
	}
	return Kleiber(mass)
}
