package main

import (
	"fmt"
	"math"

	"github.com/pthm-cable/endotherm/config"
)

// ParamSpec defines one swept parameter.
type ParamSpec struct {
	Path string  // dotted yaml path, e.g. environment.air_temp
	From float64 // first value
	To   float64 // last value, inclusive
	Step float64 // increment, sign is taken from From and To
}

// Values returns the grid of values From..To.
func (ps ParamSpec) Values() ([]float64, error) {
	if ps.Step == 0 {
		return nil, fmt.Errorf("step must be non-zero")
	}
	step := math.Abs(ps.Step)
	if ps.To < ps.From {
		step = -step
	}
	n := int(math.Floor((ps.To-ps.From)/step+1e-9)) + 1
	values := make([]float64, n)
	for i := range values {
		values[i] = ps.From + float64(i)*step
	}
	return values, nil
}

// Configs builds one bundle per grid value from a base bundle.
func (ps ParamSpec) Configs(base *config.Config) ([]*config.Config, []float64, error) {
	if _, err := base.Get(ps.Path); err != nil {
		return nil, nil, err
	}
	values, err := ps.Values()
	if err != nil {
		return nil, nil, err
	}
	cfgs := make([]*config.Config, len(values))
	for i, v := range values {
		c := base.Clone()
		if err := c.Set(ps.Path, v); err != nil {
			return nil, nil, err
		}
		c.Normalize()
		cfgs[i] = c
	}
	return cfgs, values, nil
}
