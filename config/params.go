package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrUnknownParam is returned by Set and Get for a path that names no numeric field.
var ErrUnknownParam = errors.New("config: unknown parameter")

// Set assigns v to the numeric field addressed by its dotted yaml path,
// e.g. "environment.air_temp" or "physiology.panting.max". Integer fields are
// truncated. Callers should Normalize afterwards.
func (c *Config) Set(path string, v float64) error {
	f, err := c.field(path)
	if err != nil {
		return err
	}
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		f.SetFloat(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f.SetInt(int64(v))
	case reflect.Bool:
		f.SetBool(v != 0)
	default:
		return fmt.Errorf("%w: %s is not numeric", ErrUnknownParam, path)
	}
	return nil
}

// Get returns the numeric field addressed by its dotted yaml path.
func (c *Config) Get(path string) (float64, error) {
	f, err := c.field(path)
	if err != nil {
		return 0, err
	}
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		return f.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(f.Int()), nil
	case reflect.Bool:
		if f.Bool() {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %s is not numeric", ErrUnknownParam, path)
}

func (c *Config) field(path string) (reflect.Value, error) {
	v := reflect.ValueOf(c).Elem()
	for _, part := range strings.Split(path, ".") {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownParam, path)
		}
		next, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownParam, path)
		}
		v = next
	}
	return v, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0]
		if tag == name && tag != "-" {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
