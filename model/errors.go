package model

import "fmt"

// ConfigError reports an input bundle that cannot describe a body. Err is the
// underlying sentinel from config or geometry and can be matched with errors.Is.
type ConfigError struct {
	Component string
	Err       error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("model: invalid %s: %v", e.Component, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
