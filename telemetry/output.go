package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/endotherm/config"
)

// OutputManager writes result and trace tables for callers running many solves.
type OutputManager struct {
	dir         string
	resultsFile *os.File
	traceFile   *os.File

	// Track if headers have been written
	resultsHeaderWritten bool
	traceHeaderWritten   bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "results.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating results.csv: %w", err)
	}
	om.resultsFile = f

	f, err = os.Create(filepath.Join(dir, "trace.csv"))
	if err != nil {
		om.resultsFile.Close()
		return nil, fmt.Errorf("creating trace.csv: %w", err)
	}
	om.traceFile = f

	return om, nil
}

// WriteConfig saves a configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteResults appends rows to results.csv. rows must be a slice of csv-tagged structs.
func (om *OutputManager) WriteResults(rows interface{}) error {
	if om == nil {
		return nil
	}

	if !om.resultsHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(rows, om.resultsFile); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
		om.resultsHeaderWritten = true
	} else {
		// Subsequent writes skip headers
		if err := gocsv.MarshalWithoutHeaders(rows, om.resultsFile); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
	}

	return nil
}

// WriteTrace appends escalation events to trace.csv.
func (om *OutputManager) WriteTrace(events []EscalationEvent) error {
	if om == nil || len(events) == 0 {
		return nil
	}

	if !om.traceHeaderWritten {
		if err := gocsv.Marshal(events, om.traceFile); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		om.traceHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(events, om.traceFile); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}

	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.resultsFile != nil {
		if err := om.resultsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.traceFile != nil {
		if err := om.traceFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
