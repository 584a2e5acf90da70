package telemetry

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/gzip"

	"github.com/pthm-cable/endotherm/config"
)

// Param is one row of the flattened input bundle.
type Param struct {
	Name  string `csv:"name"`
	Value string `csv:"value"`
}

// Flatten walks a yaml-tagged struct and returns one Param per leaf field,
// named by its dotted yaml path. Fields tagged `yaml:"-"` are skipped.
func Flatten(v interface{}) []Param {
	var out []Param
	flatten(reflect.ValueOf(v), "", &out)
	return out
}

func flatten(v reflect.Value, prefix string, out *[]Param) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		*out = append(*out, Param{Name: prefix, Value: formatValue(v)})
		return
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strings.Split(field.Tag.Get("yaml"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		flatten(v.Field(i), name, out)
	}
}

func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.String:
		return v.String()
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// DumpConfig writes the flattened bundle as a name,value CSV. A path ending
// in .gz is gzip-compressed. The solve id, when given, is the first row.
func DumpConfig(path string, cfg *config.Config, solveID string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dump file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing dump file: %w", cerr)
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		zw := gzip.NewWriter(f)
		defer func() {
			if cerr := zw.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("compressing dump: %w", cerr)
			}
		}()
		w = zw
	}

	rows := Flatten(cfg)
	if solveID != "" {
		rows = append([]Param{{Name: "solve_id", Value: solveID}}, rows...)
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing dump: %w", err)
	}
	return nil
}

// ReadDump reads a dump written by DumpConfig.
func ReadDump(path string) ([]Param, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("decompressing dump: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var rows []Param
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading dump: %w", err)
	}
	return rows, nil
}
