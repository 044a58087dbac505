// Package validator checks intent spec documents against the output schema.
package validator

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/example/intentspec/internal/generator"
)

var selectorPattern = regexp.MustCompile(`^0x[0-9a-f]{8}$`)

// New returns a validator that reports fields by their JSON names and knows
// the "selector" rule.
func New() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("selector", func(fl validator.FieldLevel) bool {
		return selectorPattern.MatchString(fl.Field().String())
	})

	return v
}

var validate = New()

// FieldError is one failed rule.
type FieldError struct {
	Field string
	Rule  string
}

// Error lists every failed rule of a document.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Rule)
	}
	return "invalid intent spec: " + strings.Join(parts, "; ")
}

// Document validates spec and returns *Error when any rule fails.
func Document(spec *generator.IntentSpec) error {
	if spec == nil {
		return errors.New("nil intent spec")
	}

	err := validate.Struct(spec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.WithStack(err)
	}

	out := &Error{}
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		out.Fields = append(out.Fields, FieldError{Field: field, Rule: fe.Tag()})
	}
	return out
}

// Report summarises a validated document.
type Report struct {
	Path       string
	Contract   string
	Functions  int
	Selectors  int
	Events     int
	Invariants int
}

// ValidateFile decodes a JSON or YAML document and validates it. Unknown
// fields are rejected. The format follows the file extension; anything other
// than .yaml or .yml is read as JSON.
func ValidateFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("failed to read file: %w", err)
	}

	spec, err := decode(data, filepath.Ext(path))
	if err != nil {
		return nil, errors.Errorf("%s: %w", path, err)
	}

	if err := Document(spec); err != nil {
		return nil, errors.Errorf("%s: %w", path, err)
	}

	r := &Report{
		Path:       path,
		Contract:   spec.Contract.Name,
		Functions:  len(spec.Functions),
		Events:     len(spec.Events),
		Invariants: len(spec.Invariants),
	}
	for _, fn := range spec.Functions {
		if fn.Signature != "" {
			r.Selectors++
		}
	}
	return r, nil
}

func decode(data []byte, ext string) (*generator.IntentSpec, error) {
	var spec generator.IntentSpec

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return nil, errors.Errorf("failed to parse YAML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, errors.Errorf("failed to parse JSON: %w", err)
		}
	}

	return &spec, nil
}
