package gosymopt

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/gosymopt/symbolic"
)

// Document is a serializable problem description. Expressions use the
// symbolic package's JSON tree format.
type Document struct {
	Sense       string               `json:"sense,omitempty" yaml:"sense,omitempty" validate:"omitempty,oneof=min max"`
	Variables   []VariableDocument   `json:"variables" yaml:"variables" validate:"required,min=1,dive"`
	Objective   ObjectiveDocument    `json:"objective" yaml:"objective" validate:"required"`
	Constraints []ConstraintDocument `json:"constraints,omitempty" yaml:"constraints,omitempty" validate:"omitempty,dive"`
	Settings    *SettingsDocument    `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// VariableDocument describes one variable. Missing bounds are infinite.
type VariableDocument struct {
	Name    string   `json:"name" yaml:"name" validate:"required"`
	Symbol  string   `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Value   float64  `json:"value,omitempty" yaml:"value,omitempty"`
	Lower   *float64 `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper   *float64 `json:"upper,omitempty" yaml:"upper,omitempty"`
	Passive bool     `json:"passive,omitempty" yaml:"passive,omitempty"`
}

type ObjectiveDocument struct {
	Expr         map[string]interface{} `json:"expr" yaml:"expr" validate:"required"`
	AutoJacobian *bool                  `json:"auto_jacobian,omitempty" yaml:"auto_jacobian,omitempty"`
}

type ConstraintDocument struct {
	Expr     map[string]interface{} `json:"expr" yaml:"expr" validate:"required"`
	Relation string                 `json:"type" yaml:"type" validate:"required"`
	Passive  bool                   `json:"passive,omitempty" yaml:"passive,omitempty"`
}

type SettingsDocument struct {
	Method              string  `json:"method,omitempty" yaml:"method,omitempty"`
	MaxIterations       int     `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty" validate:"gte=0"`
	GradientTolerance   float64 `json:"gradient_tolerance,omitempty" yaml:"gradient_tolerance,omitempty" validate:"gte=0"`
	ConstraintTolerance float64 `json:"constraint_tolerance,omitempty" yaml:"constraint_tolerance,omitempty" validate:"gte=0"`
}

var validate = validator.New()

// LoadDocument reads a problem file. ".yaml" and ".yml" files are parsed as
// YAML, everything else as JSON.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	doc, err := ParseDocument(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument decodes and validates a document. format is "json" or "yaml".
func ParseDocument(data []byte, format string) (*Document, error) {
	var doc Document
	switch format {
	case "json":
		dec := json.NewDecoder(strings.NewReader(string(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return &doc, nil
}

// Build creates the Problem the document describes.
func (d *Document) Build(opts ...Option) (*Problem, error) {
	sense, err := ParseOptType(d.Sense)
	if err != nil {
		return nil, err
	}
	if d.Settings != nil {
		method, err := ParseMethod(d.Settings.Method)
		if err != nil {
			return nil, err
		}
		s := DefaultSettings()
		if d.Settings.MaxIterations > 0 {
			s.MaxIterations = d.Settings.MaxIterations
		}
		if d.Settings.GradientTolerance > 0 {
			s.GradientTolerance = d.Settings.GradientTolerance
		}
		if d.Settings.ConstraintTolerance > 0 {
			s.ConstraintTolerance = d.Settings.ConstraintTolerance
		}
		opts = append([]Option{WithMethod(method), WithSettings(s)}, opts...)
	}
	p := New(append([]Option{WithOptType(sense)}, opts...)...)

	for _, vd := range d.Variables {
		vopts := []VariableOption{Value(vd.Value), Bounds(boundOr(vd.Lower, math.Inf(-1)), boundOr(vd.Upper, math.Inf(1)))}
		if vd.Symbol != "" {
			vopts = append(vopts, Symbol(vd.Symbol))
		}
		if vd.Passive {
			vopts = append(vopts, Passive())
		}
		if _, err := p.AddVariable(vd.Name, vopts...); err != nil {
			return nil, err
		}
	}

	obj, err := symbolic.FromJSON(d.Objective.Expr)
	if err != nil {
		return nil, fmt.Errorf("objective: %w", err)
	}
	auto := d.Objective.AutoJacobian == nil || *d.Objective.AutoJacobian
	p.SetObjectiveExpr(obj, auto)

	for i, cd := range d.Constraints {
		expr, err := symbolic.FromJSON(cd.Expr)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		var copts []ConstraintOption
		if cd.Passive {
			copts = append(copts, ConstraintPassive())
		}
		if _, err := p.AddConstraintExpr(expr, Relation(cd.Relation), copts...); err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	return p, nil
}

func boundOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
