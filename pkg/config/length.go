package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
	"github.com/r3d91ll/qoscert/pkg/layout"
)

// Length is a distance written with a unit, e.g. "2cm", "12pt", "10mm" or
// "1in". A bare number means points.
type Length struct {
	Value float64
	Unit  string
}

// Cm builds a Length in centimetres.
func Cm(v float64) Length { return Length{Value: v, Unit: "cm"} }

// Pt builds a Length in points.
func Pt(v float64) Length { return Length{Value: v, Unit: "pt"} }

var unitPoints = map[string]float64{
	"pt": 1,
	"cm": layout.Centimeter,
	"mm": layout.Centimeter / 10,
	"in": 72,
}

// ParseLength parses a length with an optional unit suffix.
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	unit := "pt"
	for u := range unitPoints {
		if strings.HasSuffix(s, u) {
			unit = u
			s = strings.TrimSpace(strings.TrimSuffix(s, u))
			break
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Length{}, fmt.Errorf("invalid length %q", s)
	}
	return Length{Value: v, Unit: unit}, nil
}

// Points converts the length to PDF points.
func (l Length) Points() float64 {
	f, ok := unitPoints[l.Unit]
	if !ok {
		f = 1
	}
	return l.Value * f
}

// String renders the length with its unit.
func (l Length) String() string {
	unit := l.Unit
	if unit == "" {
		unit = "pt"
	}
	return strconv.FormatFloat(l.Value, 'g', -1, 64) + unit
}

// UnmarshalYAML accepts "2cm" style strings and bare numbers.
func (l *Length) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseLength(node.Value)
	if err != nil {
		return certerrors.ConfigWrap(err, certerrors.ErrConfigParseFailed, "invalid length").
			WithContext("line", strconv.Itoa(node.Line))
	}
	*l = v
	return nil
}

// MarshalYAML writes the length with its unit.
func (l Length) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}
