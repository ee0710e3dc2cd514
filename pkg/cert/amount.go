package cert

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
)

// Amount is a money value in minor units (paise).
type Amount int64

// maxWholeRupees keeps whole*100 plus rounded paise within int64.
const maxWholeRupees = (math.MaxInt64 - 100) / 100

// Rupees builds an Amount from whole rupees and paise.
func Rupees(whole int64, paise int64) Amount {
	return Amount(whole*100 + paise)
}

// ParseAmount parses a plain decimal such as "150.5" or "-3". Digits beyond
// the second decimal place round half-up.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, certerrors.Validation(certerrors.ErrAmountInvalid, "empty amount")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" || !allDigits(whole) || !allDigits(frac) {
		return 0, certerrors.Validationf(certerrors.ErrAmountInvalid, "invalid amount %q", s)
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, certerrors.Validationf(certerrors.ErrAmountInvalid, "invalid amount %q", s).WithCause(err)
	}
	if w > maxWholeRupees {
		return 0, certerrors.Validationf(certerrors.ErrAmountInvalid, "amount %q out of range", s)
	}

	frac += "000"
	paise := int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	if frac[2] >= '5' {
		paise++
	}

	v := w*100 + paise
	if neg {
		v = -v
	}
	return Amount(v), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String formats the amount with exactly two decimals.
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool { return a < 0 }

// UnmarshalYAML accepts a YAML number or string.
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseAmount(node.Value)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalYAML writes the amount as a decimal string.
func (a Amount) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// UnmarshalJSON accepts a JSON number or string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*a = 0
		return nil
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.RawMessage(a.String()), nil
}
