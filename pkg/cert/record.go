// Package cert defines certificate records and the value types they carry.
package cert

import (
	"strings"

	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
)

// Record is one certificate: a service period for a TIP, an optional
// penalty, and the issuing officer.
type Record struct {
	TIPName           string `yaml:"tip_name" json:"tipName"`
	FromDate          Date   `yaml:"from_date" json:"fromDate"`
	ToDate            Date   `yaml:"to_date" json:"toDate"`
	PenaltyApplicable bool   `yaml:"penalty_applicable" json:"penaltyApplicable"`
	PenaltyAmount     Amount `yaml:"penalty_amount" json:"penaltyAmount"`
	IssuerName        string `yaml:"issuer_name" json:"issuerName"`

	// IssuerSignature is resolved by the caller; nil means no image.
	IssuerSignature *Image `yaml:"-" json:"-"`
}

// Validate checks the record before it enters layout.
// FromDate after ToDate is accepted.
func (r *Record) Validate() error {
	if r.PenaltyApplicable && r.PenaltyAmount.IsNegative() {
		return certerrors.Validationf(certerrors.ErrRecordInvalid,
			"penalty amount %s is negative", r.PenaltyAmount).
			WithContext("tip", r.TIPName)
	}
	if strings.TrimSpace(r.IssuerName) == "" {
		return certerrors.Validation(certerrors.ErrRecordInvalid, "issuer name is empty").
			WithContext("tip", r.TIPName)
	}
	if r.FromDate.IsZero() || r.ToDate.IsZero() {
		return certerrors.Validation(certerrors.ErrRecordInvalid, "service period dates are required").
			WithContext("tip", r.TIPName)
	}
	return nil
}
