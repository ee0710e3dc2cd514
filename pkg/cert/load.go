package cert

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
)

// Entry is a record as written in a records file. Signature names the
// issuer's signature either as an image/base64 file path or as a roster
// mobile number; resolving it is left to the caller.
type Entry struct {
	Record    `yaml:",inline"`
	Signature string `yaml:"signature,omitempty" json:"signature,omitempty"`
}

// Batch is the top-level shape of a records file.
type Batch struct {
	// CounterSignature optionally overrides the configured counter-signature.
	CounterSignature string  `yaml:"counter_signature,omitempty" json:"counterSignature,omitempty"`
	Records          []Entry `yaml:"records" json:"records"`
}

// LoadRecords reads and validates a YAML records file.
func LoadRecords(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, certerrors.IOWrap(err, certerrors.ErrIOReadFailed, "records file not found").
				WithContext("path", path)
		}
		return nil, certerrors.IOWrap(err, certerrors.ErrIOReadFailed, "failed to open records file").
			WithContext("path", path)
	}
	defer f.Close()

	batch, err := DecodeRecords(f)
	if err != nil {
		if ce, ok := certerrors.AsCertError(err); ok {
			ce.WithContext("path", path)
		}
		return nil, err
	}
	return batch, nil
}

// DecodeRecords decodes a records document and validates every record.
func DecodeRecords(r io.Reader) (*Batch, error) {
	var batch Batch
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&batch); err != nil {
		if err == io.EOF {
			return &batch, nil
		}
		if ce, ok := certerrors.AsCertError(err); ok {
			return nil, ce
		}
		return nil, certerrors.Wrap(err, certerrors.ErrRecordParseFailed, certerrors.CategoryValidation,
			"failed to parse records")
	}

	for i := range batch.Records {
		if err := batch.Records[i].Validate(); err != nil {
			if ce, ok := certerrors.AsCertError(err); ok {
				ce.WithContext("index", fmt.Sprint(i))
			}
			return nil, err
		}
	}
	return &batch, nil
}

// Plain returns the records without their signature references.
func (b *Batch) Plain() []Record {
	out := make([]Record, len(b.Records))
	for i, e := range b.Records {
		out[i] = e.Record
	}
	return out
}
