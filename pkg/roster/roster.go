// Package roster loads the officer roster and authenticates logins.
//
// The roster is a CSV with a header row. Columns are matched by name
// (mobile, bbm_name, tip_name, mt_name, pin); the first three fall back to
// position when the header does not name them. One row assigns one TIP to
// an officer, so an officer with several TIPs appears on several rows.
package roster

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
)

// DefaultPINs are used for officers whose row carries no PIN.
var DefaultPINs = map[string]string{
	"9891055443": "3848",
	"9493432333": "3667",
	"9441131108": "2675",
}

// Options controls defaults applied while loading.
type Options struct {
	// DefaultPIN applies when neither the row nor PINs supply one.
	DefaultPIN string
	// PINs maps mobile numbers to PINs for rows without one.
	PINs map[string]string
	// DefaultMTName applies when the mt_name column is empty.
	DefaultMTName string
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{DefaultPIN: "0000", PINs: DefaultPINs, DefaultMTName: "Manager(MT)"}
}

// User is one officer and the TIPs they certify.
type User struct {
	Mobile string
	Name   string
	MTName string
	TIPs   []string

	pinHash string
}

// Roster is an immutable set of users keyed by mobile number.
type Roster struct {
	users    map[string]*User
	order    []string
	Encoding string
}

// Load reads a roster file.
func Load(path string, opts Options) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, certerrors.RosterWrap(err, certerrors.ErrRosterNotFound, "roster file not found").
				WithContext("path", path)
		}
		return nil, certerrors.IOWrap(err, certerrors.ErrIOReadFailed, "failed to read roster").
			WithContext("path", path)
	}
	r, err := Decode(data, opts)
	if err != nil {
		if ce, ok := certerrors.AsCertError(err); ok {
			ce.WithContext("path", path)
		}
		return nil, err
	}
	return r, nil
}

type decoder struct {
	name   string
	decode func([]byte) (string, bool)
}

// cp1252 leaves five byte values undefined; Python's codec rejects them
// and so do we, which hands those files to latin1.
func isCP1252(b []byte) bool {
	for _, c := range b {
		switch c {
		case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
			return false
		}
	}
	return true
}

var decoders = []decoder{
	{"utf-8", func(b []byte) (string, bool) {
		if bytes.HasPrefix(b, []byte("\xEF\xBB\xBF")) || !utf8.Valid(b) {
			return "", false
		}
		return string(b), true
	}},
	{"utf-8-sig", func(b []byte) (string, bool) {
		b = bytes.TrimPrefix(b, []byte("\xEF\xBB\xBF"))
		if !utf8.Valid(b) {
			return "", false
		}
		return string(b), true
	}},
	{"cp1252", func(b []byte) (string, bool) {
		if !isCP1252(b) {
			return "", false
		}
		s, err := charmap.Windows1252.NewDecoder().Bytes(b)
		return string(s), err == nil
	}},
	{"latin1", func(b []byte) (string, bool) {
		s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		return string(s), err == nil
	}},
}

// Decode parses roster CSV bytes, trying utf-8, utf-8 with BOM, cp1252 and
// latin1 in that order.
func Decode(data []byte, opts Options) (*Roster, error) {
	for _, d := range decoders {
		text, ok := d.decode(data)
		if !ok {
			continue
		}
		r, err := parse(strings.NewReader(text), opts)
		if err != nil {
			return nil, err
		}
		r.Encoding = d.name
		return r, nil
	}
	return nil, certerrors.Roster(certerrors.ErrRosterEncoding, "unable to decode roster CSV")
}

func parse(in io.Reader, opts Options) (*Roster, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return &Roster{users: map[string]*User{}}, nil
	}
	if err != nil {
		return nil, certerrors.RosterWrap(err, certerrors.ErrRosterParseFailed, "failed to read roster header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	r := &Roster{users: make(map[string]*User)}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, certerrors.RosterWrap(err, certerrors.ErrRosterParseFailed, "malformed roster row")
		}

		field := func(name string, pos int) string {
			i, ok := cols[name]
			if !ok {
				i = pos
			}
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		mobile, ok := normalizeMobile(field("mobile", 0))
		if !ok {
			continue
		}
		u, exists := r.users[mobile]
		if !exists {
			mt := field("mt_name", -1)
			if mt == "" {
				mt = opts.DefaultMTName
			}
			pin := field("pin", -1)
			if pin == "" {
				pin = opts.PINs[mobile]
			}
			if pin == "" {
				pin = opts.DefaultPIN
			}
			hash, err := hashPIN(pin)
			if err != nil {
				return nil, certerrors.RosterWrap(err, certerrors.ErrRosterParseFailed, "failed to hash PIN")
			}
			u = &User{Mobile: mobile, Name: field("bbm_name", 1), MTName: mt, pinHash: hash}
			r.users[mobile] = u
			r.order = append(r.order, mobile)
		}
		if tip := field("tip_name", 2); tip != "" {
			u.TIPs = append(u.TIPs, tip)
		}
	}
	return r, nil
}

// normalizeMobile accepts digits or spreadsheet-style floats ("9.89e9").
func normalizeMobile(raw string) (string, bool) {
	if raw == "" || raw[0] < '0' || raw[0] > '9' {
		return "", false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(int64(f), 10), true
}

// User returns the user registered under mobile.
func (r *Roster) User(mobile string) (*User, bool) {
	u, ok := r.users[strings.TrimSpace(mobile)]
	return u, ok
}

// Users returns users in the order they first appear in the file.
func (r *Roster) Users() []*User {
	out := make([]*User, 0, len(r.order))
	for _, m := range r.order {
		out = append(out, r.users[m])
	}
	return out
}

// Len returns the number of users.
func (r *Roster) Len() int { return len(r.users) }

var (
	dummyOnce sync.Once
	dummyHash string
)

// Authenticate checks a mobile and PIN. Unknown mobiles still pay for one
// hash comparison.
func (r *Roster) Authenticate(mobile, pin string) (*User, error) {
	u, ok := r.User(mobile)
	if !ok {
		dummyOnce.Do(func() { dummyHash, _ = hashPIN("") })
		verifyPIN(pin, dummyHash)
		return nil, certerrors.Auth(certerrors.ErrAuthInvalidCredentials, "invalid mobile or PIN")
	}
	if !verifyPIN(pin, u.pinHash) {
		return nil, certerrors.Auth(certerrors.ErrAuthInvalidCredentials, "invalid mobile or PIN")
	}
	return u, nil
}
