package cert

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{"150.5", 15050},
		{"150.50", 15050},
		{"0", 0},
		{"12", 1200},
		{".5", 50},
		{"1,250.75", 125075},
		{"₹99.99", 9999},
		{"0.005", 1},
		{"0.0049", 0},
		{"2.999", 300},
		{"-3", -300},
		{" 7.1 ", 710},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if err != nil {
				t.Fatalf("ParseAmount(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "1e3", ".", "-",
		// Whole parts that fit int64 but overflow once scaled to paise.
		"100000000000000000", "-92233720368547758.07", "99999999999999999999"} {
		if _, err := ParseAmount(in); !certerrors.IsCode(err, certerrors.ErrAmountInvalid) {
			t.Errorf("ParseAmount(%q) error = %v, want AMOUNT_INVALID", in, err)
		}
	}
}

func TestParseAmountLargestWhole(t *testing.T) {
	got, err := ParseAmount("92233720368547757.99")
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	if got <= 0 || got.String() != "92233720368547757.99" {
		t.Errorf("ParseAmount = %d (%s)", int64(got), got)
	}
}

func TestAmountString(t *testing.T) {
	tests := map[Amount]string{
		0:      "0.00",
		5:      "0.05",
		15050:  "150.50",
		-250:   "-2.50",
		100000: "1000.00",
	}
	for a, want := range tests {
		if got := a.String(); got != want {
			t.Errorf("Amount(%d).String() = %q, want %q", int64(a), got, want)
		}
	}
	if Rupees(150, 50) != 15050 {
		t.Error("Rupees(150, 50) should be 15050 paise")
	}
}

func TestAmountJSON(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.5, "b": "3"}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != 1250 || v.B != 300 {
		t.Errorf("got %d, %d", v.A, v.B)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"a":12.50,"b":3.00}` {
		t.Errorf("Marshal = %s", out)
	}
}

func TestParseDate(t *testing.T) {
	want := NewDate(2024, time.March, 5)
	for _, in := range []string{"2024-03-05", "05-03-2024"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseDate("March 5"); !certerrors.IsCode(err, certerrors.ErrDateInvalid) {
		t.Errorf("expected DATE_INVALID, got %v", err)
	}
}

func TestDateFormat(t *testing.T) {
	d := NewDate(2024, time.January, 9)
	if got := d.Format(""); got != "09-01-2024" {
		t.Errorf("Format default = %q", got)
	}
	if got := d.Format("2006/01/02"); got != "2024/01/09" {
		t.Errorf("Format custom = %q", got)
	}
	if !d.Before(NewDate(2024, time.January, 10)) {
		t.Error("Before should be true for the next day")
	}
}

func TestImageAspectRatio(t *testing.T) {
	img := NewImage("sig", []byte{1, 2, 3}, "png", 200, 50)
	if img.AspectRatio() != 0.25 {
		t.Errorf("AspectRatio = %v", img.AspectRatio())
	}
	if len(img.Hash) != 64 {
		t.Errorf("Hash length = %d", len(img.Hash))
	}
	var none *Image
	if none.AspectRatio() != 0 || none.Usable() {
		t.Error("nil image should have zero ratio and be unusable")
	}
}

func TestRecordValidate(t *testing.T) {
	base := Record{
		TIPName:    "Acme",
		FromDate:   NewDate(2024, 1, 1),
		ToDate:     NewDate(2024, 1, 31),
		IssuerName: "R. Kumar",
	}

	tests := []struct {
		name    string
		mutate  func(r *Record)
		wantErr bool
	}{
		{"valid", func(r *Record) {}, false},
		{"penalty", func(r *Record) { r.PenaltyApplicable = true; r.PenaltyAmount = 100 }, false},
		{"negative penalty", func(r *Record) { r.PenaltyApplicable = true; r.PenaltyAmount = -1 }, true},
		{"negative ignored when not applicable", func(r *Record) { r.PenaltyAmount = -1 }, false},
		{"empty issuer", func(r *Record) { r.IssuerName = "  " }, true},
		{"reversed dates", func(r *Record) { r.FromDate, r.ToDate = r.ToDate, r.FromDate }, false},
		{"missing date", func(r *Record) { r.ToDate = Date{} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !certerrors.IsCode(err, certerrors.ErrRecordInvalid) {
				t.Errorf("expected RECORD_INVALID, got %v", err)
			}
		})
	}
}

const sampleRecords = `
counter_signature: assets/mt_sign.b64
records:
  - tip_name: acme_networks
    from_date: 2024-01-01
    to_date: 2024-01-31
    penalty_applicable: true
    penalty_amount: 1500.5
    issuer_name: R. Kumar
    signature: "9891055443"
  - tip_name: M/S Beta
    from_date: 01-02-2024
    to_date: 29-02-2024
    issuer_name: S. Rao
`

func TestDecodeRecords(t *testing.T) {
	batch, err := DecodeRecords(strings.NewReader(sampleRecords))
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	if batch.CounterSignature != "assets/mt_sign.b64" {
		t.Errorf("CounterSignature = %q", batch.CounterSignature)
	}
	if len(batch.Records) != 2 {
		t.Fatalf("got %d records", len(batch.Records))
	}
	first := batch.Records[0]
	if first.TIPName != "acme_networks" || first.PenaltyAmount != 150050 || first.Signature != "9891055443" {
		t.Errorf("unexpected first entry %+v", first)
	}
	if batch.Records[1].FromDate != NewDate(2024, time.February, 1) {
		t.Errorf("FromDate = %v", batch.Records[1].FromDate)
	}
	if plain := batch.Plain(); len(plain) != 2 || plain[1].IssuerName != "S. Rao" {
		t.Errorf("Plain() = %+v", plain)
	}
}

func TestDecodeRecordsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"bad yaml", "records: [", certerrors.ErrRecordParseFailed},
		{"unknown field", "records:\n  - tip: x\n", certerrors.ErrRecordParseFailed},
		{"bad amount", "records:\n  - tip_name: a\n    penalty_amount: lots\n", certerrors.ErrAmountInvalid},
		{"bad date", "records:\n  - tip_name: a\n    from_date: soon\n", certerrors.ErrDateInvalid},
		{"negative penalty", `records:
  - tip_name: a
    from_date: 2024-01-01
    to_date: 2024-01-02
    penalty_applicable: true
    penalty_amount: -5
    issuer_name: X
`, certerrors.ErrRecordInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecords(strings.NewReader(tt.doc))
			if !certerrors.IsCode(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestDecodeRecordsEmpty(t *testing.T) {
	batch, err := DecodeRecords(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Records) != 0 {
		t.Errorf("expected no records, got %d", len(batch.Records))
	}
}

func TestDateYAMLRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(struct {
		D Date   `yaml:"d"`
		A Amount `yaml:"a"`
	}{NewDate(2024, 12, 25), 1999})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "d: \"2024-12-25\"") && !strings.Contains(string(out), "d: 2024-12-25") {
		t.Errorf("unexpected yaml %s", out)
	}
}
