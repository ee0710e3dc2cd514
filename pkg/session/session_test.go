package session

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3d91ll/qoscert/pkg/cert"
	"github.com/r3d91ll/qoscert/pkg/clock"
	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
	"github.com/r3d91ll/qoscert/pkg/roster"
)

const testRoster = `mobile,bbm_name,tip_name,mt_name,pin
9000000001,Ravi Kumar,TIP Alpha,,1111
9000000001,Ravi Kumar,TIP Beta,,1111
9000000002,Sita Rao,,,2222
`

type fakeSignatures struct {
	issuer  *cert.Image
	counter *cert.Image
}

func (f fakeSignatures) Issuer(string) (*cert.Image, error) {
	if f.issuer == nil {
		return nil, certerrors.Asset(certerrors.ErrAssetNotFound, "missing")
	}
	return f.issuer, nil
}

func (f fakeSignatures) CounterSignature() (*cert.Image, error) {
	if f.counter == nil {
		return nil, certerrors.Asset(certerrors.ErrAssetNotFound, "missing")
	}
	return f.counter, nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T, sigs Signatures, opts Options) *Manager {
	t.Helper()
	r, err := roster.Decode([]byte(testRoster), roster.DefaultOptions())
	require.NoError(t, err)
	return NewManager(r, sigs, opts)
}

func draft(tip string) Draft {
	return Draft{
		TIPName:  tip,
		FromDate: cert.NewDate(2024, time.January, 1),
		ToDate:   cert.NewDate(2024, time.January, 31),
	}
}

// -----------------------------------------------------------------------------
// Login Tests
// -----------------------------------------------------------------------------

func TestLogin(t *testing.T) {
	m := newTestManager(t, nil, Options{})

	s, err := m.Login("9000000001", "1111")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, []string{"TIP Alpha", "TIP Beta"}, s.PendingTIPs())
	assert.False(t, s.Ready())
	assert.Equal(t, 1, m.Len())

	_, err = m.Login("9000000001", "9999")
	assert.True(t, certerrors.IsCode(err, certerrors.ErrAuthInvalidCredentials))
	assert.Equal(t, 1, m.Len())
}

func TestLogin_PendingIsACopy(t *testing.T) {
	m := newTestManager(t, nil, Options{})
	s, err := m.Login("9000000001", "1111")
	require.NoError(t, err)

	_, err = m.AddCertificate(s.ID, draft("TIP Alpha"))
	require.NoError(t, err)
	assert.Equal(t, []string{"TIP Alpha", "TIP Beta"}, s.User.TIPs)
}

// -----------------------------------------------------------------------------
// AddCertificate Tests
// -----------------------------------------------------------------------------

func TestAddCertificate(t *testing.T) {
	sig := cert.NewImage("9000000001", []byte("img"), "png", 40, 10)
	m := newTestManager(t, fakeSignatures{issuer: sig}, Options{})
	s, err := m.Login("9000000001", "1111")
	require.NoError(t, err)

	d := draft("TIP Beta")
	d.PenaltyAmount = cert.Rupees(50, 0)
	r, err := m.AddCertificate(s.ID, d)
	require.NoError(t, err)

	assert.Equal(t, "Ravi Kumar", r.IssuerName)
	assert.Same(t, sig, r.IssuerSignature)
	assert.Equal(t, cert.Amount(0), r.PenaltyAmount, "amount is dropped when no penalty applies")
	assert.Equal(t, []string{"TIP Alpha"}, s.PendingTIPs())
	assert.Len(t, s.Certificates(), 1)
}

func TestAddCertificate_Errors(t *testing.T) {
	m := newTestManager(t, nil, Options{})
	s, err := m.Login("9000000001", "1111")
	require.NoError(t, err)

	tests := []struct {
		name  string
		draft Draft
		code  string
	}{
		{"unknown tip", draft("TIP Zeta"), certerrors.ErrSessionTIPNotPending},
		{"negative penalty", func() Draft {
			d := draft("TIP Alpha")
			d.PenaltyApplicable = true
			d.PenaltyAmount = cert.Amount(-100)
			return d
		}(), certerrors.ErrRecordInvalid},
		{"missing dates", Draft{TIPName: "TIP Alpha"}, certerrors.ErrRecordInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.AddCertificate(s.ID, tt.draft)
			require.Error(t, err)
			assert.True(t, certerrors.IsCode(err, tt.code), err.Error())
		})
	}
	assert.Equal(t, []string{"TIP Alpha", "TIP Beta"}, s.PendingTIPs())

	_, err = m.AddCertificate(s.ID, draft("TIP Alpha"))
	require.NoError(t, err)
	_, err = m.AddCertificate(s.ID, draft("TIP Alpha"))
	assert.True(t, certerrors.IsCode(err, certerrors.ErrSessionTIPNotPending))
}

func TestAddCertificate_UnknownSession(t *testing.T) {
	m := newTestManager(t, nil, Options{})
	_, err := m.AddCertificate("nope", draft("TIP Alpha"))
	assert.True(t, certerrors.IsCode(err, certerrors.ErrSessionNotFound))
}

// -----------------------------------------------------------------------------
// Finish Tests
// -----------------------------------------------------------------------------

func TestFinish(t *testing.T) {
	at := time.Date(2024, 2, 1, 9, 5, 0, 0, time.UTC)
	rec := &recorder{}
	m := newTestManager(t, fakeSignatures{}, Options{Clock: clock.FixedClock{T: at}, Publisher: rec})

	s, err := m.Login("9000000001", "1111")
	require.NoError(t, err)

	_, err = m.Finish(context.Background(), s.ID)
	assert.True(t, certerrors.IsCode(err, certerrors.ErrSessionNotReady))

	for _, tip := range s.PendingTIPs() {
		_, err := m.AddCertificate(s.ID, draft(tip))
		require.NoError(t, err)
	}
	assert.True(t, s.Ready())

	res, err := m.Finish(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(res.PDF, []byte("%PDF-1.4")))
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "QoS_Certificates_20240201_0905.pdf", res.Filename)
	assert.Len(t, res.Fingerprint, 64)
	assert.Equal(t, 0, m.Len())

	_, err = m.Finish(context.Background(), s.ID)
	assert.True(t, certerrors.IsCode(err, certerrors.ErrSessionNotFound))

	assert.Equal(t, []string{EventLoggedIn, EventCertificateAdded, EventCertificateAdded, EventDocumentRendered}, rec.types())
}

func TestFinish_Empty(t *testing.T) {
	m := newTestManager(t, nil, Options{})
	s, err := m.Login("9000000002", "2222")
	require.NoError(t, err)
	assert.True(t, s.Ready())

	_, err = m.Finish(context.Background(), s.ID)
	assert.True(t, certerrors.IsCode(err, certerrors.ErrSessionEmpty))
}

func TestFinish_CancelledContext(t *testing.T) {
	m := newTestManager(t, nil, Options{})
	s, err := m.Login("9000000001", "1111")
	require.NoError(t, err)
	for _, tip := range s.PendingTIPs() {
		_, err := m.AddCertificate(s.ID, draft(tip))
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Finish(ctx, s.ID)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, m.Len())
}

func TestFinish_SameSessionTwiceIsDeterministic(t *testing.T) {
	at := time.Date(2024, 2, 1, 9, 5, 0, 0, time.UTC)

	render := func() *Result {
		m := newTestManager(t, nil, Options{Clock: clock.FixedClock{T: at}})
		s, err := m.Login("9000000001", "1111")
		require.NoError(t, err)
		for _, tip := range s.PendingTIPs() {
			_, err := m.AddCertificate(s.ID, draft(tip))
			require.NoError(t, err)
		}
		res, err := m.Finish(context.Background(), s.ID)
		require.NoError(t, err)
		return res
	}

	a, b := render(), render()
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.Equal(t, a.PDF, b.PDF)
}

// -----------------------------------------------------------------------------
// Logout and Expiry Tests
// -----------------------------------------------------------------------------

func TestLogout(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, nil, Options{Publisher: rec})
	s, err := m.Login("9000000001", "1111")
	require.NoError(t, err)

	require.NoError(t, m.Logout(s.ID))
	assert.Equal(t, 0, m.Len())
	assert.True(t, certerrors.IsCode(m.Logout(s.ID), certerrors.ErrSessionNotFound))

	_, err = m.Get(s.ID)
	assert.True(t, certerrors.IsCode(err, certerrors.ErrSessionNotFound))
	assert.Equal(t, []string{EventLoggedIn, EventLoggedOut}, rec.types())
}

func TestSweep(t *testing.T) {
	c := &testClock{now: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, nil, Options{Clock: c, IdleTTL: 10 * time.Minute})

	idle, err := m.Login("9000000001", "1111")
	require.NoError(t, err)
	c.Advance(6 * time.Minute)
	active, err := m.Login("9000000002", "2222")
	require.NoError(t, err)

	c.Advance(6 * time.Minute)
	assert.Equal(t, 1, m.Sweep())

	_, err = m.Get(idle.ID)
	assert.True(t, certerrors.IsCode(err, certerrors.ErrSessionNotFound))
	_, err = m.Get(active.ID)
	assert.NoError(t, err)
}

func TestGet_ExpiresLazily(t *testing.T) {
	c := &testClock{now: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, nil, Options{Clock: c, IdleTTL: time.Minute})

	s, err := m.Login("9000000001", "1111")
	require.NoError(t, err)
	c.Advance(2 * time.Minute)

	_, err = m.Get(s.ID)
	assert.True(t, certerrors.IsCode(err, certerrors.ErrSessionNotFound))
	assert.Equal(t, 0, m.Len())
}

func TestSummary(t *testing.T) {
	m := newTestManager(t, nil, Options{})
	s, err := m.Login("9000000001", "1111")
	require.NoError(t, err)
	_, err = m.AddCertificate(s.ID, draft("TIP Alpha"))
	require.NoError(t, err)

	sum := s.Summary()
	assert.Equal(t, "Ravi Kumar", sum.Name)
	assert.Equal(t, "Manager(MT)", sum.MTName)
	assert.Equal(t, []string{"TIP Beta"}, sum.Pending)
	assert.Len(t, sum.Certificates, 1)
	assert.False(t, sum.Ready)
}
