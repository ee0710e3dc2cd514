// Package session drives the interactive certificate workflow: an officer
// logs in, adds one certificate per assigned TIP, and finishes by rendering
// every certificate into a single PDF.
package session

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/r3d91ll/qoscert/pkg/cert"
	"github.com/r3d91ll/qoscert/pkg/clock"
	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
	"github.com/r3d91ll/qoscert/pkg/export"
	"github.com/r3d91ll/qoscert/pkg/layout"
	"github.com/r3d91ll/qoscert/pkg/logging"
	"github.com/r3d91ll/qoscert/pkg/roster"
	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

// Authenticator verifies login credentials.
type Authenticator interface {
	Authenticate(mobile, pin string) (*roster.User, error)
}

// Signatures resolves signature images. Errors mean "no image".
type Signatures interface {
	Issuer(mobile string) (*cert.Image, error)
	CounterSignature() (*cert.Image, error)
}

// Draft is the officer's input for one certificate.
type Draft struct {
	TIPName           string      `json:"tipName"`
	FromDate          cert.Date   `json:"fromDate"`
	ToDate            cert.Date   `json:"toDate"`
	PenaltyApplicable bool        `json:"penaltyApplicable"`
	PenaltyAmount     cert.Amount `json:"penaltyAmount"`
}

// Result is a finished batch.
type Result struct {
	PDF         []byte
	Filename    string
	Fingerprint string
	Pages       int
	GeneratedAt time.Time
}

// Options configures a Manager. Zero fields take defaults.
type Options struct {
	Geometry  layout.Geometry
	Metrics   textmetrics.Metrics
	Renderer  export.Renderer
	Clock     clock.Clock
	IdleTTL   time.Duration
	Logger    *zap.Logger
	Publisher Publisher
}

// DefaultIdleTTL expires sessions nobody has touched for half an hour.
const DefaultIdleTTL = 30 * time.Minute

// Session is one logged-in officer's batch in progress.
type Session struct {
	ID        string
	User      *roster.User
	CreatedAt time.Time

	mu       sync.Mutex
	pending  []string
	records  []cert.Record
	lastSeen time.Time
	closed   bool
}

// Manager owns live sessions.
type Manager struct {
	auth      Authenticator
	sigs      Signatures
	assembler *layout.Assembler
	renderer  export.Renderer
	clock     clock.Clock
	ttl       time.Duration
	logger    *zap.Logger
	publisher Publisher

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager. sigs may be nil, in which case no images
// are drawn.
func NewManager(auth Authenticator, sigs Signatures, opts Options) *Manager {
	if opts.Geometry.PageWidth == 0 {
		opts.Geometry = layout.DefaultGeometry()
	}
	if opts.Metrics == nil {
		opts.Metrics = textmetrics.NewCoreMetrics()
	}
	if opts.Renderer == nil {
		opts.Renderer = export.NewNativeRenderer(&export.PDFConfig{
			Title:           "QoS Certificates",
			Compress:        true,
			IncludeMetadata: true,
			Metrics:         opts.Metrics,
		})
	}
	if opts.Clock == nil {
		opts.Clock = clock.SystemClock{}
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Publisher == nil {
		opts.Publisher = PublisherFunc(func(Event) {})
	}

	assembler := layout.NewAssembler(opts.Geometry, opts.Metrics)
	assembler.Clock = opts.Clock
	assembler.Logger = opts.Logger

	return &Manager{
		auth:      auth,
		sigs:      sigs,
		assembler: assembler,
		renderer:  opts.Renderer,
		clock:     opts.Clock,
		ttl:       opts.IdleTTL,
		logger:    opts.Logger,
		publisher: opts.Publisher,
		sessions:  make(map[string]*Session),
	}
}

// Login authenticates and opens a session whose pending TIPs are the
// user's assigned TIPs.
func (m *Manager) Login(mobile, pin string) (*Session, error) {
	user, err := m.auth.Authenticate(mobile, pin)
	if err != nil {
		m.logger.Info("login rejected", zap.String("mobile", logging.MaskMobile(mobile)))
		return nil, err
	}

	now := m.clock.Now()
	s := &Session{
		ID:        uuid.NewString(),
		User:      user,
		CreatedAt: now,
		pending:   append([]string(nil), user.TIPs...),
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session opened",
		zap.String("session_id", s.ID),
		zap.String("mobile", logging.MaskMobile(user.Mobile)),
		zap.Int("tips", len(user.TIPs)),
	)
	m.publish(Event{Type: EventLoggedIn, SessionID: s.ID, Mobile: user.Mobile, Pending: len(s.pending)})
	return s, nil
}

// Get returns a live session and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, certerrors.Session(certerrors.ErrSessionNotFound, "session not found").
			WithContext("session_id", id)
	}

	now := m.clock.Now()
	s.mu.Lock()
	expired := s.closed || now.Sub(s.lastSeen) > m.ttl
	if !expired {
		s.lastSeen = now
	}
	s.mu.Unlock()

	if expired {
		m.remove(id)
		return nil, certerrors.Session(certerrors.ErrSessionNotFound, "session expired").
			WithContext("session_id", id)
	}
	return s, nil
}

// AddCertificate adds a certificate for a pending TIP of session id.
func (m *Manager) AddCertificate(id string, d Draft) (cert.Record, error) {
	s, err := m.Get(id)
	if err != nil {
		return cert.Record{}, err
	}

	var sig *cert.Image
	if m.sigs != nil {
		if img, err := m.sigs.Issuer(s.User.Mobile); err == nil {
			sig = img
		} else {
			m.logger.Debug("issuer signature unavailable",
				zap.String("session_id", id), zap.Error(err))
		}
	}

	r, err := s.add(d, sig)
	if err != nil {
		return cert.Record{}, err
	}

	m.logger.Info("certificate added",
		zap.String("session_id", id),
		zap.String("tip", r.TIPName),
		zap.Bool("signature", sig.Usable()),
	)
	m.publish(Event{Type: EventCertificateAdded, SessionID: id, Mobile: s.User.Mobile, TIP: r.TIPName, Pending: len(s.PendingTIPs())})
	return r, nil
}

// Finish renders every certificate of the session into one PDF and closes
// the session. All pending TIPs must have been certified.
func (m *Manager) Finish(ctx context.Context, id string) (*Result, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	res, err := m.render(ctx, s)
	if err != nil {
		return nil, err
	}
	m.remove(id)

	m.logger.Info("document rendered",
		zap.String("session_id", id),
		zap.Int("pages", res.Pages),
		zap.Int("bytes", len(res.PDF)),
		zap.String("fingerprint", res.Fingerprint[:12]),
	)
	m.publish(Event{Type: EventDocumentRendered, SessionID: id, Mobile: s.User.Mobile, Pages: res.Pages, Fingerprint: res.Fingerprint})
	return res, nil
}

// render holds the session lock so no certificate can be added mid-render.
func (m *Manager) render(ctx context.Context, s *Session) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, certerrors.Session(certerrors.ErrSessionNotFound, "session already finished").
			WithContext("session_id", s.ID)
	}
	if len(s.pending) > 0 {
		return nil, certerrors.Sessionf(certerrors.ErrSessionNotReady, "%d TIP(s) still pending", len(s.pending)).
			WithContext("session_id", s.ID)
	}
	if len(s.records) == 0 {
		return nil, certerrors.Session(certerrors.ErrSessionEmpty, "no certificates to render").
			WithContext("session_id", s.ID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var counter *cert.Image
	if m.sigs != nil {
		if img, err := m.sigs.CounterSignature(); err == nil {
			counter = img
		} else {
			m.logger.Debug("counter-signature unavailable", zap.String("session_id", s.ID), zap.Error(err))
		}
	}

	at := m.clock.Now()
	doc := m.assembler.AssembleAt(s.records, counter, at)

	var buf bytes.Buffer
	if err := m.renderer.Render(doc, &buf); err != nil {
		return nil, err
	}
	s.closed = true

	return &Result{
		PDF:         buf.Bytes(),
		Filename:    export.DownloadFilename(at),
		Fingerprint: layout.Fingerprint(doc),
		Pages:       len(doc.Pages),
		GeneratedAt: at,
	}, nil
}

// Logout discards a session and its certificates.
func (m *Manager) Logout(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return certerrors.Session(certerrors.ErrSessionNotFound, "session not found").
			WithContext("session_id", id)
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	m.logger.Info("session closed", zap.String("session_id", id))
	m.publish(Event{Type: EventLoggedOut, SessionID: id, Mobile: s.User.Mobile})
	return nil
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	now := m.clock.Now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		if now.Sub(s.lastSeen) > m.ttl {
			s.closed = true
			expired = append(expired, s)
			delete(m.sessions, id)
		}
		s.mu.Unlock()
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.logger.Info("session expired", zap.String("session_id", s.ID))
		m.publish(Event{Type: EventExpired, SessionID: s.ID, Mobile: s.User.Mobile})
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) publish(e Event) {
	if e.At.IsZero() {
		e.At = m.clock.Now()
	}
	m.publisher.Publish(e)
}

// -----------------------------------------------------------------------------
// Session state
// -----------------------------------------------------------------------------

func (s *Session) add(d Draft, sig *cert.Image) (cert.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, tip := range s.pending {
		if tip == d.TIPName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return cert.Record{}, certerrors.Sessionf(certerrors.ErrSessionTIPNotPending,
			"TIP %q is not pending", d.TIPName).WithContext("session_id", s.ID)
	}

	r := cert.Record{
		TIPName:           d.TIPName,
		FromDate:          d.FromDate,
		ToDate:            d.ToDate,
		PenaltyApplicable: d.PenaltyApplicable,
		IssuerName:        s.User.Name,
		IssuerSignature:   sig,
	}
	if d.PenaltyApplicable {
		r.PenaltyAmount = d.PenaltyAmount
	}
	if err := r.Validate(); err != nil {
		return cert.Record{}, err
	}

	s.records = append(s.records, r)
	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
	return r, nil
}

// PendingTIPs returns the TIPs still awaiting a certificate, in roster order.
func (s *Session) PendingTIPs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pending...)
}

// Certificates returns the records added so far.
func (s *Session) Certificates() []cert.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cert.Record(nil), s.records...)
}

// Ready reports whether every TIP has a certificate.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) == 0
}

// Summary is a JSON-friendly view of a session.
type Summary struct {
	ID           string        `json:"id"`
	Mobile       string        `json:"mobile"`
	Name         string        `json:"name"`
	MTName       string        `json:"mtName"`
	Pending      []string      `json:"pending"`
	Certificates []cert.Record `json:"certificates"`
	Ready        bool          `json:"ready"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Summary snapshots the session.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		ID:           s.ID,
		Mobile:       s.User.Mobile,
		Name:         s.User.Name,
		MTName:       s.User.MTName,
		Pending:      append([]string{}, s.pending...),
		Certificates: append([]cert.Record{}, s.records...),
		Ready:        len(s.pending) == 0,
		CreatedAt:    s.CreatedAt,
	}
}
