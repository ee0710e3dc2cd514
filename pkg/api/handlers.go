package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/r3d91ll/qoscert/pkg/assets"
	"github.com/r3d91ll/qoscert/pkg/cert"
	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
	"github.com/r3d91ll/qoscert/pkg/export"
	"github.com/r3d91ll/qoscert/pkg/layout"
	"github.com/r3d91ll/qoscert/pkg/logging"
	"github.com/r3d91ll/qoscert/pkg/session"
)

// Handler serves the certificate API.
type Handler struct {
	manager         *session.Manager
	tokens          *TokenIssuer
	assembler       *layout.Assembler
	renderers       *export.Registry
	defaultRenderer string
	assets          *assets.Store
	hub             *Hub
	upgrader        *websocket.Upgrader
	logger          *zap.Logger
}

// HandlerDeps are the collaborators of a Handler. Assets and Hub may be nil.
type HandlerDeps struct {
	Manager         *session.Manager
	Tokens          *TokenIssuer
	Assembler       *layout.Assembler
	Renderers       *export.Registry
	DefaultRenderer string
	Assets          *assets.Store
	Hub             *Hub
	AllowedOrigins  []string
	Logger          *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.DefaultRenderer == "" {
		deps.DefaultRenderer = export.NativeName
	}
	return &Handler{
		manager:         deps.Manager,
		tokens:          deps.Tokens,
		assembler:       deps.Assembler,
		renderers:       deps.Renderers,
		defaultRenderer: deps.DefaultRenderer,
		assets:          deps.Assets,
		hub:             deps.Hub,
		upgrader:        newUpgrader(makeOriginChecker(deps.AllowedOrigins)),
		logger:          deps.Logger,
	}
}

// RegisterRoutes registers the API routes on the router.
func (h *Handler) RegisterRoutes(router *Router) {
	router.GET("/api/health", h.Health)
	router.POST("/api/login", h.Login)
	router.GET("/api/session", h.authenticated(h.GetSession))
	router.GET("/api/certificates", h.authenticated(h.ListCertificates))
	router.POST("/api/certificates", h.authenticated(h.AddCertificate))
	router.POST("/api/finish", h.authenticated(h.Finish))
	router.POST("/api/logout", h.authenticated(h.Logout))
	router.POST("/api/render", h.authenticated(h.Render))
	router.GET("/ws", h.authenticated(h.WebSocket))
}

// sessionHandler is a handler that runs after token verification.
type sessionHandler func(w http.ResponseWriter, r *http.Request, s *session.Session)

// authenticated verifies the bearer token and resolves its session.
func (h *Handler) authenticated(next sessionHandler) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			WriteCertError(w, certerrors.Auth(certerrors.ErrAuthTokenInvalid, "missing bearer token"))
			return
		}
		id, err := h.tokens.Verify(token)
		if err != nil {
			WriteCertError(w, err)
			return
		}
		s, err := h.manager.Get(id)
		if err != nil {
			WriteCertError(w, err)
			return
		}
		r = r.WithContext(logging.WithSession(r.Context(), s.ID, s.User.Mobile))
		next(w, r, s)
	}
}

// -----------------------------------------------------------------------------
// API Request Types
// -----------------------------------------------------------------------------

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Mobile string `json:"mobile"`
	PIN    string `json:"pin"`
}

// RenderRequest is the body of POST /api/render. Every record is issued by
// the logged-in officer: issuerName is replaced with the officer's name and
// the officer's own signature is drawn. A record whose signature names any
// other mobile is refused.
type RenderRequest struct {
	Records  []cert.Entry `json:"records"`
	Renderer string       `json:"renderer,omitempty"`
}

// -----------------------------------------------------------------------------
// API Response Types
// -----------------------------------------------------------------------------

// LoginResponse is returned by POST /api/login.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Session   session.Summary `json:"session"`
}

// CertificatesResponse is returned by the certificate endpoints.
type CertificatesResponse struct {
	Certificates []cert.Record `json:"certificates"`
	Pending      []string      `json:"pending"`
	Ready        bool          `json:"ready"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status    string   `json:"status"`
	Sessions  int      `json:"sessions"`
	Clients   int      `json:"clients"`
	Renderers []string `json:"renderers"`
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Sessions: h.manager.Len(), Renderers: h.renderers.List()}
	if h.hub != nil {
		resp.Clients = h.hub.ClientCount()
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := ReadJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON in request body: "+err.Error())
		return
	}
	if req.Mobile == "" || req.PIN == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "mobile and pin are required")
		return
	}

	s, err := h.manager.Login(req.Mobile, req.PIN)
	if err != nil {
		WriteCertError(w, err)
		return
	}
	token, exp, err := h.tokens.Issue(s.ID)
	if err != nil {
		logging.FromContext(r.Context()).Error("token signing failed", zap.Error(err))
		_ = h.manager.Logout(s.ID)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to issue token")
		return
	}

	WriteJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp, Session: s.Summary()})
}

// GetSession handles GET /api/session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request, s *session.Session) {
	WriteJSON(w, http.StatusOK, s.Summary())
}

// ListCertificates handles GET /api/certificates.
func (h *Handler) ListCertificates(w http.ResponseWriter, r *http.Request, s *session.Session) {
	WriteJSON(w, http.StatusOK, certificatesOf(s))
}

// AddCertificate handles POST /api/certificates.
func (h *Handler) AddCertificate(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var d session.Draft
	if err := ReadJSON(r, &d); err != nil {
		if ce, ok := certerrors.AsCertError(err); ok {
			WriteCertError(w, ce)
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON in request body: "+err.Error())
		return
	}

	if _, err := h.manager.AddCertificate(s.ID, d); err != nil {
		WriteCertError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, certificatesOf(s))
}

func certificatesOf(s *session.Session) CertificatesResponse {
	return CertificatesResponse{
		Certificates: append([]cert.Record{}, s.Certificates()...),
		Pending:      append([]string{}, s.PendingTIPs()...),
		Ready:        s.Ready(),
	}
}

// Finish handles POST /api/finish and streams the PDF as an attachment.
func (h *Handler) Finish(w http.ResponseWriter, r *http.Request, s *session.Session) {
	res, err := h.manager.Finish(r.Context(), s.ID)
	if err != nil {
		WriteCertError(w, err)
		return
	}
	writePDF(w, res.PDF, res.Filename, res.Fingerprint)
}

// Logout handles POST /api/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if err := h.manager.Logout(s.ID); err != nil {
		WriteCertError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

// Render handles POST /api/render: a stateless batch render of posted
// records with the configured counter-signature.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req RenderRequest
	if err := ReadJSON(r, &req); err != nil {
		if ce, ok := certerrors.AsCertError(err); ok {
			WriteCertError(w, ce)
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON in request body: "+err.Error())
		return
	}

	name := req.Renderer
	if name == "" {
		name = h.defaultRenderer
	}
	renderer, ok := h.renderers.Get(name)
	if !ok {
		WriteCertError(w, certerrors.Validationf(certerrors.ErrRendererUnknown, "unknown renderer %q", name))
		return
	}

	logger := logging.FromContext(r.Context())
	var issuerSig *cert.Image
	if h.assets != nil {
		img, err := h.assets.Issuer(s.User.Mobile)
		if err != nil {
			logger.Debug("issuer signature unavailable", zap.Error(err))
		}
		issuerSig = img
	}

	records := make([]cert.Record, len(req.Records))
	for i, e := range req.Records {
		if ref := strings.TrimSpace(e.Signature); ref != "" && ref != s.User.Mobile {
			WriteCertError(w, certerrors.Auth(certerrors.ErrAuthForbidden, "records may only carry your own signature").
				WithContext("index", strconv.Itoa(i)))
			return
		}
		rec := e.Record
		rec.IssuerName = s.User.Name
		rec.IssuerSignature = issuerSig
		if err := rec.Validate(); err != nil {
			if ce, ok := certerrors.AsCertError(err); ok {
				ce.WithContext("index", strconv.Itoa(i))
			}
			WriteCertError(w, err)
			return
		}
		records[i] = rec
	}

	var counter *cert.Image
	if h.assets != nil {
		if img, err := h.assets.CounterSignature(); err == nil {
			counter = img
		}
	}

	doc := h.assembler.Assemble(records, counter)
	var buf bytes.Buffer
	if err := renderer.Render(doc, &buf); err != nil {
		WriteCertError(w, err)
		return
	}
	logger.Info("batch rendered", zap.Int("pages", len(doc.Pages)), zap.String("renderer", name))
	writePDF(w, buf.Bytes(), export.DownloadFilename(doc.GeneratedAt), layout.Fingerprint(doc))
}

// WebSocket handles GET /ws. The client receives events for its session.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if h.hub == nil {
		WriteError(w, http.StatusServiceUnavailable, "no_hub", "Event stream is not available")
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.FromContext(r.Context()).Debug("ws upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, s.ID)
	if !h.hub.registerClient(client) {
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

func writePDF(w http.ResponseWriter, pdf []byte, filename, fingerprint string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.Header().Set("X-Document-Fingerprint", fingerprint)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
