// Package config handles qoscert configuration loading.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
	"github.com/r3d91ll/qoscert/pkg/layout"
	"github.com/r3d91ll/qoscert/pkg/logging"
	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

// Config is the root configuration structure.
type Config struct {
	Layout   LayoutConfig   `yaml:"layout"`
	Metrics  string         `yaml:"metrics"`
	Renderer RendererConfig `yaml:"renderer"`
	Assets   AssetsConfig   `yaml:"assets"`
	Roster   RosterConfig   `yaml:"roster"`
	Session  SessionConfig  `yaml:"session"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  logging.Config `yaml:"logging"`
}

// FontSpec names a font by PostScript name and size in points.
type FontSpec struct {
	Font string  `yaml:"font"`
	Size float64 `yaml:"size"`
}

// FontsConfig assigns a font to every text role on the page.
type FontsConfig struct {
	Title     FontSpec `yaml:"title"`
	Timestamp FontSpec `yaml:"timestamp"`
	Body      FontSpec `yaml:"body"`
	Penalty   FontSpec `yaml:"penalty"`
	Caption   FontSpec `yaml:"caption"`
	Footnote  FontSpec `yaml:"footnote"`
}

// LayoutConfig holds page geometry.
type LayoutConfig struct {
	PageSize string      `yaml:"page_size"`
	Fonts    FontsConfig `yaml:"fonts"`

	Margin         Length `yaml:"margin"`
	Top            Length `yaml:"top"`
	LineHeight     Length `yaml:"line_height"`
	BodyGap        Length `yaml:"body_gap"`
	PenaltyGap     Length `yaml:"penalty_gap"`
	SignatureGap   Length `yaml:"signature_gap"`
	NameOffset     Length `yaml:"name_offset"`
	FootnoteOffset Length `yaml:"footnote_offset"`

	SignatureWidth    Length `yaml:"signature_width"`
	CounterLeftOffset Length `yaml:"counter_left_offset"`
	CounterGap        Length `yaml:"counter_gap"`
	CounterDrop       Length `yaml:"counter_drop"`

	Title            string   `yaml:"title"`
	DateLayout       string   `yaml:"date_layout"`
	TimestampLayout  string   `yaml:"timestamp_layout"`
	CurrencySymbol   string   `yaml:"currency_symbol"`
	DefaultHonorific string   `yaml:"default_honorific"`
	Honorifics       []string `yaml:"honorifics"`
	Placeholder      string   `yaml:"placeholder"`
}

// RendererConfig selects and tunes the PDF sink.
type RendererConfig struct {
	Name     string `yaml:"name"`
	Compress bool   `yaml:"compress"`
	Metadata bool   `yaml:"metadata"`
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
}

// AssetsConfig locates base64 signature files.
type AssetsConfig struct {
	Dir              string `yaml:"dir"`
	CounterSignature string `yaml:"counter_signature"`
}

// RosterConfig locates the officer roster and its credential defaults.
type RosterConfig struct {
	Path          string            `yaml:"path"`
	DefaultPIN    string            `yaml:"default_pin"`
	PINs          map[string]string `yaml:"pins"`
	DefaultMTName string            `yaml:"default_mt_name"`
}

// SessionConfig controls interactive certificate sessions.
type SessionConfig struct {
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	// Secret signs tokens. When empty, serve generates a random secret
	// at startup and tokens do not survive a restart.
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			PageSize: "A4",
			Fonts: FontsConfig{
				Title:     FontSpec{Font: "Helvetica-Bold", Size: 16},
				Timestamp: FontSpec{Font: "Helvetica", Size: 10},
				Body:      FontSpec{Font: "Helvetica", Size: 12},
				Penalty:   FontSpec{Font: "Helvetica", Size: 12},
				Caption:   FontSpec{Font: "Helvetica", Size: 12},
				Footnote:  FontSpec{Font: "Helvetica-Oblique", Size: 9},
			},
			Margin:            Cm(2),
			Top:               Cm(27),
			LineHeight:        Cm(0.5),
			BodyGap:           Cm(1.5),
			PenaltyGap:        Cm(1),
			SignatureGap:      Cm(5),
			NameOffset:        Cm(0.6),
			FootnoteOffset:    Cm(1.2),
			SignatureWidth:    Cm(4),
			CounterLeftOffset: Cm(4),
			CounterGap:        Cm(2),
			CounterDrop:       Cm(4),
			Title:             "QoS Certificate",
			DateLayout:        "02-01-2006",
			TimestampLayout:   "02-01-2006 15:04",
			CurrencySymbol:    "₹",
			DefaultHonorific:  "M/S.",
			Honorifics:        []string{"m/s"},
			Placeholder:       "TIP",
		},
		Metrics: textmetrics.NameCore,
		Renderer: RendererConfig{
			Name:     "native",
			Compress: true,
			Metadata: true,
			Title:    "QoS Certificates",
		},
		Assets: AssetsConfig{
			Dir:              "signatures",
			CounterSignature: "mt_sign.b64",
		},
		Roster: RosterConfig{
			Path:          "bbm_data.csv",
			DefaultPIN:    "0000",
			DefaultMTName: "Manager(MT)",
		},
		Session: SessionConfig{
			IdleTTL: 30 * time.Minute,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Auth: AuthConfig{
			Issuer:   "qoscert",
			TokenTTL: 8 * time.Hour,
		},
		Logging: logging.DefaultConfig(),
	}
}

// pageSizes holds supported page dimensions in points.
var pageSizes = map[string][2]float64{
	"A4":     {layout.A4Width, layout.A4Height},
	"A5":     {419.528, 595.276},
	"LETTER": {612, 792},
}

// Load reads configuration from a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, certerrors.ConfigWrap(err, certerrors.ErrConfigNotFound, "configuration file not found").
				WithContext("path", path)
		}
		return nil, certerrors.IOWrap(err, certerrors.ErrIOReadFailed, "failed to read config").
			WithContext("path", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if ce, ok := certerrors.AsCertError(err); ok {
			return nil, ce.WithContext("path", path)
		}
		return nil, certerrors.ConfigWrap(err, certerrors.ErrConfigParseFailed, "failed to parse config").
			WithContext("path", path)
	}
	if err := cfg.Validate(); err != nil {
		if ce, ok := certerrors.AsCertError(err); ok {
			ce.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns defaults if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return certerrors.ConfigWrap(err, certerrors.ErrConfigWriteFailed, "failed to create config directory").
			WithContext("path", dir)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return certerrors.ConfigWrap(err, certerrors.ErrConfigWriteFailed, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return certerrors.ConfigWrap(err, certerrors.ErrConfigWriteFailed, "failed to write config file").
			WithContext("path", path)
	}
	return nil
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	if _, err := os.Stat("qoscert.yaml"); err == nil {
		return "qoscert.yaml"
	}
	if _, err := os.Stat("config/qoscert.yaml"); err == nil {
		return "config/qoscert.yaml"
	}
	return "qoscert.yaml"
}

// InitConfig creates a default config file if it doesn't exist.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // Already exists
	}
	return Default().Save(path)
}

// Validate checks values that would otherwise fail deep inside layout or
// rendering.
func (c *Config) Validate() error {
	invalid := func(field, msg string) error {
		return certerrors.Config(certerrors.ErrConfigInvalid, msg).WithContext("field", field)
	}

	size, ok := pageSizes[strings.ToUpper(c.Layout.PageSize)]
	if !ok {
		return invalid("layout.page_size", "unknown page size "+c.Layout.PageSize)
	}
	if 2*c.Layout.Margin.Points() >= size[0] {
		return invalid("layout.margin", "margins leave no room for body text")
	}
	if top := c.Layout.Top.Points(); top <= 0 || top > size[1] {
		return invalid("layout.top", "top baseline must lie on the page")
	}
	if c.Layout.LineHeight.Points() <= 0 || c.Layout.SignatureWidth.Points() <= 0 {
		return invalid("layout", "line_height and signature_width must be positive")
	}
	for role, fs := range c.Layout.Fonts.byRole() {
		if fs.Size <= 0 {
			return invalid("layout.fonts."+role, "font size must be positive")
		}
	}
	if _, err := textmetrics.New(c.Metrics); err != nil {
		return invalid("metrics", err.Error())
	}
	switch c.Renderer.Name {
	case "native", "fpdf":
	default:
		return invalid("renderer.name", "unknown renderer "+c.Renderer.Name)
	}
	if c.Session.IdleTTL < 0 || c.Auth.TokenTTL < 0 {
		return invalid("session.idle_ttl", "durations must not be negative")
	}
	return nil
}

func (f FontsConfig) byRole() map[string]FontSpec {
	return map[string]FontSpec{
		"title":     f.Title,
		"timestamp": f.Timestamp,
		"body":      f.Body,
		"penalty":   f.Penalty,
		"caption":   f.Caption,
		"footnote":  f.Footnote,
	}
}

func (fs FontSpec) style() layout.TextStyle {
	return layout.TextStyle{Font: textmetrics.ParseFont(fs.Font), Size: fs.Size}
}

// Geometry converts the layout section into page geometry.
func (c *Config) Geometry() layout.Geometry {
	l := c.Layout
	g := layout.DefaultGeometry()
	if size, ok := pageSizes[strings.ToUpper(l.PageSize)]; ok {
		g.PageWidth, g.PageHeight = size[0], size[1]
	}

	g.Title = l.Fonts.Title.style()
	g.Timestamp = l.Fonts.Timestamp.style()
	g.Body = l.Fonts.Body.style()
	g.Penalty = l.Fonts.Penalty.style()
	g.Caption = l.Fonts.Caption.style()
	g.Footnote = l.Fonts.Footnote.style()

	g.Margin = l.Margin.Points()
	g.Top = l.Top.Points()
	g.LineHeight = l.LineHeight.Points()
	g.BodyGap = l.BodyGap.Points()
	g.PenaltyGap = l.PenaltyGap.Points()
	g.SignatureGap = l.SignatureGap.Points()
	g.NameOffset = l.NameOffset.Points()
	g.FootnoteOffset = l.FootnoteOffset.Points()
	g.SignatureWidth = l.SignatureWidth.Points()
	g.CounterLeftOffset = l.CounterLeftOffset.Points()
	g.CounterGap = l.CounterGap.Points()
	g.CounterDrop = l.CounterDrop.Points()

	g.TitleText = l.Title
	g.DateLayout = l.DateLayout
	g.TimestampLayout = l.TimestampLayout
	g.CurrencySymbol = l.CurrencySymbol
	g.DefaultHonorific = l.DefaultHonorific
	g.Honorifics = append([]string(nil), l.Honorifics...)
	g.Placeholder = l.Placeholder
	return g
}
