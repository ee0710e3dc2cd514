// Package assets loads base64-encoded signature images from disk.
//
// Each issuer's signature lives at <dir>/<mobile>.b64 and the
// counter-signature at <dir>/mt_sign.b64. A missing or broken file is
// reported as an ASSET_* error; callers omit the image and carry on.
package assets

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/r3d91ll/qoscert/pkg/cert"
	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
)

// Extension is the suffix of signature files.
const Extension = ".b64"

// DefaultCounterSignature is the counter-signature file name.
const DefaultCounterSignature = "mt_sign" + Extension

// Store reads and caches signature images under a directory.
type Store struct {
	Dir     string
	Counter string

	mu    sync.RWMutex
	cache map[string]*cert.Image
}

// NewStore creates a store rooted at dir. An empty counter selects
// DefaultCounterSignature.
func NewStore(dir, counter string) *Store {
	if counter == "" {
		counter = DefaultCounterSignature
	}
	return &Store{Dir: dir, Counter: counter, cache: make(map[string]*cert.Image)}
}

// Issuer returns the signature for an issuer's mobile number.
func (s *Store) Issuer(mobile string) (*cert.Image, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" || strings.ContainsAny(mobile, `/\`) || mobile == "." || mobile == ".." {
		return nil, certerrors.Asset(certerrors.ErrAssetNotFound, "invalid issuer mobile").
			WithContext("mobile", mobile)
	}
	return s.Load(mobile + Extension)
}

// CounterSignature returns the manager's counter-signature.
func (s *Store) CounterSignature() (*cert.Image, error) {
	return s.Load(s.Counter)
}

// Load reads and decodes a file relative to the store directory.
// Successful decodes are cached.
func (s *Store) Load(name string) (*cert.Image, error) {
	s.mu.RLock()
	img, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return img, nil
	}

	path := filepath.Join(s.Dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, certerrors.AssetWrap(err, certerrors.ErrAssetNotFound, "signature file not found").
				WithContext("path", path)
		}
		return nil, certerrors.IOWrap(err, certerrors.ErrIOReadFailed, "failed to read signature").
			WithContext("path", path)
	}

	img, err = DecodeBase64(strings.TrimSuffix(name, Extension), data)
	if err != nil {
		if ce, ok := certerrors.AsCertError(err); ok {
			ce.WithContext("path", path)
		}
		return nil, err
	}

	s.mu.Lock()
	if s.cache == nil {
		s.cache = make(map[string]*cert.Image)
	}
	s.cache[name] = img
	s.mu.Unlock()
	return img, nil
}

// Resolve interprets a signature reference from a records file. A bare
// number is an issuer mobile looked up in the store. Anything else is a file
// path: ".b64" files hold base64, other files are read as raw image bytes.
// An empty reference resolves to nil without error.
func (s *Store) Resolve(ref string) (*cert.Image, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, nil
	case isMobile(ref):
		return s.Issuer(ref)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, certerrors.AssetWrap(err, certerrors.ErrAssetNotFound, "signature file not found").
				WithContext("path", ref)
		}
		return nil, certerrors.IOWrap(err, certerrors.ErrIOReadFailed, "failed to read signature").
			WithContext("path", ref)
	}
	name := strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
	if strings.EqualFold(filepath.Ext(ref), Extension) {
		return DecodeBase64(name, data)
	}
	return Decode(name, data)
}

func isMobile(ref string) bool {
	for _, c := range ref {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Reset drops all cached images.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cache = make(map[string]*cert.Image)
	s.mu.Unlock()
}

// DecodeBase64 decodes a base64 payload, optionally wrapped in a data URI,
// and then the image inside it.
func DecodeBase64(name string, payload []byte) (*cert.Image, error) {
	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(text, "data:") {
		if i := strings.Index(text, ","); i >= 0 {
			text = text[i+1:]
		}
	}
	text = strings.Join(strings.Fields(text), "")

	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(text, "="))
	}
	if err != nil {
		return nil, certerrors.AssetWrap(err, certerrors.ErrAssetDecodeFailed, "invalid base64 signature").
			WithContext("name", name)
	}
	return Decode(name, raw)
}

// Decode sniffs the image format and dimensions of raw bytes.
func Decode(name string, data []byte) (*cert.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, certerrors.AssetWrap(err, certerrors.ErrAssetDecodeFailed, "unrecognized signature image").
			WithContext("name", name)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, certerrors.Asset(certerrors.ErrAssetDecodeFailed, "signature image has no pixels").
			WithContext("name", name)
	}
	return cert.NewImage(name, data, format, cfg.Width, cfg.Height), nil
}
