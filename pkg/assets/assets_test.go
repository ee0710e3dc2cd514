package assets

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeB64(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	enc := base64.StdEncoding.EncodeToString(data)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(enc+"\n"), 0o644))
}

// -----------------------------------------------------------------------------
// Decode Tests
// -----------------------------------------------------------------------------

func TestDecode_PNG(t *testing.T) {
	img, err := Decode("sig", pngFixture(t, 40, 10))
	require.NoError(t, err)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 10, img.Height)
	assert.InDelta(t, 0.25, img.AspectRatio(), 1e-9)
	assert.Len(t, img.Hash, 64)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode("sig", []byte("not an image"))
	require.Error(t, err)
	assert.True(t, certerrors.IsCode(err, certerrors.ErrAssetDecodeFailed))
}

func TestDecodeBase64_Variants(t *testing.T) {
	raw := pngFixture(t, 8, 4)
	std := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name    string
		payload string
	}{
		{"plain", std},
		{"data uri", "data:image/png;base64," + std},
		{"wrapped lines", std[:10] + "\n" + std[10:] + "\n"},
		{"unpadded", base64.RawStdEncoding.EncodeToString(raw)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeBase64("sig", []byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, 8, img.Width)
			assert.Equal(t, raw, img.Data)
		})
	}
}

func TestDecodeBase64_Invalid(t *testing.T) {
	_, err := DecodeBase64("sig", []byte("@@@"))
	require.Error(t, err)
	assert.True(t, certerrors.IsCode(err, certerrors.ErrAssetDecodeFailed))
}

// -----------------------------------------------------------------------------
// Store Tests
// -----------------------------------------------------------------------------

func TestStore_IssuerAndCounter(t *testing.T) {
	dir := t.TempDir()
	writeB64(t, dir, "9891055443.b64", pngFixture(t, 20, 10))
	writeB64(t, dir, "mt_sign.b64", pngFixture(t, 30, 10))

	s := NewStore(dir, "")

	issuer, err := s.Issuer("9891055443")
	require.NoError(t, err)
	assert.Equal(t, "9891055443", issuer.Name)
	assert.Equal(t, 20, issuer.Width)

	counter, err := s.CounterSignature()
	require.NoError(t, err)
	assert.Equal(t, 30, counter.Width)
}

func TestStore_Missing(t *testing.T) {
	s := NewStore(t.TempDir(), "")

	_, err := s.Issuer("9000000000")
	assert.True(t, certerrors.IsCode(err, certerrors.ErrAssetNotFound))

	_, err = s.CounterSignature()
	assert.True(t, certerrors.IsCode(err, certerrors.ErrAssetNotFound))
}

func TestStore_RejectsPathMobile(t *testing.T) {
	s := NewStore(t.TempDir(), "")
	for _, m := range []string{"", "../etc/passwd", "..", `a\b`} {
		_, err := s.Issuer(m)
		assert.True(t, certerrors.IsCode(err, certerrors.ErrAssetNotFound), m)
	}
}

func TestStore_CacheAndReset(t *testing.T) {
	dir := t.TempDir()
	writeB64(t, dir, "9000000001.b64", pngFixture(t, 20, 10))
	s := NewStore(dir, "")

	first, err := s.Issuer("9000000001")
	require.NoError(t, err)

	writeB64(t, dir, "9000000001.b64", pngFixture(t, 50, 10))
	cached, err := s.Issuer("9000000001")
	require.NoError(t, err)
	assert.Same(t, first, cached)

	s.Reset()
	fresh, err := s.Issuer("9000000001")
	require.NoError(t, err)
	assert.Equal(t, 50, fresh.Width)
}

func TestStore_Resolve(t *testing.T) {
	dir := t.TempDir()
	raw := pngFixture(t, 12, 6)
	writeB64(t, dir, "9000000001.b64", raw)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sign.png"), raw, 0o644))
	s := NewStore(dir, "")

	img, err := s.Resolve("")
	assert.NoError(t, err)
	assert.Nil(t, img)

	byMobile, err := s.Resolve("9000000001")
	require.NoError(t, err)
	assert.Equal(t, 12, byMobile.Width)

	byB64, err := s.Resolve(filepath.Join(dir, "9000000001.b64"))
	require.NoError(t, err)
	assert.Equal(t, "9000000001", byB64.Name)

	byPNG, err := s.Resolve(filepath.Join(dir, "sign.png"))
	require.NoError(t, err)
	assert.Equal(t, "sign", byPNG.Name)
	assert.Equal(t, byMobile.Hash, byPNG.Hash)

	_, err = s.Resolve(filepath.Join(dir, "nope.png"))
	assert.True(t, certerrors.IsCode(err, certerrors.ErrAssetNotFound))
}
