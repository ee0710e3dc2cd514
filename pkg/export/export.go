// Package export serializes laid-out certificate documents to PDF.
package export

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/r3d91ll/qoscert/pkg/layout"
)

// Renderer writes a document as PDF. Pages are emitted in order and each
// page's commands are drawn in order.
type Renderer interface {
	Name() string
	Render(doc *layout.Document, w io.Writer) error
}

// Registered renderer names.
const (
	NativeName = "native"
	FpdfName   = "fpdf"
)

// Registry manages available renderers.
type Registry struct {
	renderers map[string]Renderer
	mu        sync.RWMutex
}

// NewRegistry creates an empty renderer registry.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

// Register adds a renderer under its name.
func (r *Registry) Register(renderer Renderer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := renderer.Name()
	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("renderer %q already registered", name)
	}
	r.renderers[name] = renderer
	return nil
}

// Get retrieves a renderer by name.
func (r *Registry) Get(name string) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[name]
	return renderer, ok
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Default creates a registry holding the native and fpdf renderers.
func Default(config *PDFConfig) *Registry {
	registry := NewRegistry()
	_ = registry.Register(NewNativeRenderer(config))
	_ = registry.Register(NewFpdfRenderer(config))
	return registry
}

// DownloadFilename names a rendered batch after the time it was produced.
func DownloadFilename(t time.Time) string {
	return "QoS_Certificates_" + t.Format("20060102_1504") + ".pdf"
}
