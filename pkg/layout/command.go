package layout

import (
	"github.com/r3d91ll/qoscert/pkg/cert"
	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

// Align is the horizontal anchoring of a text command relative to X.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return "left"
}

// Role names the element a command draws.
type Role string

const (
	RoleTitle            Role = "title"
	RoleTimestamp        Role = "timestamp"
	RoleBody             Role = "body"
	RolePenalty          Role = "penalty"
	RoleIssuerSignature  Role = "issuer-signature"
	RoleIssuerName       Role = "issuer-name"
	RoleFootnote         Role = "footnote"
	RoleCounterSignature Role = "counter-signature"
)

// Command is a single draw instruction on a page. Coordinates are PDF
// points with the origin at the bottom-left corner.
type Command interface {
	CommandRole() Role
}

// TextCommand draws one line of text with its baseline at Y.
type TextCommand struct {
	Role  Role
	X, Y  float64
	Text  string
	Font  textmetrics.Font
	Size  float64
	Align Align
}

// CommandRole implements Command.
func (c TextCommand) CommandRole() Role { return c.Role }

// LeftX returns the x of the text's left edge after alignment.
func (c TextCommand) LeftX(m textmetrics.Metrics) float64 {
	switch c.Align {
	case AlignCenter:
		return c.X - m.Width(c.Text, c.Font, c.Size)/2
	case AlignRight:
		return c.X - m.Width(c.Text, c.Font, c.Size)
	}
	return c.X
}

// ImageCommand draws an image with its lower-left corner at (X, Y).
type ImageCommand struct {
	Role          Role
	X, Y          float64
	Width, Height float64
	Image         *cert.Image
}

// CommandRole implements Command.
func (c ImageCommand) CommandRole() Role { return c.Role }
