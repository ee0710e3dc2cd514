package layout

import (
	"fmt"
	"strings"

	"github.com/r3d91ll/qoscert/pkg/cert"
	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

// NormalizeTIPName prepares a TIP name for display: underscores become
// spaces, an empty name becomes the placeholder, and the default honorific
// is prepended unless a recognized one is already present.
func NormalizeTIPName(name string, g Geometry) string {
	tip := strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if tip == "" {
		tip = g.Placeholder
	}
	lower := strings.ToLower(tip)
	for _, h := range g.Honorifics {
		if h != "" && strings.HasPrefix(lower, strings.ToLower(h)) {
			return tip
		}
	}
	if g.DefaultHonorific == "" {
		return tip
	}
	return g.DefaultHonorific + " " + tip
}

// Sentence composes the certification statement.
func Sentence(tip string, from, to cert.Date, g Geometry) string {
	return fmt.Sprintf("It is to certify that the services provided by %s, from %s to %s is satisfactory.",
		tip, from.Format(g.DateLayout), to.Format(g.DateLayout))
}

// PenaltyText returns the penalty line for a record.
func PenaltyText(r cert.Record, g Geometry) string {
	if !r.PenaltyApplicable {
		return "Penalty: NIL"
	}
	return "Penalty: " + g.CurrencySymbol + r.PenaltyAmount.String()
}

// LayoutPage computes the draw commands of one certificate page.
// Missing images are omitted without error.
func LayoutPage(r cert.Record, g Geometry, m textmetrics.Metrics, counter *cert.Image, timestamp string) []Command {
	cmds := make([]Command, 0, 12)
	text := func(role Role, x, y float64, s string, style TextStyle, align Align) {
		cmds = append(cmds, TextCommand{Role: role, X: x, Y: y, Text: s, Font: style.Font, Size: style.Size, Align: align})
	}

	text(RoleTitle, g.PageWidth/2, g.Top, g.TitleText, g.Title, AlignCenter)
	text(RoleTimestamp, g.PageWidth-g.Margin, g.Top, timestamp, g.Timestamp, AlignRight)

	sentence := Sentence(NormalizeTIPName(r.TIPName, g), r.FromDate, r.ToDate, g)
	y := g.Top - g.BodyGap
	for i, line := range Wrap(sentence, g.BodyWidth(), g.Body.Font, g.Body.Size, m) {
		if i > 0 {
			y -= g.LineHeight
		}
		text(RoleBody, g.Margin, y, line, g.Body, AlignLeft)
	}
	bodyEndY := y

	text(RolePenalty, g.Margin, bodyEndY-g.PenaltyGap, PenaltyText(r, g), g.Penalty, AlignLeft)

	sigY := bodyEndY - g.SignatureGap
	issuer := strings.ToUpper(r.IssuerName)
	if r.IssuerSignature.Usable() {
		cmds = append(cmds, ImageCommand{
			Role:   RoleIssuerSignature,
			X:      g.Margin,
			Y:      sigY,
			Width:  g.SignatureWidth,
			Height: g.SignatureWidth * r.IssuerSignature.AspectRatio(),
			Image:  r.IssuerSignature,
		})
	}
	text(RoleIssuerName, g.Margin, sigY-g.NameOffset, issuer, g.Caption, AlignLeft)
	text(RoleFootnote, g.Margin, sigY-g.FootnoteOffset, "Generated: "+timestamp, g.Footnote, AlignLeft)

	if counter.Usable() {
		h := g.SignatureWidth * counter.AspectRatio()
		cmds = append(cmds, ImageCommand{
			Role:   RoleCounterSignature,
			X:      g.CounterLeftOffset + issuerBlockWidth(r, issuer, g, m) + g.CounterGap,
			Y:      sigY - h - g.CounterDrop,
			Width:  g.SignatureWidth,
			Height: h,
			Image:  counter,
		})
	}
	return cmds
}

// issuerBlockWidth is the width of whatever occupies the issuer slot: the
// signature image when drawn, otherwise the issuer name.
func issuerBlockWidth(r cert.Record, issuer string, g Geometry, m textmetrics.Metrics) float64 {
	if r.IssuerSignature.Usable() {
		return g.SignatureWidth
	}
	return m.Width(issuer, g.Caption.Font, g.Caption.Size)
}
