package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Fingerprint returns a SHA-256 over a canonical serialization of the
// document. Images contribute their content hash. Two documents with the
// same fingerprint draw the same commands in the same order.
func Fingerprint(doc *Document) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "size:%.4f,%.4f|ts:%s|pages:%d\n", doc.PageWidth, doc.PageHeight, doc.GeneratedTimestamp, len(doc.Pages))
	for _, p := range doc.Pages {
		fmt.Fprintf(&sb, "page:%d\n", p.Number)
		for _, c := range p.Commands {
			switch c := c.(type) {
			case TextCommand:
				fmt.Fprintf(&sb, "T|%s|%.4f|%.4f|%s|%.2f|%s|%q\n",
					c.Role, c.X, c.Y, c.Font.PostScriptName(), c.Size, c.Align, c.Text)
			case ImageCommand:
				hash := ""
				if c.Image != nil {
					hash = c.Image.Hash
				}
				fmt.Fprintf(&sb, "I|%s|%.4f|%.4f|%.4f|%.4f|%s\n",
					c.Role, c.X, c.Y, c.Width, c.Height, hash)
			}
		}
		sb.WriteString("showpage\n")
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint returns the first 12 characters of the fingerprint.
func ShortFingerprint(doc *Document) string {
	return Fingerprint(doc)[:12]
}
