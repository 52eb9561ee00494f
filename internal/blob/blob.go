// Package blob uploads product photos to storage and returns the URL they are
// served from.
package blob

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Store uploads blobs and reports their public URL.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// Prefix is the folder product photos are stored under.
const Prefix = "produtos"

// ObjectPath returns a collision-free storage path for an uploaded file:
// produtos/<unix seconds>_<random hex>_<sanitized filename>.
func ObjectPath(filename string, now time.Time) string {
	name := SecureFilename(filename)
	if name == "" {
		name = "foto"
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s/%d_%s_%s", Prefix, now.Unix(), id, name)
}

// SecureFilename reduces a client-supplied filename to ASCII letters, digits,
// '.', '_' and '-'. Accents are stripped, whitespace and path separators
// become '_', and leading or trailing dots and underscores are removed. The
// result may be empty.
func SecureFilename(filename string) string {
	decomposed := norm.NFKD.String(filename)
	decomposed = strings.NewReplacer("/", " ", "\\", " ").Replace(decomposed)

	var ascii strings.Builder
	for _, r := range decomposed {
		if r <= unicode.MaxASCII {
			ascii.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		}
		return -1
	}, joined)
	return strings.Trim(cleaned, "._")
}
