// Package fileinput normalizes the two accepted upload shapes — an inline
// base64 payload or a locally staged file — into a single byte source.
package fileinput

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// dataURIRegex matches the image data-URI form "data:image/<subtype>;base64,<payload>".
var dataURIRegex = regexp.MustCompile(`^data:image/[a-zA-Z0-9.+-]+;base64,`)

// Source is a readable byte stream of known length, ready to upload.
// The caller owns the stream and must Close it.
type Source struct {
	io.ReadCloser
	Size int64
}

// Input is the tagged union of accepted upload shapes. Callers construct
// the variant explicitly with Inline or Staged; there is no runtime
// inspection of the payload to guess which one was meant.
type Input interface {
	open() (*Source, error)
}

// inline is a base64 payload embedded in the request itself.
type inline struct {
	data string
}

// staged references bytes already materialized at a local transient path.
type staged struct {
	path string
}

// Inline wraps a base64 string. The string may carry an image data-URI
// prefix ("data:image/png;base64,..."), a data-URI with an unrecognized
// mime ("data:whatever,..."), or be a bare base64 payload.
func Inline(data string) Input {
	return inline{data: data}
}

// Staged references a file already written to a local path.
func Staged(path string) Input {
	return staged{path: path}
}

// Open converts an Input into a Source.
//
// Inline payloads are decoded into memory. Staged files are opened as a
// stream and never fully buffered, so arbitrarily large staged uploads stay
// memory-bounded. Opening a staged file is the only way this can fail.
func Open(in Input) (*Source, error) {
	return in.open()
}

func (i inline) open() (*Source, error) {
	raw := decodeLenient(extractPayload(i.data))
	return &Source{
		ReadCloser: io.NopCloser(bytes.NewReader(raw)),
		Size:       int64(len(raw)),
	}, nil
}

func (s staged) open() (*Source, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open staged file %q: %w", s.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat staged file %q: %w", s.path, err)
	}
	return &Source{ReadCloser: f, Size: info.Size()}, nil
}

// extractPayload strips any data-URI framing from an inline string.
// Recognized image data-URIs lose their prefix; any other string containing
// a comma is split at the first comma and the remainder wins (this covers
// data-URIs with unexpected mimes); a string with no comma is the payload.
func extractPayload(s string) string {
	if loc := dataURIRegex.FindStringIndex(s); loc != nil {
		return s[loc[1]:]
	}
	if _, after, found := strings.Cut(s, ","); found {
		return after
	}
	return s
}

// decodeLenient base64-decodes s without ever failing. Characters outside
// the standard base64 alphabet (including padding and whitespace) are
// dropped, and a dangling trailing character is truncated. An empty or
// fully invalid string decodes to an empty buffer. Garbage in, garbage
// bytes out — validation is deliberately not this layer's job.
func decodeLenient(s string) []byte {
	filtered := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '+', c == '/':
			filtered = append(filtered, c)
		}
	}
	// A single leftover sextet cannot encode a full byte.
	if len(filtered)%4 == 1 {
		filtered = filtered[:len(filtered)-1]
	}
	out, err := base64.RawStdEncoding.DecodeString(string(filtered))
	if err != nil {
		return nil
	}
	return out
}
