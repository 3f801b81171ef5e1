// Package filexfer moves documents between the browser, sudhub and the
// backend: it packs uploads into data URLs for JSON bodies and decides how
// a fetched file is shown to the user.
package filexfer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"mime"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/htmlindex"
)

// ErrUnsupportedPreview is returned when a file cannot be shown inline.
// Its text is shown to the user as is.
var ErrUnsupportedPreview = errors.New("Cannot preview this file type")

// ErrMalformedDataURL is returned by DecodeDataURL for anything that is not
// a base64 data URL.
var ErrMalformedDataURL = errors.New("malformed data url")

// Disposition is how a fetched file is handed to the user.
type Disposition int

const (
	// Download saves the file under the server-declared name.
	Download Disposition = iota
	// Inline decodes the body as text and shows it in the page.
	Inline
	// Open serves the body as is for the browser to open in a new tab.
	Open
)

func (d Disposition) String() string {
	switch d {
	case Inline:
		return "inline"
	case Open:
		return "open"
	default:
		return "download"
	}
}

// Classify maps a Content-Type header to a Disposition.
func Classify(contentType string) Disposition {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case mt == "text/plain":
		return Inline
	case strings.HasPrefix(mt, "image/"), strings.HasPrefix(mt, "video/"):
		return Open
	default:
		return Download
	}
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// PreviewText decodes data for inline display using the charset named in
// contentType, UTF-8 when none is named. It returns ErrUnsupportedPreview
// for an unknown charset or a body that is not valid UTF-8.
func PreviewText(contentType string, data []byte) (string, error) {
	label := "utf-8"
	if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
		label = params["charset"]
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", ErrUnsupportedPreview
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", ErrUnsupportedPreview
		}
		return string(data), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", ErrUnsupportedPreview
	}
	return string(out), nil
}

// Sniff returns the media type of data, preferring the declared type when
// the browser sent a specific one.
func Sniff(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return mt
}

// EncodeDataURL packs data into a base64 data URL.
func EncodeDataURL(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL unpacks a base64 data URL built by EncodeDataURL.
func DecodeDataURL(s string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrMalformedDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrMalformedDataURL
	}
	meta, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, ErrMalformedDataURL
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrMalformedDataURL
	}
	if meta == "" {
		meta = "text/plain;charset=US-ASCII"
	}
	return meta, data, nil
}

// Filename extracts the file name from a Content-Disposition header,
// falling back to fallback when none is present.
func Filename(contentDisposition, fallback string) string {
	if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
		if name := params["filename"]; name != "" {
			return path.Base(name)
		}
	}
	return fallback
}
