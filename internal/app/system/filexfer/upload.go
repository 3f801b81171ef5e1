package filexfer

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
)

// ErrNoFile is returned by ReadUpload when the form carries no file.
var ErrNoFile = errors.New("no file was chosen")

// ErrTooLarge is returned by ReadUpload when the file exceeds the limit.
var ErrTooLarge = errors.New("file is too large")

// Upload is a file read from a multipart form, ready for a JSON body.
type Upload struct {
	Name      string
	MediaType string
	DataURL   string
	Size      int
}

// ReadUpload reads the file in field from a multipart request and encodes
// it as a data URL. Files over maxBytes are rejected.
func ReadUpload(r *http.Request, field string, maxBytes int64) (Upload, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return Upload{}, ErrNoFile
	}
	if err != nil {
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return Upload{}, ErrTooLarge
	}

	name := path.Base(strings.ReplaceAll(hdr.Filename, `\`, "/"))
	if name == "." || name == "/" {
		name = ""
	}
	mt := Sniff(hdr.Header.Get("Content-Type"), data)
	return Upload{
		Name:      name,
		MediaType: mt,
		DataURL:   EncodeDataURL(mt, data),
		Size:      len(data),
	}, nil
}

// DefaultMaxUpload bounds an upload when no limit is configured.
const DefaultMaxUpload = 10 << 20

// SizeLabel formats an upload limit for display.
func SizeLabel(n int64) string {
	if n >= 1<<20 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d KB", (n+1023)>>10)
}
