package filexfer_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dalemusser/sudhub/internal/app/system/filexfer"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		contentType string
		want        filexfer.Disposition
	}{
		{"text/plain", filexfer.Inline},
		{"text/plain; charset=utf-8", filexfer.Inline},
		{"TEXT/PLAIN", filexfer.Inline},
		{"image/png", filexfer.Open},
		{"video/mp4", filexfer.Open},
		{"application/pdf", filexfer.Download},
		{"text/html", filexfer.Download},
		{"", filexfer.Download},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := filexfer.Classify(tt.contentType); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestDataURL_RoundTrip(t *testing.T) {
	payload := []byte("v1 of the contract\nsecond line\n")
	enc := filexfer.EncodeDataURL("text/plain", payload)

	mt, data, err := filexfer.DecodeDataURL(enc)
	if err != nil {
		t.Fatalf("DecodeDataURL: %v", err)
	}
	if mt != "text/plain" {
		t.Errorf("media type: got %q, want %q", mt, "text/plain")
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("payload changed in round trip: got %q", data)
	}
}

func TestEncodeDataURL_DefaultsMediaType(t *testing.T) {
	enc := filexfer.EncodeDataURL("", []byte{0x01})
	if enc != "data:application/octet-stream;base64,AQ==" {
		t.Errorf("unexpected encoding %q", enc)
	}
}

func TestDecodeDataURL_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"hello",
		"data:text/plain,not-base64",
		"data:text/plain;base64",
		"data:text/plain;base64,***",
	} {
		if _, _, err := filexfer.DecodeDataURL(in); !errors.Is(err, filexfer.ErrMalformedDataURL) {
			t.Errorf("DecodeDataURL(%q): got %v, want ErrMalformedDataURL", in, err)
		}
	}
}

func TestPreviewText(t *testing.T) {
	got, err := filexfer.PreviewText("text/plain", []byte("plain words"))
	if err != nil || got != "plain words" {
		t.Errorf("PreviewText: got (%q, %v)", got, err)
	}

	_, err = filexfer.PreviewText("text/plain; charset=utf-8", []byte{0xff, 0xfe, 0x00})
	if !errors.Is(err, filexfer.ErrUnsupportedPreview) {
		t.Errorf("expected ErrUnsupportedPreview, got %v", err)
	}
	if err.Error() != "Cannot preview this file type" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestPreviewText_Charsets(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		data        []byte
		want        string
	}{
		{"windows-1251", "text/plain; charset=windows-1251", []byte{0xcf, 0xf0, 0xe8, 0xe2, 0xe5, 0xf2}, "Привет"},
		{"cp1251 alias", "text/plain; charset=cp1251", []byte{0xcf, 0xf0, 0xe8, 0xe2, 0xe5, 0xf2}, "Привет"},
		{"koi8-r", "text/plain; charset=KOI8-R", []byte{0xf0, 0xd2, 0xc9, 0xd7, 0xc5, 0xd4}, "Привет"},
		{"latin1", "text/plain; charset=iso-8859-1", []byte{0x63, 0x61, 0x66, 0xe9}, "café"},
		{"utf-8 with bom", "text/plain; charset=utf-8", append([]byte{0xef, 0xbb, 0xbf}, "Привет"...), "Привет"},
		{"no charset", "text/plain", []byte("Привет"), "Привет"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filexfer.PreviewText(tt.contentType, tt.data)
			if err != nil {
				t.Fatalf("PreviewText: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := filexfer.PreviewText("text/plain; charset=x-no-such-charset", []byte("hi")); !errors.Is(err, filexfer.ErrUnsupportedPreview) {
		t.Errorf("unknown charset: got %v, want ErrUnsupportedPreview", err)
	}
}

func TestSniff(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if got := filexfer.Sniff("", png); got != "image/png" {
		t.Errorf("Sniff png: got %q", got)
	}
	if got := filexfer.Sniff("application/octet-stream", []byte("hello there")); got != "text/plain" {
		t.Errorf("Sniff text: got %q", got)
	}
	if got := filexfer.Sniff("application/pdf", []byte("hello")); got != "application/pdf" {
		t.Errorf("declared type should win, got %q", got)
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		header, fallback, want string
	}{
		{`attachment; filename="report.pdf"`, "file", "report.pdf"},
		{`attachment; filename="../../etc/passwd"`, "file", "passwd"},
		{`inline`, "doc-7", "doc-7"},
		{``, "doc-7", "doc-7"},
	}
	for _, tt := range tests {
		if got := filexfer.Filename(tt.header, tt.fallback); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
