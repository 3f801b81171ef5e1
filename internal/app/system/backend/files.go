package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dalemusser/sudhub/internal/domain/models"
)

// RenameDocument renames a document in place. Renaming to the current name
// is a no-op on the backend.
func (s *Session) RenameDocument(ctx context.Context, fileID models.ID, newName string) error {
	q := url.Values{"new_name": {newName}}
	return s.send(ctx, "rename document", http.MethodPut, "/rename/"+seg(fileID), q, nil, nil)
}

type documentUpload struct {
	DocumentName string `json:"document_name"`
	DocumentData string `json:"document_data"`
}

// UploadDocument replaces a document's content. dataURL is the encoded file.
func (s *Session) UploadDocument(ctx context.Context, fileID models.ID, name, dataURL string) error {
	body := documentUpload{DocumentName: name, DocumentData: dataURL}
	return s.send(ctx, "upload document", http.MethodPost, "/upload_file/"+seg(fileID), nil, body, nil)
}

// File is a fetched document body with the headers that drive preview.
type File struct {
	ContentType        string
	ContentDisposition string
	Data               []byte
}

// FetchFile downloads a document. Bodies over the configured cap fail.
func (s *Session) FetchFile(ctx context.Context, fileID models.ID) (File, error) {
	const op = "fetch file"
	resp, err := s.do(ctx, op, http.MethodGet, "/file/"+seg(fileID)+"/view", nil, nil)
	if err != nil {
		return File{}, err
	}
	defer resp.Body.Close()

	limit := s.c.maxFileBytes
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return File{}, &TransportError{Op: op, Err: err}
	}
	if int64(len(data)) > limit {
		return File{}, fmt.Errorf("%s: body exceeds %d bytes", op, limit)
	}
	return File{
		ContentType:        resp.Header.Get("Content-Type"),
		ContentDisposition: resp.Header.Get("Content-Disposition"),
		Data:               data,
	}, nil
}
