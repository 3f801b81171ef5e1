// internal/app/features/branches/document.go
package branches

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/filexfer"
	"github.com/dalemusser/sudhub/internal/app/system/inputval"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"go.uber.org/zap"
)

// formOverhead is the room left for non-file fields in a multipart body.
const formOverhead = 1 << 20

// DocumentField is the multipart field carrying an uploaded document.
const DocumentField = "document"

type renameInput struct {
	Name string `validate:"notblank,max=255,docname" label:"Name" msg:"Enter a file name without slashes"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/branches/{bid}/rename                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleRename renames the branch's document. Renaming to the current name
// is harmless.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	spaceID, branchID := ids(r)
	form := branchForm{Name: strings.TrimSpace(r.FormValue("name"))}
	reRender := func(msg string) {
		h.renderBranch(w, r, modal.Failed(modal.RenameDocument, msg), form)
	}

	if res := inputval.Validate(renameInput{Name: form.Name}); res.HasErrors() {
		reRender(res.First())
		return
	}

	b, ok := h.loadBranch(w, r, modal.RenameDocument, form)
	if !ok {
		return
	}

	sess := h.session(r)
	err := h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     "document_rename",
		Category: audit.CategoryWorkspace,
		Target:   "document:" + b.DocumentID.String(),
	}, func(ctx context.Context) error {
		return sess.RenameDocument(ctx, b.DocumentID, form.Name)
	})
	h.finish(w, r, "document_rename", err, branchURL(spaceID, branchID), "The document no longer exists", reRender)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces/{id}/branches/{bid}/upload                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpload replaces the branch's document with an uploaded file.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	spaceID, branchID := ids(r)
	reRender := func(msg string) {
		h.renderBranch(w, r, modal.Failed(modal.UploadDocument, msg), branchForm{})
	}
	tooLarge := "The document is larger than " + filexfer.SizeLabel(h.MaxUploadBytes) + "."

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(h.MaxUploadBytes + formOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			reRender(tooLarge)
			return
		}
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", branchURL(spaceID, branchID))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	up, err := filexfer.ReadUpload(r, DocumentField, h.MaxUploadBytes)
	switch {
	case errors.Is(err, filexfer.ErrNoFile):
		reRender("Choose a document to upload.")
		return
	case errors.Is(err, filexfer.ErrTooLarge):
		reRender(tooLarge)
		return
	case err != nil:
		h.ErrLog.LogBadRequest(w, r, "read upload failed", err, "The document could not be read.", branchURL(spaceID, branchID))
		return
	}
	if !inputval.IsValidDocumentName(up.Name) {
		reRender("The document needs a file name.")
		return
	}

	b, ok := h.loadBranch(w, r, modal.UploadDocument, branchForm{})
	if !ok {
		return
	}

	sess := h.session(r)
	err = h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     "document_upload",
		Category: audit.CategoryWorkspace,
		Target:   "document:" + b.DocumentID.String(),
	}, func(ctx context.Context) error {
		return sess.UploadDocument(ctx, b.DocumentID, up.Name, up.DataURL)
	})
	if err == nil {
		h.Log.Info("document uploaded",
			zap.String("document", b.DocumentID.String()),
			zap.String("name", up.Name),
			zap.String("media_type", up.MediaType),
			zap.Int("bytes", up.Size))
	}
	h.finish(w, r, "document_upload", err, branchURL(spaceID, branchID), "The document no longer exists", reRender)
}
