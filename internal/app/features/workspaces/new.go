// internal/app/features/workspaces/new.go
package workspaces

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/filexfer"
	"github.com/dalemusser/sudhub/internal/app/system/inputval"
	"github.com/dalemusser/sudhub/internal/app/system/modal"
	"github.com/dalemusser/sudhub/internal/app/system/mutate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"go.uber.org/zap"
)

// formOverhead is the room left for non-file fields in a multipart body.
const formOverhead = 1 << 20

// DocumentField is the multipart field carrying the uploaded document.
const DocumentField = "document"

type createInput struct {
	Title       string `validate:"notblank,max=200" label:"Title" msg:"Enter a title"`
	Description string `validate:"max=4000" label:"Description"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /workspaces                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate creates a workspace from the new-workspace dialog. The
// dialog posts a multipart form with the first document.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(h.MaxUploadBytes + formOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.renderList(w, r, modal.Failed(modal.NewWorkspace, h.tooLargeMessage()), createForm{})
			return
		}
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/workspaces")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	form := createForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	reRender := func(msg string) {
		h.renderList(w, r, modal.Failed(modal.NewWorkspace, msg), form)
	}

	if res := inputval.Validate(createInput(form)); res.HasErrors() {
		reRender(res.First())
		return
	}

	up, err := filexfer.ReadUpload(r, DocumentField, h.MaxUploadBytes)
	switch {
	case errors.Is(err, filexfer.ErrNoFile):
		reRender("Choose a document to upload.")
		return
	case errors.Is(err, filexfer.ErrTooLarge):
		reRender(h.tooLargeMessage())
		return
	case err != nil:
		h.ErrLog.LogBadRequest(w, r, "read upload failed", err, "The document could not be read.", "/workspaces")
		return
	}
	if !inputval.IsValidDocumentName(up.Name) {
		reRender("The document needs a file name.")
		return
	}

	sess := h.session(r)
	var newID models.ID
	err = h.Mutate.Do(r.Context(), r, mutate.Op{
		Name:     "workspace_create",
		Category: audit.CategoryWorkspace,
		Target:   "workspace:" + form.Title,
	}, func(ctx context.Context) error {
		id, err := sess.CreateWorkspace(ctx, backend.NewWorkspace{
			Title:        form.Title,
			Description:  form.Description,
			DocumentName: up.Name,
			DocumentData: up.DataURL,
		})
		newID = id
		return err
	})

	dest := "/workspaces"
	if err == nil && !newID.IsZero() {
		dest = workspaceURL(newID)
		h.rememberWorkspace(r, newID)
		h.Log.Info("workspace created",
			zap.String("workspace", newID.String()),
			zap.String("document", up.Name),
			zap.Int("bytes", up.Size))
	}
	h.finish(w, r, "workspace_create", err, dest, "", reRender)
}

func (h *Handler) tooLargeMessage() string {
	return "The document is larger than " + filexfer.SizeLabel(h.MaxUploadBytes) + "."
}
