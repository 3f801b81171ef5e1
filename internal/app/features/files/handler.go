// internal/app/features/files/handler.go
package files

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	uierrors "github.com/dalemusser/sudhub/internal/app/features/errors"
	"github.com/dalemusser/sudhub/internal/app/system/auth"
	"github.com/dalemusser/sudhub/internal/app/system/backend"
	"github.com/dalemusser/sudhub/internal/app/system/filexfer"
	"github.com/dalemusser/sudhub/internal/app/system/viewdata"
	"github.com/dalemusser/sudhub/internal/app/system/viewstate"
	"github.com/dalemusser/sudhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler proxies backend documents to the browser.
type Handler struct {
	Backend *backend.Client
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

// NewHandler creates a new files Handler.
func NewHandler(be *backend.Client, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Backend: be, ErrLog: errLog, Log: logger}
}

type previewData struct {
	viewdata.BaseVM
	Name        string
	Text        string
	Error       string
	DownloadURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /files/{id}/view?name=                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeView fetches a document and hands it over according to its type:
// plain text is previewed in the page, images and video are served inline,
// anything else is a download under the backend's file name. download=1
// forces a download for any type.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	fileID := models.ID(chi.URLParam(r, "id"))
	fallback := query.Get(r, "name")
	if fallback == "" {
		fallback = "document"
	}

	data := previewData{
		BaseVM:      viewdata.NewBaseVM(r, fallback, "/workspaces"),
		Name:        fallback,
		DownloadURL: downloadURL(fileID, fallback),
	}

	f, err := h.Backend.Session(auth.CredentialFrom(r)).FetchFile(r.Context(), fileID)
	if err != nil {
		if h.ErrLog.SessionExpired(w, r, err) {
			return
		}
		if errors.Is(err, backend.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
		} else {
			h.Log.Warn("fetch file failed", zap.String("file", fileID.String()), zap.Error(err))
			w.WriteHeader(http.StatusBadGateway)
		}
		data.Error = viewstate.ErrorMessage(err)
		data.DownloadURL = ""
		templates.Render(w, r, "file_preview", data)
		return
	}

	name := filexfer.Filename(f.ContentDisposition, fallback)
	data.Name, data.Title = name, name

	disp := filexfer.Classify(f.ContentType)
	if query.Get(r, "download") == "1" {
		disp = filexfer.Download
	}

	switch disp {
	case filexfer.Inline:
		text, err := filexfer.PreviewText(f.ContentType, f.Data)
		if err != nil {
			data.Error = err.Error()
		}
		data.Text = text
		templates.Render(w, r, "file_preview", data)
	case filexfer.Open:
		serve(w, f, "inline", name)
	default:
		serve(w, f, "attachment", name)
	}
}

func serve(w http.ResponseWriter, f backend.File, disposition, name string) {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := w.Header()
	h.Set("Content-Type", ct)
	h.Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": name}))
	h.Set("Content-Length", strconv.Itoa(len(f.Data)))
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Security-Policy", "sandbox")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}

func downloadURL(fileID models.ID, name string) string {
	return "/files/" + fileID.String() + "/view?" + url.Values{"name": {name}, "download": {"1"}}.Encode()
}
