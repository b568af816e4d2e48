// Package docs implements the client-facing handlers for the document
// intelligence routes: upload, ask, summarize, and compare.
package docs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/docsense/gateway/internal/codec"
	"github.com/docsense/gateway/internal/domain"
	"github.com/docsense/gateway/internal/intake"
)

// Forwarder is the downstream call the handlers depend on.
type Forwarder interface {
	Forward(ctx context.Context, route domain.Route, payload any) ([]byte, error)
}

// uploadFormMemory bounds how much of a multipart upload is held in memory
// before spilling to disk.
const uploadFormMemory = 4 << 20

type Handler struct {
	intake *intake.Intake
	proxy  Forwarder
	logger *slog.Logger
}

func NewHandler(in *intake.Intake, proxy Forwarder, logger *slog.Logger) *Handler {
	return &Handler{intake: in, proxy: proxy, logger: logger}
}

// fail logs the failure with request context and writes the normalized
// error response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	codec.WriteError(w, err)
}

// HandleUpload validates and stages the uploaded file, forwards the staged
// path to the processing service, and relays its response. The staged file
// is discarded after the forward attempt, whether it succeeded or not.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadFormMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fail(w, r, domain.ErrFileTooLarge("File exceeds the maximum upload size"))
			return
		}
		h.fail(w, r, domain.ErrValidation("Invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, domain.ErrValidation("A file field is required"))
		return
	}
	defer file.Close()

	staged, err := h.intake.Stage(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer h.intake.Discard(staged)

	body, err := h.proxy.Forward(r.Context(), domain.RouteProcessDocument, &domain.ProcessDocumentRequest{
		FilePath:     staged,
		OriginalName: header.Filename,
		SessionID:    r.FormValue("sessionId"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	relay(w, body)
}

// HandleAsk validates the question schema and forwards it.
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req domain.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, domain.ErrValidation("Invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}

	body, err := h.proxy.Forward(r.Context(), domain.RouteAsk, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	relay(w, body)
}

// HandleSummarize forwards the summarize request and relays the response.
func (h *Handler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	var req domain.SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, domain.ErrValidation("Invalid request body"))
		return
	}

	body, err := h.proxy.Forward(r.Context(), domain.RouteSummarize, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	relay(w, body)
}

// HandleCompare forwards the compare request. The proxy stage reshapes the
// downstream payload so only the comparison field is relayed.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req domain.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, domain.ErrValidation("Invalid request body"))
		return
	}

	body, err := h.proxy.Forward(r.Context(), domain.RouteCompare, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	relay(w, body)
}

func relay(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
