// Package httpapi exposes the intake functions over HTTP. The same handlers
// back the Cloud Functions entry points and the standalone chi server.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lllllllleong/intakeledger/internal/models"
	"github.com/Lllllllleong/intakeledger/internal/services"
)

//go:generate moq -out handlers_mock_test.go -pkg httpapi . uploadProcessor pointerProcessor mailProcessor billingProcessor pushVerifier

type uploadProcessor interface {
	Process(ctx context.Context, sub services.Submission) (*models.PipelineResult, error)
}

type pointerProcessor interface {
	Process(ctx context.Context, req models.StoragePointerRequest) (*models.PipelineResult, error)
}

type mailProcessor interface {
	Process(ctx context.Context, n models.MailNotification) (*models.IntakeResponse, error)
}

type billingProcessor interface {
	Process(ctx context.Context, req models.BillingStatusRequest) (models.BillingDecision, error)
}

type pushVerifier interface {
	Verify(ctx context.Context, authorization string) error
}

// multipartOverhead is allowed on top of the file itself for form fields
// and part headers.
const multipartOverhead = 1 << 20

// Deps are the processors behind each route. A nil Push disables push
// authentication; a nil Metrics omits /metrics.
type Deps struct {
	Upload         uploadProcessor
	Pointer        pointerProcessor
	Mail           mailProcessor
	Billing        billingProcessor
	Push           pushVerifier
	Metrics        http.Handler
	MaxUploadBytes int64
}

// Handler serves the intake routes.
type Handler struct {
	deps Deps
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// BillingStatusResponse is returned after a billing transition.
type BillingStatusResponse struct {
	Status     string                 `json:"status"`
	CustomerID string                 `json:"customerId"`
	Decision   models.BillingDecision `json:"decision"`
}

// Upload accepts a multipart form with a `file` part and a `toEmail` field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.deps.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeRejection(w, models.NewRejection(models.ReasonFileTooLarge, "file", "request body exceeds the upload limit"))
			return
		}
		writeRejection(w, models.NewRejection(models.ReasonInvalidField, "body", "expected a multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		writeRejection(w, models.NewRejection(models.ReasonMissingField, "file", "a file is required"))
		return
	}
	if err != nil {
		writeRejection(w, models.NewRejection(models.ReasonInvalidField, "file", err.Error()))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("Failed to read uploaded file.", "filename", header.Filename, "error", err)
		writeFailure(w)
		return
	}

	res, err := h.deps.Upload.Process(r.Context(), services.Submission{
		Filename: header.Filename,
		Data:     data,
		ToEmail:  r.FormValue("toEmail"),
		Channel:  models.ChannelUpload,
	})
	h.respond(w, r, res, err)
}

// StoragePointer accepts {key, toEmail?} naming an object already stored.
func (h *Handler) StoragePointer(w http.ResponseWriter, r *http.Request) {
	var req models.StoragePointerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.deps.Pointer.Process(r.Context(), req)
	h.respond(w, r, res, err)
}

// MailPush accepts a Pub/Sub push carrying {"emailId"}. Rejections are
// acknowledged with 200 so the subscription does not redeliver them; any
// other failure returns 500 and is redelivered.
func (h *Handler) MailPush(w http.ResponseWriter, r *http.Request) {
	if h.deps.Push != nil {
		if err := h.deps.Push.Verify(r.Context(), r.Header.Get("Authorization")); err != nil {
			slog.Warn("Rejected unauthenticated push.", "error", err)
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{
				Status: "rejected",
				Reason: "unauthorized",
				Error:  "push authentication failed",
			})
			return
		}
	}

	var env models.PushEnvelope
	if !decodeJSON(w, r, &env) {
		return
	}
	var n models.MailNotification
	if err := json.Unmarshal(env.Message.Data, &n); err != nil {
		slog.Warn("Acknowledging push with undecodable data.", "messageId", env.Message.MessageID, "error", err)
		writeJSON(w, http.StatusOK, models.IntakeResponse{
			Status:    "rejected",
			Rejected:  []*models.RejectionError{models.NewRejection(models.ReasonInvalidField, "message.data", "data is not a mail notification")},
			RequestID: RequestIDFromContext(r.Context()),
		})
		return
	}

	resp, err := h.deps.Mail.Process(r.Context(), n)
	var rej *models.RejectionError
	if errors.As(err, &rej) {
		writeJSON(w, http.StatusOK, models.IntakeResponse{
			Status:    "rejected",
			Rejected:  []*models.RejectionError{rej},
			RequestID: RequestIDFromContext(r.Context()),
		})
		return
	}
	if err != nil {
		writeFailure(w)
		return
	}
	resp.RequestID = RequestIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, resp)
}

// BillingStatus records a billing transition.
func (h *Handler) BillingStatus(w http.ResponseWriter, r *http.Request) {
	var req models.BillingStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	decision, err := h.deps.Billing.Process(r.Context(), req)
	var rej *models.RejectionError
	if errors.As(err, &rej) {
		writeRejection(w, rej)
		return
	}
	if err != nil {
		writeFailure(w)
		return
	}
	writeJSON(w, http.StatusOK, BillingStatusResponse{
		Status:     "updated",
		CustomerID: strings.TrimSpace(req.CustomerID),
		Decision:   decision,
	})
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, res *models.PipelineResult, err error) {
	var rej *models.RejectionError
	if errors.As(err, &rej) {
		writeRejection(w, rej)
		return
	}
	if err != nil {
		writeFailure(w)
		return
	}
	writeJSON(w, http.StatusOK, models.IntakeResponse{
		Status:    "processed",
		Results:   []*models.PipelineResult{res},
		RequestID: RequestIDFromContext(r.Context()),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Warn("Could not decode request body.", "path", r.URL.Path, "error", err)
		writeRejection(w, models.NewRejection(models.ReasonInvalidField, "body", "could not parse JSON"))
		return false
	}
	return true
}

// StatusForReason maps a rejection reason to its HTTP status.
func StatusForReason(reason string) int {
	switch reason {
	case models.ReasonFileTooLarge, models.ReasonSubmissionTooLarge, models.ReasonTooManyAttachments:
		return http.StatusRequestEntityTooLarge
	case models.ReasonUnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case models.ReasonNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func writeRejection(w http.ResponseWriter, rej *models.RejectionError) {
	writeJSON(w, StatusForReason(rej.Reason), models.ErrorResponse{
		Status: "rejected",
		Reason: rej.Reason,
		Field:  rej.Field,
		Error:  rej.Message,
	})
}

// writeFailure reports an internal error. Details are already logged by the
// processor.
func writeFailure(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
		Status: "error",
		Reason: "internal",
		Error:  "processing failed",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}
