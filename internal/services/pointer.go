package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/Lllllllleong/intakeledger/internal/gcp"
	"github.com/Lllllllleong/intakeledger/internal/models"
)

// PointerFunction processes documents already placed in the object store,
// either named in a request or announced by an object-finalized event.
type PointerFunction struct {
	store       objectStore
	intake      *IntakeFunction
	maxBytes    int64
	inboxPrefix string
}

// NewPointerFunction creates a PointerFunction. Only objects under
// inboxPrefix are taken from finalize events.
func NewPointerFunction(store objectStore, intake *IntakeFunction, maxBytes int64, inboxPrefix string) *PointerFunction {
	return &PointerFunction{store: store, intake: intake, maxBytes: maxBytes, inboxPrefix: inboxPrefix}
}

// Process validates the pointer, downloads the object and runs the pipeline.
// Type and size are checked before any bytes are fetched.
func (f *PointerFunction) Process(ctx context.Context, req models.StoragePointerRequest) (*models.PipelineResult, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, f.reject(models.NewRejection(models.ReasonMissingField, "key", "an object key is required"))
	}
	if err := models.CheckFileType(key); err != nil {
		var rej *models.RejectionError
		if errors.As(err, &rej) {
			rej.Field = "key"
			return nil, f.reject(rej)
		}
		return nil, err
	}

	logCtx := slog.With("gcsObject", key)
	info, err := f.store.Stat(ctx, key)
	if errors.Is(err, gcp.ErrObjectNotFound) {
		return nil, f.reject(models.NewRejection(models.ReasonNotFound, "key", fmt.Sprintf("object %q does not exist", key)))
	}
	if err != nil {
		logCtx.Error("Failed to read object attributes.", "error", err)
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	if f.maxBytes > 0 && info.Size > f.maxBytes {
		return nil, f.reject(models.NewRejection(models.ReasonFileTooLarge, "key",
			fmt.Sprintf("object is %d bytes; the limit is %d", info.Size, f.maxBytes)))
	}

	toEmail := strings.TrimSpace(req.ToEmail)
	if toEmail == "" {
		toEmail = strings.TrimSpace(info.Metadata[gcp.MetadataToEmail])
	}
	if toEmail == "" {
		return nil, f.reject(models.NewRejection(models.ReasonMissingField, "toEmail",
			"no toEmail given and the object has no "+gcp.MetadataToEmail+" metadata"))
	}

	obj, err := f.store.Get(ctx, key, f.maxBytes)
	if errors.Is(err, gcp.ErrObjectTooLarge) {
		return nil, f.reject(models.NewRejection(models.ReasonFileTooLarge, "key", err.Error()))
	}
	if err != nil {
		logCtx.Error("Failed to download object.", "error", err)
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}

	return f.intake.Process(ctx, Submission{
		Filename: path.Base(key),
		Data:     obj.Data,
		ToEmail:  toEmail,
		Channel:  models.ChannelStorage,
		Pointer:  key,
	})
}

// HandleObjectEvent processes a finalized object under the inbox prefix.
// Rejections are logged and swallowed so the event is not redelivered;
// other errors are returned for retry.
func (f *PointerFunction) HandleObjectEvent(ctx context.Context, ev models.ObjectEvent) (*models.PipelineResult, error) {
	logCtx := slog.With("bucket", ev.Bucket, "gcsObject", ev.Name)
	if !strings.HasPrefix(ev.Name, f.inboxPrefix) || strings.HasSuffix(ev.Name, "/") {
		logCtx.Info("Object outside inbox prefix; ignoring.", "inboxPrefix", f.inboxPrefix)
		return nil, nil
	}
	logCtx.Info("Processing new GCS object.")

	r, err := f.Process(ctx, models.StoragePointerRequest{Key: ev.Name, ToEmail: ev.Metadata[gcp.MetadataToEmail]})
	if errors.Is(err, models.ErrRejected) {
		logCtx.Warn("Object rejected; event acknowledged.", "error", err)
		return nil, nil
	}
	return r, err
}

func (f *PointerFunction) reject(rej *models.RejectionError) *models.RejectionError {
	f.intake.deps.Metrics.ObserveRejection(rej.Reason)
	return rej
}
