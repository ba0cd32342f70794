package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/intakeledger/internal/config"
	"github.com/Lllllllleong/intakeledger/internal/directory"
	"github.com/Lllllllleong/intakeledger/internal/gcp"
	"github.com/Lllllllleong/intakeledger/internal/models"
)

type mailSource interface {
	Resolve(ctx context.Context, messageID string) (gcp.MailMessage, error)
	Download(ctx context.Context, messageID string, att gcp.MailAttachment) ([]byte, error)
}

// MailFunction processes the attachments of one inbound email.
type MailFunction struct {
	mail        mailSource
	directory   customerResolver
	intake      *IntakeFunction
	limits      config.LimitsConfig
	concurrency int
}

// NewMailFunction creates a MailFunction processing at most concurrency
// attachments at once.
func NewMailFunction(mail mailSource, dir customerResolver, intake *IntakeFunction, limits config.LimitsConfig, concurrency int) *MailFunction {
	if concurrency < 1 {
		concurrency = 1
	}
	return &MailFunction{mail: mail, directory: dir, intake: intake, limits: limits, concurrency: concurrency}
}

// Process resolves the message, validates every attachment pointer and runs
// the pipeline for the accepted ones. A whole-submission rejection is
// returned as the error; per-attachment rejections are listed in the
// response. Download failures are returned so the push is redelivered.
func (f *MailFunction) Process(ctx context.Context, n models.MailNotification) (*models.IntakeResponse, error) {
	id := strings.TrimSpace(n.EmailID)
	if id == "" {
		return nil, f.reject(models.NewRejection(models.ReasonMissingField, "emailId", "an email identifier is required"))
	}
	logCtx := slog.With("emailId", id)

	msg, err := f.mail.Resolve(ctx, id)
	if err != nil {
		logCtx.Error("Failed to resolve inbound email.", "error", err)
		return nil, fmt.Errorf("failed to resolve email %s: %w", id, err)
	}

	toEmail := f.intakeAddress(ctx, logCtx, msg.Recipients)
	if toEmail == "" {
		return nil, f.reject(models.NewRejection(models.ReasonMissingField, "to", "the email has no recipients"))
	}

	accepted, rejected, rej := f.screen(msg.Attachments)
	if rej != nil {
		logCtx.Warn("Email rejected.", "reason", rej.Reason, "attachments", len(msg.Attachments))
		return nil, f.reject(rej)
	}
	logCtx.Info("Processing inbound email.", "toEmail", toEmail, "accepted", len(accepted), "rejected", len(rejected))

	results := make([]*models.PipelineResult, len(accepted))
	perDoc := make([]*models.RejectionError, len(accepted))

	g := new(errgroup.Group)
	g.SetLimit(f.concurrency)
	for i, att := range accepted {
		g.Go(func() error {
			data, err := f.mail.Download(ctx, id, att)
			if err != nil {
				logCtx.Error("Failed to download attachment.", "filename", att.Filename, "error", err)
				return fmt.Errorf("failed to download %s: %w", att.Filename, err)
			}
			r, err := f.intake.Process(ctx, Submission{
				Filename: att.Filename,
				Data:     data,
				ToEmail:  toEmail,
				Channel:  models.ChannelEmail,
			})
			var rej *models.RejectionError
			if errors.As(err, &rej) {
				perDoc[i] = rej
				return nil
			}
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &models.IntakeResponse{Rejected: rejected}
	for i := range accepted {
		if results[i] != nil {
			resp.Results = append(resp.Results, results[i])
		}
		if perDoc[i] != nil {
			resp.Rejected = append(resp.Rejected, perDoc[i])
		}
	}
	resp.Status = "processed"
	if len(resp.Results) == 0 {
		resp.Status = "rejected"
	}
	return resp, nil
}

// intakeAddress picks the first recipient known to the directory, falling
// back to the first recipient so the document is still audited.
func (f *MailFunction) intakeAddress(ctx context.Context, logCtx *slog.Logger, recipients []string) string {
	if len(recipients) == 0 {
		return ""
	}
	for _, addr := range recipients {
		_, err := f.directory.Resolve(ctx, addr)
		if err == nil {
			return addr
		}
		if !errors.Is(err, directory.ErrNotFound) {
			logCtx.Warn("Directory lookup failed while choosing intake address.", "error", err)
			break
		}
	}
	return recipients[0]
}

// screen applies count, type, size and aggregate limits to attachment
// pointers. Type and size failures reject only that attachment.
func (f *MailFunction) screen(atts []gcp.MailAttachment) ([]gcp.MailAttachment, []*models.RejectionError, *models.RejectionError) {
	if len(atts) == 0 {
		return nil, nil, models.NewRejection(models.ReasonMissingField, "attachments", "the email has no attachments")
	}
	if max := f.limits.MaxAttachments; max > 0 && len(atts) > max {
		return nil, nil, models.NewRejection(models.ReasonTooManyAttachments, "attachments",
			fmt.Sprintf("%d attachments; the limit is %d", len(atts), max))
	}

	var (
		accepted []gcp.MailAttachment
		rejected []*models.RejectionError
		total    int64
	)
	for _, att := range atts {
		if err := models.CheckFileType(att.Filename); err != nil {
			rejected = append(rejected, models.NewRejection(models.ReasonUnsupportedFileType, att.Filename, err.Error()))
			continue
		}
		if max := f.limits.MaxAttachmentBytes; max > 0 && att.Size > max {
			rejected = append(rejected, models.NewRejection(models.ReasonFileTooLarge, att.Filename,
				fmt.Sprintf("attachment is %d bytes; the limit is %d", att.Size, max)))
			continue
		}
		total += att.Size
		accepted = append(accepted, att)
	}
	if max := f.limits.MaxSubmissionBytes; max > 0 && total > max {
		return nil, nil, models.NewRejection(models.ReasonSubmissionTooLarge, "attachments",
			fmt.Sprintf("attachments total %d bytes; the limit is %d", total, max))
	}
	for _, rej := range rejected {
		f.intake.deps.Metrics.ObserveRejection(rej.Reason)
	}
	return accepted, rejected, nil
}

func (f *MailFunction) reject(rej *models.RejectionError) *models.RejectionError {
	f.intake.deps.Metrics.ObserveRejection(rej.Reason)
	return rej
}
