// Package app wires the intake components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Lllllllleong/intakeledger/internal/audit"
	"github.com/Lllllllleong/intakeledger/internal/config"
	"github.com/Lllllllleong/intakeledger/internal/directory"
	"github.com/Lllllllleong/intakeledger/internal/gcp"
	"github.com/Lllllllleong/intakeledger/internal/ledger"
	"github.com/Lllllllleong/intakeledger/internal/metrics"
	"github.com/Lllllllleong/intakeledger/internal/notify"
	"github.com/Lllllllleong/intakeledger/internal/scoring"
	"github.com/Lllllllleong/intakeledger/internal/services"
	"github.com/Lllllllleong/intakeledger/internal/transport/httpapi"
)

// App holds every wired function plus the clients that need closing.
type App struct {
	Config  *config.Config
	Intake  *services.IntakeFunction
	Pointer *services.PointerFunction
	Mail    *services.MailFunction
	Billing *services.BillingFunction
	Metrics *metrics.Metrics
	Handler *httpapi.Handler

	closers []io.Closer
}

// New creates all clients and functions. On error, anything already opened
// is closed.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{Config: cfg, Metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close() //nolint:errcheck
		}
	}()

	sheets, err := gcp.NewSheetsStore(ctx, cfg.Ledger.SheetsRPS, cfg.Ledger.SheetsBurst)
	if err != nil {
		return nil, err
	}
	dir := directory.New(sheets, cfg.Directory)

	locker, err := a.newLocker(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	engine, err := ledger.NewEngine(sheets, locker, cfg.Ledger)
	if err != nil {
		return nil, err
	}

	fs, err := gcp.NewFirestoreClient(ctx, cfg.Project.ID)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, fs)

	var scorer scoring.Scorer
	if cfg.Scoring.Enabled {
		vs, err := gcp.NewVertexScorer(ctx, cfg.Project.ID, cfg.Project.VertexAIRegion, cfg.Project.ScoringModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, vs)
		scorer = vs
	}
	gateway := scoring.NewGateway(scorer, gcp.NewRubricStore(fs, cfg.Audit.RubricCollection), engine, scoring.Config{
		Enabled:          cfg.Scoring.Enabled,
		StructuredRubric: cfg.Scoring.StructuredRubric,
		MinChars:         cfg.Limits.MinScoreChars,
		MaxChars:         cfg.Limits.MaxScoreChars,
	})

	gmailSvc, err := gcp.NewGmailService(ctx)
	if err != nil {
		return nil, err
	}
	dispatcher := notify.NewDispatcher(
		gcp.NewGmailSender(gmailSvc, cfg.Mail.Mailbox, cfg.Notify.SenderAddress),
		notify.Config{Enabled: cfg.Notify.Enabled, ReceiptOnSkip: cfg.Notify.ReceiptOnSkip},
	)

	store, err := gcp.NewObjectStore(ctx, cfg.Storage.Bucket)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store)

	a.Intake = services.NewIntakeFunction(services.IntakeDeps{
		Store:        store,
		Directory:    dir,
		Scoring:      gateway,
		Ledger:       engine,
		Notifier:     dispatcher,
		Audit:        audit.NewBestEffort(gcp.NewAuditWriter(fs, cfg.Audit.Collection), cfg.Audit.Timeout),
		Metrics:      a.Metrics,
		Limits:       cfg.Limits,
		UploadPrefix: cfg.Storage.UploadPrefix,
	})
	a.Pointer = services.NewPointerFunction(store, a.Intake, cfg.Limits.MaxAttachmentBytes, cfg.Storage.InboxPrefix)
	a.Mail = services.NewMailFunction(gcp.NewMailResolver(gmailSvc, cfg.Mail.Mailbox), dir, a.Intake, cfg.Limits, cfg.Mail.Concurrency)
	a.Billing = services.NewBillingFunction(dir)

	deps := httpapi.Deps{
		Upload:         a.Intake,
		Pointer:        a.Pointer,
		Mail:           a.Mail,
		Billing:        a.Billing,
		Metrics:        a.Metrics.Handler(),
		MaxUploadBytes: cfg.Limits.MaxAttachmentBytes,
	}
	if cfg.Mail.VerifyPush {
		deps.Push = gcp.NewPushVerifier(cfg.Mail.PushAudience)
	}
	a.Handler = httpapi.NewHandler(deps)

	slog.Info("Intake application initialized.",
		"bucket", cfg.Storage.Bucket,
		"scoringEnabled", cfg.Scoring.Enabled,
		"notifyEnabled", cfg.Notify.Enabled,
		"redisLock", cfg.Redis.Addr != "",
	)
	return a, nil
}

// newLocker uses Redis when an address is configured and an in-process
// keyed mutex otherwise.
func (a *App) newLocker(ctx context.Context, cfg config.RedisConfig) (ledger.Locker, error) {
	if cfg.Addr == "" {
		return ledger.NewKeyedMutex(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	a.closers = append(a.closers, client)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return ledger.NewRedisLocker(client, cfg.LockTTL), nil
}

// Close releases every client in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
