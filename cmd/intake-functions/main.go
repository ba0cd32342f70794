package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/intakeledger/internal/app"
	"github.com/Lllllllleong/intakeledger/internal/config"
	"github.com/Lllllllleong/intakeledger/internal/models"
	"github.com/Lllllllleong/intakeledger/internal/transport/httpapi"
)

var (
	instance *app.App
	once     sync.Once
	initErr  error
)

func init() {
	functions.HTTP("HandleUpload", httpEntry(func(a *app.App) http.HandlerFunc { return a.Handler.Upload }))
	functions.HTTP("HandleStoragePointer", httpEntry(func(a *app.App) http.HandlerFunc { return a.Handler.StoragePointer }))
	functions.HTTP("HandleMailPush", httpEntry(func(a *app.App) http.HandlerFunc { return a.Handler.MailPush }))
	functions.HTTP("HandleBillingStatus", httpEntry(func(a *app.App) http.HandlerFunc { return a.Handler.BillingStatus }))
	functions.CloudEvent("HandleObjectFinalized", handleObjectFinalized)
}

// main is required by the Go Functions Framework.
func main() {}

// initialize builds the application once per instance.
func initialize() (*app.App, error) {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		app.NewLogger(cfg.Log)
		instance, initErr = app.New(context.Background(), cfg)
	})
	return instance, initErr
}

func httpEntry(pick func(*app.App) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := initialize()
		if err != nil {
			slog.Error("Critical error during function initialization.", "error", err)
			http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
			return
		}
		// The entry point name is the route, so the handler is served directly.
		httpapi.Wrap(slog.Default(), pick(a)).ServeHTTP(w, r)
	}
}

// handleObjectFinalized processes objects finalized under the inbox prefix.
// Returning an error marks the invocation failed so the event is retried.
func handleObjectFinalized(ctx context.Context, e cloudevents.Event) error {
	a, err := initialize()
	if err != nil {
		slog.Error("Critical error during function initialization.", "error", err)
		return err
	}

	var ev models.ObjectEvent
	if err := json.Unmarshal(e.Data(), &ev); err != nil {
		// A malformed payload will never parse; acknowledge it.
		slog.Error("Failed to unmarshal event data.", "error", err, "eventId", e.ID())
		return nil
	}

	if _, err := a.Pointer.HandleObjectEvent(ctx, ev); err != nil {
		return fmt.Errorf("failed to process gs://%s/%s: %w", ev.Bucket, ev.Name, err)
	}
	return nil
}
