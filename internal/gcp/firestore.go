package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// AuditWriter stores audit records, one document per record ID.
type AuditWriter struct {
	client     *firestore.Client
	collection string
}

// NewAuditWriter creates an AuditWriter for collection.
func NewAuditWriter(client *firestore.Client, collection string) *AuditWriter {
	return &AuditWriter{client: client, collection: collection}
}

// Write creates the audit document. An existing ID is an error.
func (w *AuditWriter) Write(ctx context.Context, rec models.AuditRecord) error {
	if _, err := w.client.Collection(w.collection).Doc(rec.ID).Create(ctx, rec); err != nil {
		return fmt.Errorf("failed to create audit document %s: %w", rec.ID, err)
	}
	return nil
}

// RubricStore reads per-tenant scoring rubrics from documents keyed by
// customer ID with a string field "text".
type RubricStore struct {
	client     *firestore.Client
	collection string
}

// NewRubricStore creates a RubricStore for collection.
func NewRubricStore(client *firestore.Client, collection string) *RubricStore {
	return &RubricStore{client: client, collection: collection}
}

// Rubric returns the tenant's rubric, or "" when none is configured.
func (s *RubricStore) Rubric(ctx context.Context, customerID string) (string, error) {
	if customerID == "" {
		return "", nil
	}
	snap, err := s.client.Collection(s.collection).Doc(customerID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read rubric for %s: %w", customerID, err)
	}
	v, err := snap.DataAt("text")
	if err != nil {
		return "", nil
	}
	text, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("rubric for %s has non-string text field", customerID)
	}
	return strings.TrimSpace(text), nil
}
