package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"sectrain/internal/model"
)

// AuditRepo appends lifecycle events. Append-only; there is no update path.
type AuditRepo interface {
	Append(ctx context.Context, event *model.AuditEvent) error
}

type auditRepo struct {
	collection *mongo.Collection
}

// NewAuditRepo creates the audit repository.
func NewAuditRepo(s *Store) AuditRepo {
	return &auditRepo{
		collection: s.db.Collection("audit_events"),
	}
}

func (r *auditRepo) Append(ctx context.Context, event *model.AuditEvent) error {
	_, err := r.collection.InsertOne(ctx, event)
	return err
}
