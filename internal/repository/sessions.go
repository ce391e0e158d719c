package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sectrain/internal/model"
)

// SessionRepo stores training sessions. All lookups are tenant-scoped.
type SessionRepo interface {
	Create(ctx context.Context, session *model.TrainingSession) error
	GetByID(ctx context.Context, tenantID, id string) (*model.TrainingSession, error)
	// FindActive returns the employee's non-terminal session, or ErrNotFound.
	FindActive(ctx context.Context, tenantID, employeeID string) (*model.TrainingSession, error)
	// FindLatest returns the employee's most recent session by attempt
	// number, or ErrNotFound.
	FindLatest(ctx context.Context, tenantID, employeeID string) (*model.TrainingSession, error)
	// UpdateVersioned writes the session if the stored version still matches
	// session.Version, bumping the version. A lost race is ErrConflict.
	UpdateVersioned(ctx context.Context, session *model.TrainingSession) error
	// ListTenantIDs returns every tenant that owns at least one session.
	ListTenantIDs(ctx context.Context) ([]string, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates the sessions repository.
func NewSessionRepo(s *Store) SessionRepo {
	return &sessionRepo{
		collection: s.db.Collection("training_sessions"),
	}
}

// inactiveStatuses are the statuses that do not block a new session for the
// same employee: the terminal ones, plus failed attempts superseded by a
// remediation restart.
var inactiveStatuses = []model.SessionStatus{
	model.SessionPassed,
	model.SessionExhausted,
	model.SessionAbandoned,
	model.SessionInRemediation,
}

func (r *sessionRepo) Create(ctx context.Context, session *model.TrainingSession) error {
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, tenantID, id string) (*model.TrainingSession, error) {
	var session model.TrainingSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "tenantId": tenantID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) FindActive(ctx context.Context, tenantID, employeeID string) (*model.TrainingSession, error) {
	filter := bson.M{
		"tenantId":   tenantID,
		"employeeId": employeeID,
		"status":     bson.M{"$nin": inactiveStatuses},
	}
	var session model.TrainingSession
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) FindLatest(ctx context.Context, tenantID, employeeID string) (*model.TrainingSession, error) {
	filter := bson.M{"tenantId": tenantID, "employeeId": employeeID}
	opts := options.FindOne().SetSort(bson.D{{Key: "attemptNumber", Value: -1}})
	var session model.TrainingSession
	err := r.collection.FindOne(ctx, filter, opts).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) UpdateVersioned(ctx context.Context, session *model.TrainingSession) error {
	filter := bson.M{
		"_id":      session.ID,
		"tenantId": session.TenantID,
		"version":  session.Version,
	}
	next := *session
	next.Version = session.Version + 1

	result, err := r.collection.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return model.ErrConflict
	}
	session.Version = next.Version
	return nil
}

func (r *sessionRepo) ListTenantIDs(ctx context.Context) ([]string, error) {
	raw, err := r.collection.Distinct(ctx, "tenantId", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}
