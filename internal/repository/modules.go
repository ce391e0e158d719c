package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sectrain/internal/model"
)

// ModuleRepo stores training modules, one document per (session, index).
type ModuleRepo interface {
	CreateMany(ctx context.Context, modules []*model.TrainingModule) error
	GetBySession(ctx context.Context, tenantID, sessionID string) ([]*model.TrainingModule, error)
	Get(ctx context.Context, tenantID, sessionID string, moduleIndex int) (*model.TrainingModule, error)
	// UpdateVersioned writes the module if the stored version still matches
	// module.Version, bumping the version. A lost race is ErrConflict.
	UpdateVersioned(ctx context.Context, module *model.TrainingModule) error
	CountScored(ctx context.Context, tenantID, sessionID string) (int, error)
	// FindStale returns modules last touched before cutoff, for the
	// retention purge. Session terminality is the caller's check.
	FindStale(ctx context.Context, tenantID string, cutoff time.Time, limit int) ([]*model.TrainingModule, error)
}

type moduleRepo struct {
	collection *mongo.Collection
}

// NewModuleRepo creates the modules repository.
func NewModuleRepo(s *Store) ModuleRepo {
	return &moduleRepo{
		collection: s.db.Collection("training_modules"),
	}
}

func (r *moduleRepo) CreateMany(ctx context.Context, modules []*model.TrainingModule) error {
	docs := make([]interface{}, len(modules))
	for i, m := range modules {
		docs[i] = m
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *moduleRepo) GetBySession(ctx context.Context, tenantID, sessionID string) ([]*model.TrainingModule, error) {
	filter := bson.M{"tenantId": tenantID, "sessionId": sessionID}
	opts := options.Find().SetSort(bson.D{{Key: "moduleIndex", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var modules []*model.TrainingModule
	if err := cursor.All(ctx, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *moduleRepo) Get(ctx context.Context, tenantID, sessionID string, moduleIndex int) (*model.TrainingModule, error) {
	filter := bson.M{"tenantId": tenantID, "sessionId": sessionID, "moduleIndex": moduleIndex}
	var module model.TrainingModule
	err := r.collection.FindOne(ctx, filter).Decode(&module)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepo) UpdateVersioned(ctx context.Context, module *model.TrainingModule) error {
	filter := bson.M{
		"_id":      module.ID,
		"tenantId": module.TenantID,
		"version":  module.Version,
	}
	next := *module
	next.Version = module.Version + 1
	next.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return model.ErrConflict
	}
	module.Version = next.Version
	module.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *moduleRepo) CountScored(ctx context.Context, tenantID, sessionID string) (int, error) {
	filter := bson.M{
		"tenantId":  tenantID,
		"sessionId": sessionID,
		"status":    model.ModuleScored,
	}
	n, err := r.collection.CountDocuments(ctx, filter)
	return int(n), err
}

func (r *moduleRepo) FindStale(ctx context.Context, tenantID string, cutoff time.Time, limit int) ([]*model.TrainingModule, error) {
	filter := bson.M{
		"tenantId":  tenantID,
		"updatedAt": bson.M{"$lt": cutoff},
	}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "updatedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var modules []*model.TrainingModule
	if err := cursor.All(ctx, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}
