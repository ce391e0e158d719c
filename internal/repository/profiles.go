package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sectrain/internal/model"
)

// ProfileRepo reads employee role profiles. Profiles are written by the HR
// integration, not by this service.
type ProfileRepo interface {
	// FindConfirmed returns the employee's confirmed role profile, or nil
	// when none exists.
	FindConfirmed(ctx context.Context, tenantID, employeeID string) (*model.RoleProfile, error)
}

type profileRepo struct {
	collection *mongo.Collection
}

// NewProfileRepo creates the role-profile repository.
func NewProfileRepo(s *Store) ProfileRepo {
	return &profileRepo{
		collection: s.db.Collection("role_profiles"),
	}
}

func (r *profileRepo) FindConfirmed(ctx context.Context, tenantID, employeeID string) (*model.RoleProfile, error) {
	filter := bson.M{
		"tenantId":   tenantID,
		"employeeId": employeeID,
		"confirmed":  true,
	}
	var profile model.RoleProfile
	err := r.collection.FindOne(ctx, filter).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
