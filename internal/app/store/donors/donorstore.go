package donorstore

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/dalemusser/donationhub/internal/app/system/apperr"
	"github.com/dalemusser/donationhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/donationhub/internal/app/system/normalize"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("donors")}
}

var errNotFound = apperr.NotFound("Donor not found")

// Create validates and inserts a donor. Name and phone are required; email is
// optional but must parse when given.
func (s *Store) Create(ctx context.Context, d models.Donor) (models.Donor, error) {
	d.ID = primitive.NewObjectID()
	d.Name = normalize.Name(htmlsanitize.PlainText(d.Name))
	d.NameCI = text.Fold(d.Name)
	d.Phone = normalize.Phone(d.Phone)
	d.Email = normalize.Email(d.Email)
	d.CreatedAt = time.Now().UTC()

	if d.Name == "" || d.Phone == "" {
		return models.Donor{}, apperr.Validation("Name and phone are required")
	}
	if d.Email != "" {
		if _, err := mail.ParseAddress(d.Email); err != nil {
			return models.Donor{}, apperr.Validation("Invalid email")
		}
	}

	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Donor{}, fmt.Errorf("insert donor: %w", err)
	}
	return d, nil
}

// GetByID loads a donor by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Donor, error) {
	var d models.Donor
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Donor{}, errNotFound
		}
		return models.Donor{}, fmt.Errorf("find donor: %w", err)
	}
	return d, nil
}

// GetByIDs loads multiple donors by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Donor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// List returns every donor ordered by name.
func (s *Store) List(ctx context.Context) ([]models.Donor, error) {
	return s.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "name_ci", Value: 1},
		{Key: "_id", Value: 1},
	}))
}

// Find returns donors matching filter.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Donor, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find donors: %w", err)
	}
	defer cur.Close(ctx)

	donors := []models.Donor{}
	if err := cur.All(ctx, &donors); err != nil {
		return nil, fmt.Errorf("decode donors: %w", err)
	}
	return donors, nil
}

// Count returns the number of donors.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// Delete removes a donor. It does not touch donations; the ledger's
// RemoveDonor does the cascade.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.DeleteReturning(ctx, id)
	return err
}

// DeleteReturning removes a donor and returns the removed document.
func (s *Store) DeleteReturning(ctx context.Context, id primitive.ObjectID) (models.Donor, error) {
	var d models.Donor
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Donor{}, errNotFound
		}
		return models.Donor{}, fmt.Errorf("delete donor: %w", err)
	}
	return d, nil
}

// Restore re-inserts a previously deleted donor unchanged. It is the undo
// step for DeleteReturning.
func (s *Store) Restore(ctx context.Context, d models.Donor) error {
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("restore donor: %w", err)
	}
	return nil
}
