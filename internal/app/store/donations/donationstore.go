// Package donationstore persists donation documents. It never touches case
// counters; the ledger pairs every write here with casestore.AdjustReceived.
package donationstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/donationhub/internal/app/system/apperr"
	"github.com/dalemusser/donationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("donations")}
}

var errNotFound = apperr.NotFound("Donation not found")

// Update carries the mutable donation fields. Nil fields are left alone.
type Update struct {
	Amount      *float64
	Description *string
}

// Insert stores d with a fresh id. A zero Date becomes now.
func (s *Store) Insert(ctx context.Context, d models.Donation) (models.Donation, error) {
	d.ID = primitive.NewObjectID()
	if d.Date.IsZero() {
		d.Date = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Donation{}, fmt.Errorf("insert donation: %w", err)
	}
	return d, nil
}

// GetByID loads a donation by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Donation, error) {
	var d models.Donation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Donation{}, errNotFound
		}
		return models.Donation{}, fmt.Errorf("find donation: %w", err)
	}
	return d, nil
}

// UpdateReturningPrior applies upd and returns the document as it was before
// the write, read in the same atomic operation.
func (s *Store) UpdateReturningPrior(ctx context.Context, id primitive.ObjectID, upd Update) (models.Donation, error) {
	set := bson.M{}
	if upd.Amount != nil {
		set["amount"] = *upd.Amount
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if len(set) == 0 {
		return s.GetByID(ctx, id)
	}

	var prior models.Donation
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&prior)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Donation{}, errNotFound
		}
		return models.Donation{}, fmt.Errorf("update donation: %w", err)
	}
	return prior, nil
}

// DeleteReturning removes a donation and returns the removed document.
func (s *Store) DeleteReturning(ctx context.Context, id primitive.ObjectID) (models.Donation, error) {
	var d models.Donation
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Donation{}, errNotFound
		}
		return models.Donation{}, fmt.Errorf("delete donation: %w", err)
	}
	return d, nil
}

// Find returns donations matching filter.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Donation, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find donations: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Donation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode donations: %w", err)
	}
	return out, nil
}

// FindByCase returns every donation to caseID.
func (s *Store) FindByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Donation, error) {
	return s.Find(ctx, bson.M{"case_id": caseID})
}

// FindByDonor returns every donation from donorID.
func (s *Store) FindByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.Donation, error) {
	return s.Find(ctx, bson.M{"donor_id": donorID})
}

// DeleteByIDs removes the given donations and reports how many were deleted.
func (s *Store) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete donations: %w", err)
	}
	return res.DeletedCount, nil
}

// Restore re-inserts previously deleted donations with their original ids.
// Documents that are still present are skipped.
func (s *Store) Restore(ctx context.Context, ds ...models.Donation) error {
	if len(ds) == 0 {
		return nil
	}
	docs := make([]interface{}, len(ds))
	for i := range ds {
		docs[i] = ds[i]
	}
	_, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !onlyDuplicates(err) {
		return fmt.Errorf("restore donations: %w", err)
	}
	return nil
}

// Count returns the number of donations matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return s.c.CountDocuments(ctx, filter)
}

// ViewCursor opens a cursor over donations matching filter, most recent
// first, each joined with its donor and case names. A missing donor or case
// yields models.MissingName.
func (s *Store) ViewCursor(ctx context.Context, filter bson.M) (*mongo.Cursor, error) {
	if filter == nil {
		filter = bson.M{}
	}
	nameOr := func(field string) bson.M {
		return bson.M{"$ifNull": bson.A{
			bson.M{"$arrayElemAt": bson.A{field, 0}},
			models.MissingName,
		}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "donors",
			"localField":   "donor_id",
			"foreignField": "_id",
			"as":           "donor",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "cases",
			"localField":   "case_id",
			"foreignField": "_id",
			"as":           "case",
		}}},
		{{Key: "$project", Value: bson.M{
			"donor_id":    1,
			"case_id":     1,
			"amount":      1,
			"description": 1,
			"recorded_by": 1,
			"date":        1,
			"donor_name":  nameOr("$donor.name"),
			"case_name":   nameOr("$case.case_name"),
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate donation views: %w", err)
	}
	return cur, nil
}

// onlyDuplicates reports whether every write error in err is a duplicate key.
func onlyDuplicates(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return true
}
