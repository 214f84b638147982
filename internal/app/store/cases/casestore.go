package casestore

import (
	"context"
	"errors"
	"fmt"
	"math"
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
	return &Store{c: db.Collection("cases")}
}

var errNotFound = apperr.NotFound("Case not found")

// ErrReceivedMoved is returned by AdjustReceivedIf when the counter no longer
// holds the expected value.
var ErrReceivedMoved = errors.New("case received amount changed concurrently")

// CaseUpdate carries the fields a case edit may change. Nil fields are left
// alone. ReceivedAmount is deliberately absent; see AdjustReceived.
type CaseUpdate struct {
	CaseName       *string
	Description    *string
	NeedType       *string
	RequiredAmount *float64
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Create validates and inserts a case. ReceivedAmount always starts at zero.
func (s *Store) Create(ctx context.Context, c models.Case) (models.Case, error) {
	c.ID = primitive.NewObjectID()
	c.CaseName = normalize.Name(htmlsanitize.PlainText(c.CaseName))
	c.CaseNameCI = text.Fold(c.CaseName)
	c.Description = htmlsanitize.PlainText(c.Description)
	c.NeedType = normalize.Name(htmlsanitize.PlainText(c.NeedType))
	c.ReceivedAmount = 0

	if c.CaseName == "" {
		return models.Case{}, apperr.Validation("Case name is required")
	}
	if !validAmount(c.RequiredAmount) {
		return models.Case{}, apperr.Validation("Required amount must be a number ≥ 0")
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Case{}, fmt.Errorf("insert case: %w", err)
	}
	return c, nil
}

// GetByID loads a case by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Case, error) {
	var c models.Case
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Case{}, errNotFound
		}
		return models.Case{}, fmt.Errorf("find case: %w", err)
	}
	return c, nil
}

// GetByIDs loads multiple cases by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Case, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// Update applies upd and returns the updated case.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd CaseUpdate) (models.Case, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.CaseName != nil {
		name := normalize.Name(htmlsanitize.PlainText(*upd.CaseName))
		if name == "" {
			return models.Case{}, apperr.Validation("Case name is required")
		}
		set["case_name"] = name
		set["case_name_ci"] = text.Fold(name)
	}
	if upd.Description != nil {
		set["description"] = htmlsanitize.PlainText(*upd.Description)
	}
	if upd.NeedType != nil {
		set["need_type"] = normalize.Name(htmlsanitize.PlainText(*upd.NeedType))
	}
	if upd.RequiredAmount != nil {
		if !validAmount(*upd.RequiredAmount) {
			return models.Case{}, apperr.Validation("Required amount must be a number ≥ 0")
		}
		set["required_amount"] = *upd.RequiredAmount
	}

	var c models.Case
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Case{}, errNotFound
		}
		return models.Case{}, fmt.Errorf("update case: %w", err)
	}
	return c, nil
}

// AdjustReceived adds delta (which may be negative) to the case's received
// amount in a single $inc. It is the only writer of received_amount.
func (s *Store) AdjustReceived(ctx context.Context, id primitive.ObjectID, delta float64) error {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return apperr.Validation("Invalid amount")
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"received_amount": delta},
	})
	if err != nil {
		return fmt.Errorf("adjust received: %w", err)
	}
	if res.MatchedCount == 0 {
		return errNotFound
	}
	return nil
}

// AdjustReceivedIf applies delta only while the counter still equals
// expected. A counter that has moved yields ErrReceivedMoved and is left
// untouched.
func (s *Store) AdjustReceivedIf(ctx context.Context, id primitive.ObjectID, expected, delta float64) error {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return apperr.Validation("Invalid amount")
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "received_amount": expected}, bson.M{
		"$inc": bson.M{"received_amount": delta},
	})
	if err != nil {
		return fmt.Errorf("adjust received: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("check case: %w", err)
	}
	if n == 0 {
		return errNotFound
	}
	return ErrReceivedMoved
}

// List returns every case ordered by name.
func (s *Store) List(ctx context.Context) ([]models.Case, error) {
	return s.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "case_name_ci", Value: 1},
		{Key: "_id", Value: 1},
	}))
}

// Find returns cases matching filter.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Case, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find cases: %w", err)
	}
	defer cur.Close(ctx)

	cases := []models.Case{}
	if err := cur.All(ctx, &cases); err != nil {
		return nil, fmt.Errorf("decode cases: %w", err)
	}
	return cases, nil
}

// Count returns the number of cases.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// Delete removes a case. Donations referencing it are left alone; the
// ledger's RemoveCase does the cascade.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.DeleteReturning(ctx, id)
	return err
}

// DeleteReturning removes a case and returns the removed document.
func (s *Store) DeleteReturning(ctx context.Context, id primitive.ObjectID) (models.Case, error) {
	var c models.Case
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Case{}, errNotFound
		}
		return models.Case{}, fmt.Errorf("delete case: %w", err)
	}
	return c, nil
}

// Restore re-inserts a previously deleted case unchanged, counter included.
// It is the undo step for DeleteReturning.
func (s *Store) Restore(ctx context.Context, c models.Case) error {
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("restore case: %w", err)
	}
	return nil
}
