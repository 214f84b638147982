// internal/domain/models/donation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donation is a single contribution from a donor to a case.
type Donation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	DonorID     primitive.ObjectID `bson:"donor_id" json:"donorId"`
	CaseID      primitive.ObjectID `bson:"case_id" json:"caseId"`
	Amount      float64            `bson:"amount" json:"amount"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	RecordedBy  primitive.ObjectID `bson:"recorded_by,omitempty" json:"userId,omitempty"`
	Date        time.Time          `bson:"date" json:"date"`
}

// DonationView is a donation joined with the names of its donor and case.
// A name is "-" when the referenced document no longer exists.
type DonationView struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	DonorID     primitive.ObjectID `bson:"donor_id" json:"donorId"`
	DonorName   string             `bson:"donor_name" json:"donorName"`
	CaseID      primitive.ObjectID `bson:"case_id" json:"caseId"`
	CaseName    string             `bson:"case_name" json:"caseName"`
	Amount      float64            `bson:"amount" json:"amount"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	RecordedBy  primitive.ObjectID `bson:"recorded_by,omitempty" json:"userId,omitempty"`
	Date        time.Time          `bson:"date" json:"date"`
}

// MissingName stands in for the name of a deleted donor or case.
const MissingName = "-"
