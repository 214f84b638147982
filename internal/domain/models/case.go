// internal/domain/models/case.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Case is a fundraising need with a target and a running received total.
//
// ReceivedAmount is a cached sum of the amounts of every donation that
// references the case. Only casestore.AdjustReceived may change it.
type Case struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CaseName       string             `bson:"case_name" json:"caseName"`
	CaseNameCI     string             `bson:"case_name_ci" json:"-"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	NeedType       string             `bson:"need_type,omitempty" json:"needType,omitempty"`
	RequiredAmount float64            `bson:"required_amount" json:"requiredAmount"`
	ReceivedAmount float64            `bson:"received_amount" json:"receivedAmount"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}
