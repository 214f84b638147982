// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/donationhub/internal/app/store/audit"
)

// listItem is one audit event with actor and target usernames resolved.
type listItem struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Category   string            `json:"category"`
	EventType  string            `json:"eventType"`
	ActorName  string            `json:"actor,omitempty"`  // resolved from ActorID
	TargetName string            `json:"target,omitempty"` // resolved from UserID
	IP         string            `json:"ip,omitempty"`
	Success    bool              `json:"success"`
	Reason     string            `json:"failureReason,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Items      []listItem `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	Total      int64      `json:"total"`
}

// eventTypesByCategory lists the event types each category can hold.
var eventTypesByCategory = map[string][]string{
	audit.CategoryAuth: {
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedRateLimit,
		audit.EventUserRegistered,
		audit.EventDefaultAdminCreated,
	},
	audit.CategoryAdmin: {
		audit.EventCaseCreated,
		audit.EventCaseUpdated,
		audit.EventCaseDeleted,
		audit.EventDonorDeleted,
		audit.EventDonationRemoved,
		audit.EventLedgerReconciled,
	},
}

func validCategory(c string) bool {
	_, ok := eventTypesByCategory[c]
	return ok
}

func validEventType(category, t string) bool {
	for cat, types := range eventTypesByCategory {
		if category != "" && cat != category {
			continue
		}
		for _, et := range types {
			if et == t {
				return true
			}
		}
	}
	return false
}
