package models

import "time"

type RoleRequestStatus string

const (
	RoleRequestNotSent  RoleRequestStatus = "notSent"
	RoleRequestPending  RoleRequestStatus = "pending"
	RoleRequestApproved RoleRequestStatus = "approved"
	RoleRequestRejected RoleRequestStatus = "rejected"
)

// RoleRequestTransitions lists the allowed status changes of a role request
var RoleRequestTransitions = map[RoleRequestStatus][]RoleRequestStatus{
	RoleRequestNotSent:  {RoleRequestPending},
	RoleRequestPending:  {RoleRequestApproved, RoleRequestRejected},
	RoleRequestRejected: {RoleRequestPending},
	RoleRequestApproved: {},
}

func (s RoleRequestStatus) CanTransitionTo(next RoleRequestStatus) bool {
	for _, allowed := range RoleRequestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RoleRequest tracks a user's application for the instructor role.
// Users without a row are in the notSent state.
type RoleRequest struct {
	UserID        string            `json:"user_id" gorm:"primaryKey;size:36"`
	RequestedRole UserRole          `json:"requested_role" gorm:"size:20;not null;default:instructor"`
	Cum           float64           `json:"cum"`
	Status        RoleRequestStatus `json:"status" gorm:"size:20;not null;index"`
	RequestDate   *time.Time        `json:"request_date"`
	ResponseDate  *time.Time        `json:"response_date"`
	ReviewedBy    *string           `json:"reviewed_by,omitempty" gorm:"size:36"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RoleRequest) TableName() string {
	return "role_requests"
}

// NewRoleRequest returns the implicit notSent request for a user
func NewRoleRequest(userID string) *RoleRequest {
	return &RoleRequest{
		UserID:        userID,
		RequestedRole: RoleInstructor,
		Status:        RoleRequestNotSent,
	}
}
