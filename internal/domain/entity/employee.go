package entity

import "time"

// Employee is a directory record; the approval core only reads it
type Employee struct {
	ID              int64     `json:"id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	JobTitle        string    `json:"job_title"`
	DirectManager   string    `json:"direct_manager"`   // free-text tier-1 reference
	IndirectManager string    `json:"indirect_manager"` // free-text tier-2 reference
	Status          string    `json:"status,omitempty"` // empty means unset
	CreatedAt       time.Time `json:"created_at"`
}

// IsApproverCandidate reports whether the employee may be routed requests
func (e *Employee) IsApproverCandidate() bool {
	switch e.Status {
	case EmployeeStatusActive, EmployeeStatusPending, "":
		return true
	default:
		return false
	}
}

// User is a login account; HR actors are identified by role
type User struct {
	ID         int64  `json:"id"`
	EmployeeID *int64 `json:"employee_id,omitempty"`
	Username   string `json:"username"`
	Role       string `json:"role"`
}
