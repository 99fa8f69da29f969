package entity

// Employee lifecycle status constants
const (
	EmployeeStatusActive   = "ACTIVE"
	EmployeeStatusPending  = "PENDING"
	EmployeeStatusInactive = "INACTIVE"
)

// User role constants
const (
	RoleHR       = "HR"
	RoleEmployee = "EMPLOYEE"
	RoleAdmin    = "ADMIN"
)

// RequestKind identifies which form a request was submitted through
type RequestKind string

const (
	KindLeave      RequestKind = "LEAVE"      // leave and resignation
	KindOvertime   RequestKind = "OVERTIME"   // overtime registration
	KindAttendance RequestKind = "ATTENDANCE" // attendance correction
)

// IsValid reports whether the kind is known
func (k RequestKind) IsValid() bool {
	switch k {
	case KindLeave, KindOvertime, KindAttendance:
		return true
	}
	return false
}

// Action records what an approver did at a tier
type Action string

const (
	ActionApproved  Action = "APPROVED"
	ActionRejected  Action = "REJECTED"
	ActionEscalated Action = "ESCALATED"
)

// Notification recipient kinds
const (
	RecipientEmployee = "EMPLOYEE"
	RecipientUser     = "USER"
)
