package workflow

// State represents the status of an approval request
type State string

const (
	StatePendingTeamLead State = "PENDING_TEAM_LEAD"
	StatePendingBranch   State = "PENDING_BRANCH"
	StateApproved        State = "APPROVED"
	StateRejected        State = "REJECTED"

	// StateCancelled is declared for storage compatibility; no transition produces it.
	StateCancelled State = "CANCELLED"
)

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	switch s {
	case StateApproved, StateRejected, StateCancelled:
		return true
	}
	return false
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	switch s {
	case StatePendingTeamLead, StatePendingBranch, StateApproved, StateRejected, StateCancelled:
		return true
	}
	return false
}
