package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePendingTeamLead, false},
		{StatePendingBranch, false},
		{StateApproved, true},
		{StateRejected, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending team lead", StatePendingTeamLead, true},
		{"rejected", StateRejected, true},
		{"unknown", State("ON_HOLD"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTier_ExpectedState(t *testing.T) {
	if got := TierTeamLead.ExpectedState(); got != StatePendingTeamLead {
		t.Errorf("TierTeamLead.ExpectedState() = %v, want %v", got, StatePendingTeamLead)
	}
	if got := TierBranch.ExpectedState(); got != StatePendingBranch {
		t.Errorf("TierBranch.ExpectedState() = %v, want %v", got, StatePendingBranch)
	}
	if Tier("HR").IsValid() {
		t.Error("Tier(HR) should not be valid")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePendingTeamLead).
		PermitIf(TriggerApprove, StatePendingBranch, func(ctx context.Context) bool {
			return false
		})

	machine := builder.Build(StatePendingTeamLead)

	err := machine.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != StatePendingTeamLead {
		t.Errorf("State should remain %v after failed Fire(), got %v", StatePendingTeamLead, machine.State())
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePendingTeamLead).
		Permit(TriggerApprove, StatePendingBranch)

	machine1 := builder.Build(StatePendingTeamLead)
	machine2 := builder.Build(StatePendingTeamLead)

	// configuring after Build must not affect machines already built
	builder.Configure(StatePendingTeamLead).Permit(TriggerReject, StateRejected)

	if err := machine1.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine2.State() != StatePendingTeamLead {
		t.Errorf("machine2 state = %v, want %v", machine2.State(), StatePendingTeamLead)
	}
	if machine2.CanFire(TriggerReject) {
		t.Error("machine2 should not see triggers configured after Build()")
	}
}

func TestApprovalMachine_PermittedTriggers(t *testing.T) {
	tests := []struct {
		state State
		want  map[Trigger]bool
	}{
		{StatePendingTeamLead, map[Trigger]bool{TriggerApprove: true, TriggerReject: true, TriggerEscalate: true}},
		{StatePendingBranch, map[Trigger]bool{TriggerApprove: true, TriggerReject: true}},
		{StateApproved, map[Trigger]bool{}},
		{StateRejected, map[Trigger]bool{}},
		{StateCancelled, map[Trigger]bool{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			got := NewApprovalMachine(tt.state).PermittedTriggers()
			if len(got) != len(tt.want) {
				t.Fatalf("PermittedTriggers() = %v, want %d triggers", got, len(tt.want))
			}
			for _, trigger := range got {
				if !tt.want[trigger] {
					t.Errorf("unexpected trigger %v in state %v", trigger, tt.state)
				}
			}
		})
	}
}

func TestNextState(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
		wantErr error
	}{
		{"team lead approves", StatePendingTeamLead, TriggerApprove, StatePendingBranch, nil},
		{"team lead rejects", StatePendingTeamLead, TriggerReject, StateRejected, nil},
		{"hr escalates", StatePendingTeamLead, TriggerEscalate, StatePendingBranch, nil},
		{"branch approves", StatePendingBranch, TriggerApprove, StateApproved, nil},
		{"branch rejects", StatePendingBranch, TriggerReject, StateRejected, nil},
		{"escalate from branch", StatePendingBranch, TriggerEscalate, "", ErrInvalidTransition},
		{"approve after approval", StateApproved, TriggerApprove, "", ErrInvalidTransition},
		{"reject after rejection", StateRejected, TriggerReject, "", ErrInvalidTransition},
		{"cancelled is a dead end", StateCancelled, TriggerApprove, "", ErrInvalidTransition},
		{"unknown state", State("DRAFT"), TriggerApprove, "", ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextState(context.Background(), tt.from, tt.trigger)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NextState() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NextState() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NextState() = %v, want %v", got, tt.want)
			}
		})
	}
}

// resolved while the package initializes, before any test runs
var initApproveNext, initApproveErr = NextState(context.Background(), StatePendingTeamLead, TriggerApprove)

func TestNextState_AvailableDuringPackageInit(t *testing.T) {
	if initApproveErr != nil {
		t.Fatalf("NextState during init returned error: %v", initApproveErr)
	}
	if initApproveNext != StatePendingBranch {
		t.Errorf("NextState during init = %s, want %s", initApproveNext, StatePendingBranch)
	}
}
