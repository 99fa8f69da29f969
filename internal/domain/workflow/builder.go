package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides whether a configured transition may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects the transition chart and stamps out machines from it
type StateMachineBuilder interface {
	Configure(state State) StateConfiguration
	Build(initialState State) StateMachine
}

// StateConfiguration configures outgoing transitions of a single state
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type edge struct {
	to    State
	guard GuardFunc
}

// chart maps a source state to its outgoing edges per trigger
type chart map[State]map[Trigger][]edge

type stateConfig struct {
	from  State
	chart chart
}

type stateMachineBuilder struct {
	chart chart
}

type stateMachine struct {
	current State
	chart   chart
}

// NewBuilder creates an empty builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{chart: make(chart)}
}

func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	if _, ok := b.chart[state]; !ok {
		b.chart[state] = make(map[Trigger][]edge)
	}
	return &stateConfig{from: state, chart: b.chart}
}

// Build copies the chart so later Configure calls do not leak into built machines
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	copied := make(chart, len(b.chart))
	for state, edges := range b.chart {
		byTrigger := make(map[Trigger][]edge, len(edges))
		for trigger, list := range edges {
			byTrigger[trigger] = append([]edge(nil), list...)
		}
		copied[state] = byTrigger
	}

	return &stateMachine{current: initialState, chart: copied}
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	c.chart[c.from][trigger] = append(c.chart[c.from][trigger], edge{to: toState, guard: guard})
	return c
}

func (m *stateMachine) State() State {
	return m.current
}

// CanFire ignores guards; it only reports whether an edge is configured
func (m *stateMachine) CanFire(trigger Trigger) bool {
	return len(m.chart[m.current][trigger]) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	next, err := m.target(ctx, trigger)
	if err != nil {
		return err
	}
	m.current = next
	return nil
}

func (m *stateMachine) PermittedTriggers() []Trigger {
	edges := m.chart[m.current]
	triggers := make([]Trigger, 0, len(edges))
	for trigger := range edges {
		triggers = append(triggers, trigger)
	}
	return triggers
}

// target resolves the first edge whose guard passes, without moving the machine
func (m *stateMachine) target(ctx context.Context, trigger Trigger) (State, error) {
	edges, ok := m.chart[m.current]
	if !ok {
		return "", fmt.Errorf("%w: cannot fire trigger %s from state %s (no configuration)", ErrInvalidTransition, trigger, m.current)
	}

	list := edges[trigger]
	if len(list) == 0 {
		return "", fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, e := range list {
		if e.guard == nil || e.guard(ctx) {
			return e.to, nil
		}
	}

	return "", fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.current)
}
