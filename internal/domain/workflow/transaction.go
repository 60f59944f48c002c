package workflow

import "context"

// BuildTransactionStateMachine returns a machine positioned at current in which
// every status can reach every status, including itself. Whether a move is
// actually allowed is left entirely to guard, which normally encodes the
// role rule of the caller.
func BuildTransactionStateMachine(current State, guard GuardFunc) StateMachine {
	builder := NewBuilder()
	for _, from := range AllStates() {
		config := builder.Configure(from)
		for _, to := range AllStates() {
			trigger, _ := TriggerFor(to)
			config.PermitIf(trigger, to, guard)
		}
	}
	return builder.Build(current)
}

// NextStates lists the states the machine may move to from where it stands,
// in workflow order
func NextStates(ctx context.Context, machine StateMachine) []State {
	permitted := make(map[State]bool)
	for _, trigger := range machine.PermittedTriggers(ctx) {
		permitted[trigger.Target()] = true
	}

	next := make([]State, 0, len(permitted))
	for _, state := range AllStates() {
		if permitted[state] {
			next = append(next, state)
		}
	}
	return next
}
