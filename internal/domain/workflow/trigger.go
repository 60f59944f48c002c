package workflow

// Trigger represents an event that can cause a state transition.
// Every target status has exactly one trigger.
type Trigger string

const (
	TriggerReturnToSociety      Trigger = "return_to_society"
	TriggerForwardToAgent       Trigger = "forward_to_agent"
	TriggerRequestClarification Trigger = "request_clarification"
	TriggerComplete             Trigger = "complete"
)

var triggerTargets = map[Trigger]State{
	TriggerReturnToSociety:      StatePendingOnSociety,
	TriggerForwardToAgent:       StatePendingOnAgent,
	TriggerRequestClarification: StatePendingForClarification,
	TriggerComplete:             StateCompleted,
}

// TriggerFor returns the trigger that moves a transaction into target
func TriggerFor(target State) (Trigger, bool) {
	for trigger, state := range triggerTargets {
		if state == target {
			return trigger, true
		}
	}
	return "", false
}

// Target returns the state the trigger leads to
func (t Trigger) Target() State {
	return triggerTargets[t]
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
