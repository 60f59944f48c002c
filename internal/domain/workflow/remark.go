package workflow

// RemarkType classifies an audit-trail entry
type RemarkType string

const (
	RemarkInfo          RemarkType = "info"
	RemarkClarification RemarkType = "clarification"
	RemarkApproval      RemarkType = "approval"
	RemarkRejection     RemarkType = "rejection"
)

// IsValid returns true for the four known remark classifications
func (t RemarkType) IsValid() bool {
	switch t {
	case RemarkInfo, RemarkClarification, RemarkApproval, RemarkRejection:
		return true
	default:
		return false
	}
}

// RemarkTypeFor derives the classification of a transition remark from its target status.
// It never yields RemarkRejection; that tag is only set by manual annotation.
func RemarkTypeFor(target State) RemarkType {
	switch target {
	case StateCompleted:
		return RemarkApproval
	case StatePendingForClarification:
		return RemarkClarification
	default:
		return RemarkInfo
	}
}
