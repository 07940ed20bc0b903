package domain

import "time"

// FlowStatus is the overall state of an approval flow.
type FlowStatus string

const (
	FlowPending  FlowStatus = "PENDING"
	FlowApproved FlowStatus = "APPROVED"
	FlowRejected FlowStatus = "REJECTED"
)

// StepStatus is the state of a single flow step.
type StepStatus string

const (
	StepPending  StepStatus = "PENDING"
	StepApproved StepStatus = "APPROVED"
	StepRejected StepStatus = "REJECTED"
	StepSkipped  StepStatus = "SKIPPED"
)

// Approver is the identity under which an approval action is taken. The core
// trusts the (ID, Role) pair at face value; authentication is the host's job.
type Approver struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}

// StepAction records a single approver's vote on a step.
type StepAction struct {
	ActionID     string         `json:"actionID"` // Primary Key (UUID)
	ApproverID   string         `json:"approverID"`
	ApproverName string         `json:"approverName"`
	ApproverRole UserRole       `json:"approverRole"`
	Action       ApprovalAction `json:"action"`
	Comments     string         `json:"comments,omitempty"`
	ActedAt      time.Time      `json:"actedAt"`
}

// FlowStep is one level of an approval flow. The role set and required count
// are copied from the rule at flow creation, immune to later rule edits.
type FlowStep struct {
	Level         int          `json:"level"` // 1-based
	Roles         []UserRole   `json:"roles"`
	RequiredCount int          `json:"requiredCount"`
	Actions       []StepAction `json:"actions,omitempty"` // Append-only
	Status        StepStatus   `json:"status"`
	StartedAt     *time.Time   `json:"startedAt,omitempty"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
}

// ApprovedCount returns the number of recorded approvals on this step.
func (s *FlowStep) ApprovedCount() int {
	n := 0
	for _, a := range s.Actions {
		if a.Action == ActionApproved {
			n++
		}
	}
	return n
}

// RejectedCount returns the number of recorded rejections on this step.
func (s *FlowStep) RejectedCount() int {
	n := 0
	for _, a := range s.Actions {
		if a.Action == ActionRejected {
			n++
		}
	}
	return n
}

// HasActed reports whether the given approver already recorded an action on this step.
func (s *FlowStep) HasActed(approverID string) bool {
	for _, a := range s.Actions {
		if a.ApproverID == approverID {
			return true
		}
	}
	return false
}

// AcceptsRole reports whether role is a member of the step's accepted role set.
func (s *FlowStep) AcceptsRole(role UserRole) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ApprovalFlow is the live execution of a matched rule against one expense.
// It is retained as a permanent audit record once resolved.
type ApprovalFlow struct {
	FlowID    string `json:"flowID"` // Primary Key (UUID)
	ExpenseID string `json:"expenseID"`
	RuleID    string `json:"ruleID"`

	Mode         RuleMode `json:"mode"`
	CurrentLevel int      `json:"currentLevel"` // 1-based pointer into Steps
	TotalLevels  int      `json:"totalLevels"`

	// Percentage mode: the eligible voter list and threshold copied from the rule.
	Approvers           []RuleApprover `json:"approvers,omitempty"`
	PercentageThreshold *int           `json:"percentageThreshold,omitempty"`

	Status      FlowStatus `json:"status"`
	Steps       []FlowStep `json:"steps"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	AuditFields
}

// CurrentStep returns the step at the current level pointer, or nil if the
// pointer is out of range. An out-of-range pointer on a pending flow signals
// an internal invariant violation.
func (f *ApprovalFlow) CurrentStep() *FlowStep {
	if f.CurrentLevel < 1 || f.CurrentLevel > len(f.Steps) {
		return nil
	}
	return &f.Steps[f.CurrentLevel-1]
}

// EligibleApprover reports whether approverID is in the percentage-mode voter list.
func (f *ApprovalFlow) EligibleApprover(approverID string) (RuleApprover, bool) {
	for _, a := range f.Approvers {
		if a.ApproverID == approverID {
			return a, true
		}
	}
	return RuleApprover{}, false
}
