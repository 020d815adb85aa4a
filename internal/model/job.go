package model

import "time"

// Job represents one unit of paid agent work tracked from creation to a
// terminal state. Records are owned by the store; everything outside the
// store works on copies.
type Job struct {
	ID                   string            `json:"id"`
	Kind                 JobKind           `json:"kind"`
	State                JobState          `json:"status"`
	PaymentState         string            `json:"payment_status"`
	BlockchainIdentifier string            `json:"blockchainIdentifier"`
	Input                map[string]string `json:"input_data"`
	InputHash            string            `json:"input_hash"`
	Result               *TaskOutput       `json:"result,omitempty"`
	Error                *string           `json:"error,omitempty"`
	PurchaserIdentifier  string            `json:"identifierFromPurchaser"`
	Goal                 *GoalDetails      `json:"goal,omitempty"`
	StageLog             []StageEvent      `json:"stageLog,omitempty"`
	Recovered            bool              `json:"recovered,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
	StartedAt            *time.Time        `json:"startedAt,omitempty"`
	CompletedAt          *time.Time        `json:"completedAt,omitempty"`
}

// Terminal reports whether the job can no longer change lifecycle state.
func (j *Job) Terminal() bool {
	return j.State == JobStateCompleted || j.State == JobStateFailed
}

// JobKind selects the execution path. It is decided once, at job creation,
// and never re-derived from the input afterwards.
type JobKind string

const (
	JobKindGeneric JobKind = "generic"
	JobKindGoal    JobKind = "goal"
)

// JobState is the job lifecycle state. Transitions only move forward:
// awaiting_payment -> running -> completed|failed.
type JobState string

const (
	JobStateAwaitingPayment JobState = "awaiting_payment"
	JobStateRunning         JobState = "running"
	JobStateCompleted       JobState = "completed"
	JobStateFailed          JobState = "failed"
)

// Payment states as last observed from the payment service. Advisory only;
// lifecycle transitions are driven by the monitor callback, not this field.
const (
	PaymentStatePending   = "pending"
	PaymentStateConfirmed = "confirmed"
	PaymentStateCompleted = "completed"
	PaymentStateUnknown   = "unknown"
	PaymentStateError     = "error"
)

// GoalDetails holds the goal-accountability attributes captured for jobs on
// the staged execution path.
type GoalDetails struct {
	GoalID             string `json:"goalId"`
	Description        string `json:"goalDescription"`
	PledgeAmount       int    `json:"pledgeAmount"`
	Duration           string `json:"duration"`
	VerificationMethod string `json:"verificationMethod"`
}

// Stage names for the accountability sub-workflow.
type Stage string

const (
	StageReflection   Stage = "reflection"
	StageVerification Stage = "verification"
)

// StageEvent is one appended sub-workflow record. The stage log is
// append-only and keeps growing after the job's main lifecycle is terminal.
type StageEvent struct {
	Timestamp     time.Time      `json:"timestamp"`
	Stage         Stage          `json:"stage"`
	CheckInNumber int            `json:"checkInNumber,omitempty"`
	Status        string         `json:"status,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	Result        string         `json:"result"`
}

// OutputKind tags a TaskOutput variant.
type OutputKind string

const (
	OutputText OutputKind = "text"
	OutputGoal OutputKind = "goal_creation"
)

// TaskOutput is what the executor adapter produces: either a plain text
// artifact (generic path) or a structured goal-creation result (staged path).
type TaskOutput struct {
	Kind OutputKind    `json:"kind"`
	Text string        `json:"text,omitempty"`
	Goal *GoalCreation `json:"goal,omitempty"`
}

// Proof resolves the output to the settlement string the payment service
// expects as proof of completion.
func (o *TaskOutput) Proof() string {
	switch o.Kind {
	case OutputGoal:
		if o.Goal != nil {
			return o.Goal.Summary
		}
		return ""
	default:
		return o.Text
	}
}

// GoalCreation is the structured result of the first stage of the goal
// workflow, produced synchronously with payment confirmation. Later stages
// go through the stage tracker instead.
type GoalCreation struct {
	GoalID             string `json:"goalId"`
	GoalDescription    string `json:"goalDescription"`
	PledgeAmount       int    `json:"pledgeAmount"`
	Duration           string `json:"duration"`
	VerificationMethod string `json:"verificationMethod"`
	Guidance           string `json:"guidance"`
	Summary            string `json:"summary"`
	NextSteps          string `json:"nextSteps"`
}
