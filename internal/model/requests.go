package model

import "time"

// StartJobRequest is the MIP-003 /start_job request body.
type StartJobRequest struct {
	IdentifierFromPurchaser string            `json:"identifier_from_purchaser" validate:"required,min=3"`
	InputData               map[string]string `json:"input_data" validate:"required"`
}

// Amount is one payment amount entry (e.g. 10000000 lovelace).
type Amount struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// StartJobResponse echoes the payment-request timing fields the purchaser
// needs to lock funds on-chain.
type StartJobResponse struct {
	Status                    string   `json:"status"`
	JobID                     string   `json:"job_id"`
	BlockchainIdentifier      string   `json:"blockchainIdentifier"`
	PayByTime                 string   `json:"payByTime"`
	SubmitResultTime          string   `json:"submitResultTime"`
	UnlockTime                string   `json:"unlockTime"`
	ExternalDisputeUnlockTime string   `json:"externalDisputeUnlockTime"`
	AgentIdentifier           string   `json:"agentIdentifier"`
	SellerVKey                string   `json:"sellerVKey"`
	IdentifierFromPurchaser   string   `json:"identifierFromPurchaser"`
	Amounts                   []Amount `json:"amounts"`
	InputHash                 string   `json:"input_hash"`
}

// StatusResponse is the MIP-003 /status response.
type StatusResponse struct {
	JobID         string   `json:"job_id"`
	Status        JobState `json:"status"`
	PaymentStatus string   `json:"payment_status"`
	Result        *string  `json:"result"`
}

// ReflectionRequest submits a reflection check-in for a goal.
type ReflectionRequest struct {
	JobID         string `json:"job_id" validate:"required"`
	GoalID        string `json:"goal_id" validate:"required"`
	Status        string `json:"status" validate:"required,oneof=Done 'Partially Done' 'Not Done' 'In Progress'"`
	Notes         string `json:"notes"`
	Challenges    string `json:"challenges"`
	CheckInNumber int    `json:"check_in_number" validate:"omitempty,min=1"`
}

// ReflectionResponse returns the agent feedback for a check-in.
type ReflectionResponse struct {
	Status           string `json:"status"`
	JobID            string `json:"job_id"`
	GoalID           string `json:"goal_id"`
	ReflectionNumber int    `json:"reflection_number"`
	Feedback         string `json:"feedback"`
}

// CompleteGoalRequest submits a goal completion claim for verification.
type CompleteGoalRequest struct {
	JobID              string `json:"job_id" validate:"required"`
	GoalID             string `json:"goal_id" validate:"required"`
	UserClaimsDone     bool   `json:"user_claims_done"`
	Evidence           string `json:"evidence" validate:"required"`
	SelfAssessment     string `json:"self_assessment" validate:"required,oneof=Done 'Partially Done' 'Not Done'"`
	VerificationMethod string `json:"verification_method"`
}

// CompleteGoalResponse returns the verification judgment and token split.
type CompleteGoalResponse struct {
	Status             string        `json:"status"`
	JobID              string        `json:"job_id"`
	GoalID             string        `json:"goal_id"`
	VerificationResult *Verification `json:"verification_result"`
	Recovered          bool          `json:"recovered,omitempty"`
	Message            string        `json:"message"`
}

// Verification is the structured outcome of the completion-verification
// stage: judgment, completion estimate and token distribution.
type Verification struct {
	GoalID            string `json:"goalId"`
	Judgment          string `json:"judgment"`
	CompletionPercent int    `json:"completionPercent"`
	RewardTokens      int    `json:"rewardTokens"`
	RemorseTokens     int    `json:"remorseTokens"`
	BonusTokens       int    `json:"bonusTokens"`
	Badge             string `json:"badge,omitempty"`
	Narrative         string `json:"narrative"`
}

// GoalStatusResponse summarises a goal's accountability progress.
type GoalStatusResponse struct {
	GoalID           string      `json:"goal_id"`
	JobID            string      `json:"job_id"`
	Status           JobState    `json:"status"`
	PaymentStatus    string      `json:"payment_status"`
	PledgeAmount     int         `json:"pledge_amount"`
	ReflectionsCount int         `json:"reflections_count"`
	LastReflection   *StageEvent `json:"last_reflection,omitempty"`
	Result           *string     `json:"result"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
