package model

// WebSocket message types
const (
	WSMessageTypeState = "state"
	WSMessageTypeStage = "stage"
)

// WSStateMessage notifies job subscribers of a lifecycle or payment-state
// transition.
type WSStateMessage struct {
	Type          string   `json:"type"`
	JobID         string   `json:"jobId"`
	Status        JobState `json:"status"`
	PaymentStatus string   `json:"paymentStatus"`
	Error         string   `json:"error,omitempty"`
}

// WSStageMessage notifies job subscribers of an appended stage event.
type WSStageMessage struct {
	Type  string `json:"type"`
	JobID string `json:"jobId"`
	Stage Stage  `json:"stage"`
}
