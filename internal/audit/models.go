package audit

import "time"

// Action classifies an entry in the auth activity trail.
type Action string

const (
	ActionSignedIn       Action = "signed_in"
	ActionSignedOut      Action = "signed_out"
	ActionTokenRefreshed Action = "token_refreshed"
)

// Event is one auth activity record. Keep it transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject,omitempty"`
	Action    Action    `json:"action"`
}
