package store

import "time"

// Record is the durable trace of one summary request.
type Record struct {
	ID           string     `json:"id"`
	InputText    string     `json:"inputText"`
	SummaryText  string     `json:"summaryText,omitempty"`
	ClientOrigin string     `json:"clientOrigin,omitempty"`
	TotalTokens  int        `json:"totalTokens"`
	CostUSD      float64    `json:"costUsd"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// Completed reports whether the record has reached a terminal state.
func (r *Record) Completed() bool {
	return r.CompletedAt != nil
}

// Failed reports whether the record terminated with an error.
func (r *Record) Failed() bool {
	return r.ErrorMessage != ""
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	out := *r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
