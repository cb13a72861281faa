package models

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTextLength bounds the message body before it reaches storage.
const MaxTextLength = 4096

var msisdnPattern = regexp.MustCompile(`^\+[0-9]+$`)

// Message is an inbound SMS delivery. MessageID comes from the sender and is
// the primary key; CreatedAt is assigned by the server at insert time.
type Message struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Ts        string  `json:"ts"`
	Text      *string `json:"text"`
	CreatedAt string  `json:"-"`
}

// SenderCount is one entry of the per-sender stats breakdown.
type SenderCount struct {
	From  string `json:"from"`
	Count int    `json:"count"`
}

// StatsSummary aggregates the whole message log. The timestamp bounds are nil
// when the log is empty.
type StatsSummary struct {
	TotalMessages  int           `json:"total_messages"`
	SendersCount   int           `json:"senders_count"`
	PerSender      []SenderCount `json:"messages_per_sender"`
	FirstMessageTs *string       `json:"first_message_ts"`
	LastMessageTs  *string       `json:"last_message_ts"`
}

// FieldError names one violated payload constraint.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every field violation found in a payload so the
// caller can fix the request in one round trip.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// Validate checks the externally supplied fields against the schema rules:
// non-empty id, E.164-like from/to, Z-suffixed ts, bounded text. Returns nil
// when the message is acceptable.
func (m *Message) Validate() *ValidationError {
	var fields []FieldError
	if m.MessageID == "" {
		fields = append(fields, FieldError{"message_id", "must be non-empty"})
	}
	if !msisdnPattern.MatchString(m.From) {
		fields = append(fields, FieldError{"from", "must be E.164-like (+digits)"})
	}
	if !msisdnPattern.MatchString(m.To) {
		fields = append(fields, FieldError{"to", "must be E.164-like (+digits)"})
	}
	if !strings.HasSuffix(m.Ts, "Z") {
		fields = append(fields, FieldError{"ts", "must end with Z"})
	}
	if m.Text != nil && utf8.RuneCountInString(*m.Text) > MaxTextLength {
		fields = append(fields, FieldError{"text", "text too long"})
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
