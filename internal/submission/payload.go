package submission

import (
	"time"
)

// Payload keys as they appear on the wire.
const (
	KeyTimestamp      = "timestamp"
	KeyName           = "name"
	KeyEmail          = "email"
	KeyResumeLink     = "resume_link"
	KeyRepositoryLink = "repository_link"
	KeyActionRunLink  = "action_run_link"
)

// Keys lists every payload key in canonical (sorted) order.
var Keys = []string{
	KeyActionRunLink,
	KeyEmail,
	KeyName,
	KeyRepositoryLink,
	KeyResumeLink,
	KeyTimestamp,
}

// Fields holds the caller-supplied values of a submission
type Fields struct {
	Name           string
	Email          string
	ResumeLink     string
	RepositoryLink string
	ActionRunLink  string
}

// Payload is a submission ready to be encoded and signed.
// It is built once per run and never mutated afterwards.
type Payload struct {
	Timestamp      string
	Name           string
	Email          string
	ResumeLink     string
	RepositoryLink string
	ActionRunLink  string
}

// New creates a payload stamped with now (converted to UTC)
func New(fields Fields, now time.Time) Payload {
	return Payload{
		Timestamp:      FormatTimestamp(now),
		Name:           fields.Name,
		Email:          fields.Email,
		ResumeLink:     fields.ResumeLink,
		RepositoryLink: fields.RepositoryLink,
		ActionRunLink:  fields.ActionRunLink,
	}
}

// Build stamps fields with the current time and returns the canonical JSON body.
func Build(fields Fields) ([]byte, error) {
	return New(fields, time.Now()).Encode()
}

// Map returns the payload as a flat key/value mapping.
func (p Payload) Map() map[string]string {
	return map[string]string{
		KeyTimestamp:      p.Timestamp,
		KeyName:           p.Name,
		KeyEmail:          p.Email,
		KeyResumeLink:     p.ResumeLink,
		KeyRepositoryLink: p.RepositoryLink,
		KeyActionRunLink:  p.ActionRunLink,
	}
}

// Encode serializes the payload as canonical JSON.
func (p Payload) Encode() ([]byte, error) {
	return EncodeCanonical(p.Map())
}

// FormatTimestamp renders t in UTC as ISO-8601 with an explicit +00:00 offset.
// Precision is microseconds; the fraction is dropped when it is zero.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	layout := "2006-01-02T15:04:05"
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		layout += ".000000"
	}
	return t.Format(layout) + "+00:00"
}
