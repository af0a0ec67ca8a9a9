package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrIgnoredChange marks a well-formed change event the index does not act
// on, such as a delete or a change to another table.
var ErrIgnoredChange = errors.New("change ignored")

// RawChange is an undecoded change-feed message with its broker metadata.
type RawChange struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string
	// Commit acknowledges the message. Nil when the source has no offsets.
	Commit func(ctx context.Context) error
}

// ChangeOp is the kind of row-level change reported by the backend.
type ChangeOp string

const (
	ChangeInsert ChangeOp = "insert"
	ChangeUpdate ChangeOp = "update"
)

// BeachChange is a decoded change-feed event for the beaches table. Old is
// nil for inserts and for updates published without the previous row.
type BeachChange struct {
	Op  ChangeOp
	New BeachRecord
	Old *BeachRecord
}

// changeEnvelope is the JSON shape of a row-level change notification.
type changeEnvelope struct {
	Type      string    `json:"type"`
	Table     string    `json:"table"`
	Record    *BeachRow `json:"record"`
	OldRecord *BeachRow `json:"old_record"`
}

// DecodeChange parses a change-feed message. Deletes and changes to tables
// other than beaches return ErrIgnoredChange. The previous row is kept only
// when the payload carries its status, which requires full replica identity
// on the table.
func DecodeChange(raw RawChange) (BeachChange, error) {
	var env changeEnvelope
	if err := json.Unmarshal(raw.Value, &env); err != nil {
		return BeachChange{}, fmt.Errorf("decode change: %w", err)
	}
	if env.Table != "" && env.Table != "beaches" {
		return BeachChange{}, fmt.Errorf("%w: table %s", ErrIgnoredChange, env.Table)
	}

	var op ChangeOp
	switch strings.ToUpper(env.Type) {
	case "INSERT":
		op = ChangeInsert
	case "UPDATE":
		op = ChangeUpdate
	case "DELETE":
		return BeachChange{}, fmt.Errorf("%w: delete", ErrIgnoredChange)
	default:
		return BeachChange{}, fmt.Errorf("decode change: unknown type %q", env.Type)
	}

	if env.Record == nil {
		return BeachChange{}, errors.New("decode change: missing record")
	}
	rec, err := env.Record.ToRecord()
	if err != nil {
		return BeachChange{}, fmt.Errorf("decode change: %w", err)
	}
	change := BeachChange{Op: op, New: rec}

	if op == ChangeUpdate && env.OldRecord != nil && env.OldRecord.Status != "" {
		if env.OldRecord.ID == "" {
			env.OldRecord.ID = rec.ID
		}
		old, err := env.OldRecord.ToRecord()
		if err != nil {
			return BeachChange{}, fmt.Errorf("decode change: old record: %w", err)
		}
		change.Old = &old
	}
	return change, nil
}

// StatusChanged reports whether the change moves a known beach to a
// different bathing status.
func (c BeachChange) StatusChanged() bool {
	return c.Old != nil && c.Old.Status != c.New.Status
}

// StatusNotification tells one user that a beach they liked changed status.
type StatusNotification struct {
	BeachID    string      `json:"beach_id"`
	BeachName  string      `json:"beach_name"`
	UserID     string      `json:"user_id"`
	OldStatus  BeachStatus `json:"old_status"`
	NewStatus  BeachStatus `json:"new_status"`
	Title      string      `json:"title"`
	Body       string      `json:"body"`
	NotifiedAt time.Time   `json:"notified_at"`
}

// NewStatusNotification builds the notification for userID about the status
// transition carried by change. The caller must check StatusChanged first.
func NewStatusNotification(change BeachChange, userID string) StatusNotification {
	oldStatus := change.Old.Status
	return StatusNotification{
		BeachID:    change.New.ID,
		BeachName:  change.New.Name,
		UserID:     userID,
		OldStatus:  oldStatus,
		NewStatus:  change.New.Status,
		Title:      "🌊 " + change.New.Name,
		Body:       fmt.Sprintf(`Status mudou de "%s" para "%s"`, StatusLabel(oldStatus), StatusLabel(change.New.Status)),
		NotifiedAt: Now(),
	}
}

// StatusLabel returns the Portuguese display label for a bathing status.
func StatusLabel(s BeachStatus) string {
	switch s {
	case StatusSafe:
		return "Própria para banho"
	case StatusWarning:
		return "Atenção"
	case StatusDanger:
		return "Imprópria para banho"
	default:
		return string(s)
	}
}

// ParseStatus validates a raw status value from the backend.
func ParseStatus(raw string) (BeachStatus, error) {
	switch s := BeachStatus(raw); s {
	case StatusSafe, StatusWarning, StatusDanger:
		return s, nil
	default:
		return "", fmt.Errorf("unknown beach status %q", raw)
	}
}
