package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityType represents the type of entity being audited.
type EntityType string

const (
	EntityTypeQuest EntityType = "QUEST"
	EntityTypeVote  EntityType = "VOTE"
)

// Action represents the audited operation.
type Action string

const (
	ActionCreate    Action = "CREATE"
	ActionDecision  Action = "DECISION"
	ActionPublish   Action = "PUBLISH"
	ActionAnswer    Action = "ANSWER"
	ActionSuccess   Action = "SUCCESS"
	ActionFinish    Action = "FINISH"
	ActionAdjourn   Action = "ADJOURN"
	ActionReject    Action = "REJECT"
	ActionRetrieve  Action = "RETRIEVE"
	ActionVote      Action = "VOTE"
	ActionReconcile Action = "RECONCILE"
)

// Log is a persisted audit entry.
type Log struct {
	ID         int64           `json:"id"`
	AuditID    uuid.UUID       `json:"auditId"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     Action          `json:"action"`
	Actor      string          `json:"actor"`
	TxRef      string          `json:"txRef,omitempty"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Signature  []byte          `json:"signature,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Entry is the input for creating a log.
type Entry struct {
	EntityType EntityType
	EntityID   string
	Action     Action
	Actor      string
	TxRef      string
	Detail     interface{}
	Reason     string
}

// NewLog builds a Log from an Entry.
func NewLog(entry *Entry) (*Log, error) {
	var detail json.RawMessage
	if entry.Detail != nil {
		data, err := json.Marshal(entry.Detail)
		if err != nil {
			return nil, err
		}
		detail = data
	}
	return &Log{
		AuditID:    uuid.New(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Actor:      entry.Actor,
		TxRef:      entry.TxRef,
		Detail:     detail,
		Reason:     entry.Reason,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Repository defines audit log persistence.
type Repository interface {
	Create(ctx context.Context, log *Log) error
	ListByEntity(ctx context.Context, entityType EntityType, entityID string, limit, offset int) ([]*Log, error)
}
