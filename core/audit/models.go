package audit

import (
	"encoding/json"
	"time"

	"github.com/yardimel/yardimel/core"
)

// Actions
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionView    = "view"
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Entry is one line of the audit trail. Entries are append-only: nothing in
// the application ever updates or deletes one.
type Entry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id,omitempty"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	ObjectID  string          `json:"object_id,omitempty"`
	Changes   json.RawMessage `json:"changes,omitempty"`
	IPAddress string          `json:"ip_address,omitempty"`
	UserAgent string          `json:"user_agent,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type QueryFilter struct {
	UserID   string     `query:"user_id"`
	Action   string     `query:"action"`
	Entity   string     `query:"entity"`
	ObjectID string     `query:"object_id"`
	From     *time.Time `query:"from"`
	To       *time.Time `query:"to"`
}

func (qf *QueryFilter) Clean() {
	qf.Action = core.CleanString(qf.Action, true /* lower */)
	qf.Entity = core.CleanString(qf.Entity, true /* lower */)
}
