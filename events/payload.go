package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"

	"github.com/c360studio/ledgerstream/storage"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "ledger",
		Category:    "sync-request",
		Version:     "v1",
		Description: "Request to pull a fresh snapshot from the spreadsheet",
		Factory:     func() any { return &SyncRequest{} },
	})
	if err != nil {
		panic("failed to register SyncRequest: " + err.Error())
	}

	err = component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "ledger",
		Category:    "sync-completed",
		Version:     "v1",
		Description: "Announcement that a sync run finished",
		Factory:     func() any { return &SyncCompleted{} },
	})
	if err != nil {
		panic("failed to register SyncCompleted: " + err.Error())
	}
}

// SyncRequestType is the message type for sync request payloads.
var SyncRequestType = message.Type{Domain: "ledger", Category: "sync-request", Version: "v1"}

// SyncCompletedType is the message type for sync completion payloads.
var SyncCompletedType = message.Type{Domain: "ledger", Category: "sync-completed", Version: "v1"}

// SyncRequest asks the sheet ingester to pull a fresh snapshot.
type SyncRequest struct {
	RunID       string          `json:"run_id"`
	Trigger     storage.Trigger `json:"trigger"`
	RequestedAt time.Time       `json:"requested_at"`
}

func (r *SyncRequest) Schema() message.Type { return SyncRequestType }

func (r *SyncRequest) Validate() error {
	if r.RunID == "" {
		return errors.New("run ID is required")
	}
	switch r.Trigger {
	case storage.TriggerManual, storage.TriggerInterval, storage.TriggerStartup:
		return nil
	default:
		return fmt.Errorf("unknown trigger: %s", r.Trigger)
	}
}

func (r *SyncRequest) MarshalJSON() ([]byte, error) {
	type Alias SyncRequest
	return json.Marshal((*Alias)(r))
}

func (r *SyncRequest) UnmarshalJSON(data []byte) error {
	type Alias SyncRequest
	return json.Unmarshal(data, (*Alias)(r))
}

// SyncCompleted announces a finished sync run, successful or not.
type SyncCompleted struct {
	RunID            string    `json:"run_id"`
	SpreadsheetID    string    `json:"spreadsheet_id"`
	SyncedAt         time.Time `json:"synced_at"`
	TransactionCount int       `json:"transaction_count"`
	CategoryCount    int       `json:"category_count"`
	BalanceCount     int       `json:"balance_count"`
	Error            string    `json:"error,omitempty"`
}

func (c *SyncCompleted) Schema() message.Type { return SyncCompletedType }

func (c *SyncCompleted) Validate() error {
	if c.RunID == "" {
		return errors.New("run ID is required")
	}
	return nil
}

func (c *SyncCompleted) MarshalJSON() ([]byte, error) {
	type Alias SyncCompleted
	return json.Marshal((*Alias)(c))
}

func (c *SyncCompleted) UnmarshalJSON(data []byte) error {
	type Alias SyncCompleted
	return json.Unmarshal(data, (*Alias)(c))
}
