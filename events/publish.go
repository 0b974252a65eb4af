// Package events defines the sync messages exchanged over NATS between the
// ledger API and the sheet ingester.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
)

// StreamName is the JetStream stream holding sync traffic.
const StreamName = "LEDGER"

// Subjects for sync traffic.
const (
	SyncRequestSubject   = "ledger.sync.request"
	SyncCompletedSubject = "ledger.sync.completed"
)

// PublishSyncRequest publishes a request for the sheet ingester to pull a
// fresh snapshot. source names the publishing component.
func PublishSyncRequest(ctx context.Context, nc *natsclient.Client, source string, req *SyncRequest) error {
	if nc == nil {
		return nil // Skip publishing if no NATS client (graceful degradation)
	}

	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid sync request: %w", err)
	}

	baseMsg := message.NewBaseMessage(SyncRequestType, req, source)
	data, err := json.Marshal(baseMsg)
	if err != nil {
		return fmt.Errorf("marshal sync request: %w", err)
	}

	if err := nc.PublishToStream(ctx, SyncRequestSubject, data); err != nil {
		return fmt.Errorf("publish sync request: %w", err)
	}

	return nil
}

// PublishSyncCompleted announces a finished sync run.
func PublishSyncCompleted(ctx context.Context, nc *natsclient.Client, source string, ev *SyncCompleted) error {
	if nc == nil {
		return nil // Skip publishing if no NATS client (graceful degradation)
	}

	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalid sync completion: %w", err)
	}

	baseMsg := message.NewBaseMessage(SyncCompletedType, ev, source)
	data, err := json.Marshal(baseMsg)
	if err != nil {
		return fmt.Errorf("marshal sync completion: %w", err)
	}

	if err := nc.PublishToStream(ctx, SyncCompletedSubject, data); err != nil {
		return fmt.Errorf("publish sync completion: %w", err)
	}

	return nil
}

// ParsePayload parses a message published by the sync publishers, unwrapping
// the BaseMessage envelope and decoding the typed payload.
func ParsePayload[T any](data []byte) (*T, error) {
	var rawMsg struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &rawMsg); err != nil {
		return nil, fmt.Errorf("unmarshal BaseMessage: %w", err)
	}
	if len(rawMsg.Payload) == 0 {
		return nil, fmt.Errorf("empty payload in BaseMessage")
	}

	var result T
	if err := json.Unmarshal(rawMsg.Payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal payload into %T: %w", result, err)
	}
	return &result, nil
}
