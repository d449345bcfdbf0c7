package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeOp names the mutation that produced a change event.
type ChangeOp string

const (
	OpSave   ChangeOp = "save"
	OpDelete ChangeOp = "delete"
	OpClear  ChangeOp = "clear"
)

// LedgerChangedMessage announces that the transaction set changed. It carries
// no transaction data; receivers only drop their derived state.
type LedgerChangedMessage struct {
	Op        ChangeOp  `json:"op"`
	ID        string    `json:"id,omitempty"`
	Origin    string    `json:"origin"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage stamps a change event with the current time.
func NewLedgerChangedMessage(op ChangeOp, id, origin string, version int64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Op:        op,
		ID:        id,
		Origin:    origin,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a change event and checks its op.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpSave, OpDelete, OpClear:
	default:
		return nil, fmt.Errorf("unknown change op %q", msg.Op)
	}
	return &msg, nil
}
