package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// OperationRecord is the audit line emitted once per executed trusted operation.
type OperationRecord struct {
	Time     time.Time `json:"time"`
	Shard    string    `json:"shard"`
	Kind     string    `json:"kind"`
	Variant  string    `json:"variant"`
	Sender   string    `json:"sender,omitempty"`
	CallHash string    `json:"call_hash,omitempty"`
	Outcome  string    `json:"outcome"`
	Elapsed  uint32    `json:"elapsed,omitempty"`
}

var fieldOrder = []string{"time", "shard", "kind", "variant", "sender", "call_hash", "outcome", "elapsed"}

// MarshalJSON preserves field order and omits empty optional values.
func (r OperationRecord) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	writeField := func(key string, val []byte) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, `"%s":`, key)
		buf.Write(val)
	}
	for _, f := range fieldOrder {
		switch f {
		case "time":
			b, _ := json.Marshal(r.Time)
			writeField(f, b)
		case "shard":
			b, _ := json.Marshal(r.Shard)
			writeField(f, b)
		case "kind":
			b, _ := json.Marshal(r.Kind)
			writeField(f, b)
		case "variant":
			b, _ := json.Marshal(r.Variant)
			writeField(f, b)
		case "sender":
			if r.Sender != "" {
				b, _ := json.Marshal(r.Sender)
				writeField(f, b)
			}
		case "call_hash":
			if r.CallHash != "" {
				b, _ := json.Marshal(r.CallHash)
				writeField(f, b)
			}
		case "outcome":
			b, _ := json.Marshal(r.Outcome)
			writeField(f, b)
		case "elapsed":
			if r.Elapsed != 0 {
				b, _ := json.Marshal(r.Elapsed)
				writeField(f, b)
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Operation logs an audit record at info level under the given module.
func Operation(module string, rec OperationRecord) {
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}
	msg, err := json.Marshal(rec)
	if err != nil {
		Error(module, "Operation: failed to marshal record", "err", err)
		return
	}
	Info(module, "operation", "record", string(msg))
}
