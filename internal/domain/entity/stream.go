package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// StreamMessage represents one delivery of a block stream payload from NATS or the webhook
type StreamMessage struct {
	Payload    []byte    `json:"payload"`
	Source     string    `json:"source"`
	ReceivedAt time.Time `json:"received_at"`
}

// StreamEnvelope is the wrapper form of a stream payload, carrying the bundles under `data`
type StreamEnvelope struct {
	Data []*RawBundle `json:"data"`
}

// RawBundle represents one block together with its transaction receipts.
//
// Stream elements are decoded leniently: a field of the wrong JSON type is left
// at its zero value instead of failing the payload, so the presence checks of
// the bundle walker decide what is skipped.
type RawBundle struct {
	Block    *RawBlock     `json:"block"`
	Receipts []*RawReceipt `json:"receipts"`
}

// UnmarshalJSON decodes a bundle, leaving mistyped fields empty
func (b *RawBundle) UnmarshalJSON(data []byte) error {
	var raw struct {
		Block    json.RawMessage `json:"block"`
		Receipts json.RawMessage `json:"receipts"`
	}
	*b = RawBundle{}
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}
	b.Block = lenientObject[RawBlock](raw.Block)
	b.Receipts = lenientObjects[RawReceipt](raw.Receipts)
	return nil
}

// RawBlock carries the block header fields the decoder needs
type RawBlock struct {
	Number    string `json:"number,omitempty"`
	Hash      string `json:"hash,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// UnmarshalJSON decodes a block header. Numeric quantities are kept as their JSON text.
func (b *RawBlock) UnmarshalJSON(data []byte) error {
	var raw struct {
		Number    json.RawMessage `json:"number"`
		Hash      json.RawMessage `json:"hash"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	*b = RawBlock{}
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}
	b.Number = lenientQuantity(raw.Number).String()
	b.Hash = lenientString(raw.Hash)
	b.Timestamp = lenientQuantity(raw.Timestamp).String()
	return nil
}

// RawReceipt represents a transaction receipt and its logs in emission order
type RawReceipt struct {
	TransactionHash string    `json:"transactionHash,omitempty"`
	Logs            []*RawLog `json:"logs"`
}

// UnmarshalJSON decodes a receipt, leaving mistyped fields empty
func (r *RawReceipt) UnmarshalJSON(data []byte) error {
	var raw struct {
		TransactionHash json.RawMessage `json:"transactionHash"`
		Logs            json.RawMessage `json:"logs"`
	}
	*r = RawReceipt{}
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}
	r.TransactionHash = lenientString(raw.TransactionHash)
	r.Logs = lenientObjects[RawLog](raw.Logs)
	return nil
}

// RawLog represents a contract log record as delivered by the stream
type RawLog struct {
	Address          string   `json:"address"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	TransactionHash  string   `json:"transactionHash"`
	TransactionIndex Quantity `json:"transactionIndex"`
	LogIndex         Quantity `json:"logIndex,omitempty"`
}

// UnmarshalJSON decodes a log. A non-string topic is kept as "" so it never matches a signature.
func (l *RawLog) UnmarshalJSON(data []byte) error {
	var raw struct {
		Address          json.RawMessage `json:"address"`
		Topics           json.RawMessage `json:"topics"`
		Data             json.RawMessage `json:"data"`
		TransactionHash  json.RawMessage `json:"transactionHash"`
		TransactionIndex json.RawMessage `json:"transactionIndex"`
		LogIndex         json.RawMessage `json:"logIndex"`
	}
	*l = RawLog{}
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}
	l.Address = lenientString(raw.Address)
	l.Topics = lenientStrings(raw.Topics)
	l.Data = lenientString(raw.Data)
	l.TransactionHash = lenientString(raw.TransactionHash)
	l.TransactionIndex = lenientQuantity(raw.TransactionIndex)
	l.LogIndex = lenientQuantity(raw.LogIndex)
	return nil
}

// Quantity keeps a JSON scalar as text. Streams send quantities either as
// hex strings ("0x1a") or plain numbers; both are kept verbatim.
type Quantity string

// UnmarshalJSON accepts a JSON string, number or null
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quantity(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*q = Quantity(n.String())
	return nil
}

// String returns the raw text of the quantity
func (q Quantity) String() string {
	return string(q)
}

// Uint64 parses the quantity as hex (0x-prefixed) or decimal
func (q Quantity) Uint64() (uint64, bool) {
	s := string(q)
	if s == "" {
		return 0, false
	}
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

// lenientObject returns nil for an absent, null or falsy element and a decoded T otherwise
func lenientObject[T any](raw json.RawMessage) *T {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return nil
	}
	v := new(T)
	_ = json.Unmarshal(raw, v)
	return v
}

// lenientObjects returns nil unless raw is a JSON array
func lenientObjects[T any](raw json.RawMessage) []*T {
	var elems []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &elems) != nil || elems == nil {
		return nil
	}
	out := make([]*T, len(elems))
	for i, elem := range elems {
		out[i] = lenientObject[T](elem)
	}
	return out
}

func lenientString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func lenientStrings(raw json.RawMessage) []string {
	var elems []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &elems) != nil || elems == nil {
		return nil
	}
	out := make([]string, len(elems))
	for i, elem := range elems {
		out[i] = lenientString(elem)
	}
	return out
}

func lenientQuantity(raw json.RawMessage) Quantity {
	var q Quantity
	if len(raw) == 0 || q.UnmarshalJSON(raw) != nil {
		return ""
	}
	return q
}
