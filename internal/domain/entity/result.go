package entity

import (
	"encoding/json"
)

// Outcome distinguishes the three possible results of decoding a stream payload
type Outcome int

const (
	// OutcomeNoEvents means the payload was processed and nothing decoded
	OutcomeNoEvents Outcome = iota
	// OutcomeEvents means at least one transfer was decoded
	OutcomeEvents
	// OutcomeFault means the pipeline itself failed; individual log failures never produce it
	OutcomeFault
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoEvents:
		return "no_events"
	case OutcomeEvents:
		return "events"
	case OutcomeFault:
		return "fault"
	default:
		return "unknown"
	}
}

// TransferSet holds the decoded transfers grouped by collection, in discovery order
type TransferSet struct {
	ERC20   []*ERC20Transfer  `json:"erc20"`
	ERC721  []*ERC721Transfer `json:"erc721"`
	ERC1155 []ERC1155Transfer `json:"erc1155"`
}

// NewTransferSet returns a set with empty, non-nil collections
func NewTransferSet() *TransferSet {
	return &TransferSet{
		ERC20:   make([]*ERC20Transfer, 0),
		ERC721:  make([]*ERC721Transfer, 0),
		ERC1155: make([]ERC1155Transfer, 0),
	}
}

// Len returns the total number of transfers across all collections
func (s *TransferSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ERC20) + len(s.ERC721) + len(s.ERC1155)
}

// Append moves every transfer of other to the end of s, collection by collection
func (s *TransferSet) Append(other *TransferSet) {
	if other == nil {
		return
	}
	s.ERC20 = append(s.ERC20, other.ERC20...)
	s.ERC721 = append(s.ERC721, other.ERC721...)
	s.ERC1155 = append(s.ERC1155, other.ERC1155...)
}

// DecodeResult is the value returned for every decoded payload
type DecodeResult struct {
	Outcome   Outcome
	Transfers *TransferSet
	Fault     string
}

// NoEvents builds the result for a payload that yielded nothing
func NoEvents() DecodeResult {
	return DecodeResult{Outcome: OutcomeNoEvents}
}

// Events builds the result for a decoded set; an empty set collapses to NoEvents
func Events(set *TransferSet) DecodeResult {
	if set.Len() == 0 {
		return NoEvents()
	}
	return DecodeResult{Outcome: OutcomeEvents, Transfers: set}
}

// Fault builds the result for a pipeline-level failure
func Fault(message string) DecodeResult {
	return DecodeResult{Outcome: OutcomeFault, Fault: message}
}

// Count returns the number of decoded transfers
func (r DecodeResult) Count() int {
	if r.Outcome != OutcomeEvents {
		return 0
	}
	return r.Transfers.Len()
}

// Relationships flattens the result into storage rows. Position numbers each
// row within its transaction so batch items sharing a tx hash stay distinct.
func (r DecodeResult) Relationships() []*TransferRelationship {
	if r.Outcome != OutcomeEvents {
		return nil
	}

	rels := make([]*TransferRelationship, 0, r.Transfers.Len())
	positions := make(map[string]int)
	add := func(t TokenTransfer) {
		rel := t.Relationship()
		rel.Position = positions[rel.TxHash]
		positions[rel.TxHash]++
		rels = append(rels, rel)
	}

	for _, t := range r.Transfers.ERC20 {
		add(t)
	}
	for _, t := range r.Transfers.ERC721 {
		add(t)
	}
	for _, t := range r.Transfers.ERC1155 {
		add(t)
	}
	return rels
}

type faultBody struct {
	Error string `json:"error"`
}

// MarshalJSON renders null, the transfer collections, or {"error": ...}
func (r DecodeResult) MarshalJSON() ([]byte, error) {
	switch r.Outcome {
	case OutcomeEvents:
		return json.Marshal(r.Transfers)
	case OutcomeFault:
		return json.Marshal(faultBody{Error: r.Fault})
	default:
		return []byte("null"), nil
	}
}
