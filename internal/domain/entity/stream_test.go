package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityUnmarshalJSON(t *testing.T) {
	cases := map[string]Quantity{
		`{"transactionIndex": "0x1a"}`: "0x1a",
		`{"transactionIndex": 26}`:     "26",
		`{"transactionIndex": null}`:   "",
		`{}`:                           "",
	}

	for input, want := range cases {
		var log RawLog
		require.NoError(t, json.Unmarshal([]byte(input), &log), input)
		assert.Equal(t, want, log.TransactionIndex, input)
	}

	var q Quantity
	assert.Error(t, q.UnmarshalJSON([]byte(`true`)))

	var log RawLog
	require.NoError(t, json.Unmarshal([]byte(`{"transactionIndex": true}`), &log))
	assert.Equal(t, Quantity(""), log.TransactionIndex)
}

func TestQuantityUint64(t *testing.T) {
	v, ok := Quantity("0x1a").Uint64()
	assert.True(t, ok)
	assert.Equal(t, uint64(26), v)

	v, ok = Quantity("26").Uint64()
	assert.True(t, ok)
	assert.Equal(t, uint64(26), v)

	_, ok = Quantity("").Uint64()
	assert.False(t, ok)

	_, ok = Quantity("0xzz").Uint64()
	assert.False(t, ok)
}

func TestStreamEnvelopeUnmarshal(t *testing.T) {
	payload := `{"data": [{"block": {"number": "0x10", "timestamp": "0x5"}, "receipts": [{"logs": [{"topics": ["0xabc"], "data": "0x"}]}]}]}`

	var envelope StreamEnvelope
	require.NoError(t, json.Unmarshal([]byte(payload), &envelope))

	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "0x5", envelope.Data[0].Block.Timestamp)
	require.Len(t, envelope.Data[0].Receipts, 1)
	assert.Equal(t, []string{"0xabc"}, envelope.Data[0].Receipts[0].Logs[0].Topics)
}

func TestRawBundleLenientUnmarshal(t *testing.T) {
	payload := `[
		"garbage",
		null,
		{"block": "text", "receipts": 5},
		{"block": false, "receipts": []},
		{"block": {"number": 16, "hash": 7, "timestamp": 1700000000}, "receipts": [
			"r",
			null,
			{"transactionHash": 1, "logs": [7, {"topics": [123, "0xabc"], "data": {}, "address": "0xc", "logIndex": "0x2"}]}
		]}
	]`

	var bundles []*RawBundle
	require.NoError(t, json.Unmarshal([]byte(payload), &bundles))
	require.Len(t, bundles, 5)

	assert.Equal(t, &RawBundle{}, bundles[0])
	assert.Nil(t, bundles[1])

	assert.Equal(t, &RawBlock{}, bundles[2].Block)
	assert.Nil(t, bundles[2].Receipts)

	assert.Nil(t, bundles[3].Block)
	assert.NotNil(t, bundles[3].Receipts)
	assert.Empty(t, bundles[3].Receipts)

	bundle := bundles[4]
	assert.Equal(t, &RawBlock{Number: "16", Timestamp: "1700000000"}, bundle.Block)
	require.Len(t, bundle.Receipts, 3)
	assert.Equal(t, &RawReceipt{}, bundle.Receipts[0])
	assert.Nil(t, bundle.Receipts[1])

	receipt := bundle.Receipts[2]
	assert.Equal(t, "", receipt.TransactionHash)
	require.Len(t, receipt.Logs, 2)
	assert.Equal(t, &RawLog{}, receipt.Logs[0])
	assert.Equal(t, &RawLog{Topics: []string{"", "0xabc"}, Address: "0xc", LogIndex: "0x2"}, receipt.Logs[1])
}
