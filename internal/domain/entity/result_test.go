package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResultMarshalJSON(t *testing.T) {
	t.Run("no events", func(t *testing.T) {
		encoded, err := json.Marshal(NoEvents())
		require.NoError(t, err)
		assert.Equal(t, "null", string(encoded))
	})

	t.Run("empty set collapses to no events", func(t *testing.T) {
		result := Events(NewTransferSet())
		assert.Equal(t, OutcomeNoEvents, result.Outcome)

		encoded, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Equal(t, "null", string(encoded))
	})

	t.Run("events", func(t *testing.T) {
		set := NewTransferSet()
		set.ERC20 = append(set.ERC20, &ERC20Transfer{
			Type:           TransferTypeERC20,
			Sender:         "0xa",
			Receiver:       "0xb",
			Value:          "100",
			Contract:       "0xc",
			TxHash:         "0xd",
			TxIndex:        "0x0",
			BlockTimestamp: 1000,
		})

		encoded, err := json.Marshal(Events(set))
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"erc20": [{"type": "ERC20", "sender": "0xa", "receiver": "0xb", "value": "100",
				"contract": "0xc", "txHash": "0xd", "txIndex": "0x0", "blockTimestamp": 1000}],
			"erc721": [],
			"erc1155": []
		}`, string(encoded))
	})

	t.Run("fault", func(t *testing.T) {
		encoded, err := json.Marshal(Fault("boom"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"error": "boom"}`, string(encoded))
	})
}

func TestDecodeResultCount(t *testing.T) {
	assert.Equal(t, 0, NoEvents().Count())
	assert.Equal(t, 0, Fault("x").Count())

	set := NewTransferSet()
	set.ERC721 = append(set.ERC721, &ERC721Transfer{TokenID: "1"})
	set.ERC1155 = append(set.ERC1155, &ERC1155SingleTransfer{}, &ERC1155BatchTransfer{})
	assert.Equal(t, 3, Events(set).Count())
}

func TestTransferSetAppend(t *testing.T) {
	first := NewTransferSet()
	first.ERC20 = append(first.ERC20, &ERC20Transfer{Value: "1"})

	second := NewTransferSet()
	second.ERC20 = append(second.ERC20, &ERC20Transfer{Value: "2"})
	second.ERC721 = append(second.ERC721, &ERC721Transfer{TokenID: "3"})

	first.Append(second)
	first.Append(nil)

	require.Len(t, first.ERC20, 2)
	assert.Equal(t, "1", first.ERC20[0].Value)
	assert.Equal(t, "2", first.ERC20[1].Value)
	assert.Len(t, first.ERC721, 1)
	assert.Equal(t, 3, first.Len())

	var nilSet *TransferSet
	assert.Equal(t, 0, nilSet.Len())
}

func TestDecodeResultRelationships(t *testing.T) {
	set := NewTransferSet()
	set.ERC20 = append(set.ERC20, &ERC20Transfer{
		Sender: "0xa", Receiver: "0xb", Value: "5", Contract: "0xc", TxHash: "0x1", TxIndex: "0x0", BlockTimestamp: 2000,
	})
	set.ERC721 = append(set.ERC721, &ERC721Transfer{
		Sender: "0xa", Receiver: "0xb", TokenID: "9", Contract: "0xd", TxHash: "0x2", TxIndex: "0x1",
	})
	set.ERC1155 = append(set.ERC1155,
		&ERC1155BatchTransfer{Operator: "0xo", From: "0xa", To: "0xb", TokenID: "1", Value: "10", TxHash: "0x1"},
		&ERC1155BatchTransfer{Operator: "0xo", From: "0xa", To: "0xb", TokenID: "2", Value: "20", TxHash: "0x1"},
	)

	rels := Events(set).Relationships()
	require.Len(t, rels, 4)

	assert.Equal(t, TransferTypeERC20, rels[0].Standard)
	assert.Equal(t, "0xa", rels[0].FromAddress)
	assert.Equal(t, "0xb", rels[0].ToAddress)
	assert.Equal(t, "5", rels[0].Value)
	assert.Equal(t, "0x0", rels[0].TxIndex)
	assert.Equal(t, 0, rels[0].Position)
	assert.Equal(t, time.UnixMilli(2000).UTC(), rels[0].Timestamp)

	assert.Equal(t, TransferTypeERC721, rels[1].Standard)
	assert.Equal(t, "1", rels[1].Value)
	assert.Equal(t, "9", rels[1].TokenID)
	assert.Equal(t, 0, rels[1].Position)

	assert.Equal(t, TransferTypeERC1155Batch, rels[2].Standard)
	assert.Equal(t, "0xo", rels[2].Operator)
	assert.Equal(t, 1, rels[2].Position)
	assert.Equal(t, 2, rels[3].Position)

	assert.Nil(t, NoEvents().Relationships())
	assert.Nil(t, Fault("x").Relationships())
}
