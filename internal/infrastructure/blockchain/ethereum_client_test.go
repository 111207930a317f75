package blockchain

import (
	"context"
	"math/big"
	"testing"

	"token-transfer-indexer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleFromChainDecodes(t *testing.T) {
	header := &types.Header{Number: big.NewInt(19000000), Time: 1700000000}
	txHash := common.HexToHash("0xabc")

	receipts := []*types.Receipt{{
		TxHash: txHash,
		Logs: []*types.Log{
			{
				Address: common.HexToAddress(tokenAddr),
				Topics: []common.Hash{
					TopicTransfer,
					common.BytesToHash(common.HexToAddress(senderAddr).Bytes()),
					common.BytesToHash(common.HexToAddress(receiverAddr).Bytes()),
				},
				Data:    common.BigToHash(big.NewInt(500)).Bytes(),
				TxHash:  txHash,
				TxIndex: 3,
			},
			{
				Address: common.HexToAddress(tokenAddr),
				Topics: []common.Hash{
					TopicTransfer,
					common.BytesToHash(common.HexToAddress(senderAddr).Bytes()),
					common.BytesToHash(common.HexToAddress(receiverAddr).Bytes()),
					common.BigToHash(big.NewInt(42)),
				},
				TxHash:  txHash,
				TxIndex: 3,
				Index:   1,
			},
		},
	}}

	bundle := BundleFromChain(header, receipts)
	require.Len(t, bundle.Receipts, 1)
	assert.Equal(t, "0x6553f100", bundle.Block.Timestamp)
	assert.Equal(t, "0x", bundle.Receipts[0].Logs[1].Data)
	assert.Equal(t, entity.Quantity("0x3"), bundle.Receipts[0].Logs[0].TransactionIndex)

	result := newTestDecoder().DecodeBundles([]*entity.RawBundle{bundle})
	require.Equal(t, entity.OutcomeEvents, result.Outcome)
	require.Len(t, result.Transfers.ERC20, 1)
	require.Len(t, result.Transfers.ERC721, 1)
	assert.Equal(t, "500", result.Transfers.ERC20[0].Value)
	assert.Equal(t, tokenAddr, result.Transfers.ERC20[0].Contract)
	assert.Equal(t, int64(1700000000000), result.Transfers.ERC20[0].BlockTimestamp)
	assert.Equal(t, "42", result.Transfers.ERC721[0].TokenID)
}

func TestNewEthereumClientRequiresURL(t *testing.T) {
	_, err := NewEthereumClient(context.Background(), "")
	assert.Error(t, err)
}
