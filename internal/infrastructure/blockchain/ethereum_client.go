package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"token-transfer-indexer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// EthereumClient fetches blocks and receipts over JSON-RPC and shapes them as stream bundles
type EthereumClient struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewEthereumClient dials the RPC endpoint
func NewEthereumClient(ctx context.Context, rpcURL string) (*EthereumClient, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return &EthereumClient{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client
func (c *EthereumClient) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// LatestBlockNumber returns the chain head
func (c *EthereumClient) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// FetchBundle returns the block header and all receipts of one block
func (c *EthereumClient) FetchBundle(ctx context.Context, number uint64) (*entity.RawBundle, error) {
	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, fmt.Errorf("fetch header %d: %w", number, err)
	}

	receipts, err := c.ethClient.BlockReceipts(ctx, rpc.BlockNumberOrHashWithHash(header.Hash(), false))
	if err != nil {
		return nil, fmt.Errorf("fetch receipts %d: %w", number, err)
	}

	return BundleFromChain(header, receipts), nil
}

// FetchBundles fetches the inclusive range [from, to] in block order
func (c *EthereumClient) FetchBundles(ctx context.Context, from, to uint64) ([]*entity.RawBundle, error) {
	if to < from {
		return nil, fmt.Errorf("invalid block range %d-%d", from, to)
	}
	bundles := make([]*entity.RawBundle, 0, to-from+1)
	for n := from; n <= to; n++ {
		bundle, err := c.FetchBundle(ctx, n)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, bundle)
	}
	return bundles, nil
}

// BundleFromChain converts go-ethereum types into the stream representation
func BundleFromChain(header *types.Header, receipts []*types.Receipt) *entity.RawBundle {
	bundle := &entity.RawBundle{
		Block: &entity.RawBlock{
			Number:    hexutil.EncodeBig(header.Number),
			Hash:      header.Hash().Hex(),
			Timestamp: hexutil.EncodeUint64(header.Time),
		},
		Receipts: make([]*entity.RawReceipt, 0, len(receipts)),
	}

	for _, receipt := range receipts {
		raw := &entity.RawReceipt{
			TransactionHash: receipt.TxHash.Hex(),
			Logs:            make([]*entity.RawLog, 0, len(receipt.Logs)),
		}
		for _, log := range receipt.Logs {
			topics := make([]string, len(log.Topics))
			for i, topic := range log.Topics {
				topics[i] = topic.Hex()
			}
			raw.Logs = append(raw.Logs, &entity.RawLog{
				Address:          strings.ToLower(log.Address.Hex()),
				Topics:           topics,
				Data:             hexutil.Encode(log.Data),
				TransactionHash:  log.TxHash.Hex(),
				TransactionIndex: entity.Quantity(hexutil.EncodeUint64(uint64(log.TxIndex))),
				LogIndex:         entity.Quantity(hexutil.EncodeUint64(uint64(log.Index))),
			})
		}
		bundle.Receipts = append(bundle.Receipts, raw)
	}
	return bundle
}
