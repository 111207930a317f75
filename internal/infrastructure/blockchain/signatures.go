package blockchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Event signatures recognized as topic0 of a transfer log
var (
	// Transfer(address,address,uint256), shared by ERC20 and ERC721
	TopicTransfer = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	// ERC1155 TransferSingle(operator, from, to, id, value)
	TopicTransferSingle = crypto.Keccak256Hash([]byte("TransferSingle(address,address,address,uint256,uint256)"))
	// ERC1155 TransferBatch(operator, from, to, ids, values)
	TopicTransferBatch = crypto.Keccak256Hash([]byte("TransferBatch(address,address,address,uint256[],uint256[])"))
)

type eventKind int

const (
	eventUnknown eventKind = iota
	eventTransfer
	eventTransferSingle
	eventTransferBatch
)

// topicKinds is keyed by lowercase 0x-prefixed hex, the form common.Hash.Hex returns
var topicKinds = map[string]eventKind{
	TopicTransfer.Hex():       eventTransfer,
	TopicTransferSingle.Hex(): eventTransferSingle,
	TopicTransferBatch.Hex():  eventTransferBatch,
}

func classifyTopic(topic0 string) eventKind {
	return topicKinds[strings.ToLower(topic0)]
}
