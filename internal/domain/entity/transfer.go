package entity

import (
	"time"
)

// TransferType tags a decoded transfer with the token standard that produced it
type TransferType string

const (
	TransferTypeERC20         TransferType = "ERC20"
	TransferTypeERC721        TransferType = "ERC721"
	TransferTypeERC1155Single TransferType = "ERC1155_Single"
	TransferTypeERC1155Batch  TransferType = "ERC1155_Batch"
)

// TokenTransfer is implemented by every decoded transfer event
type TokenTransfer interface {
	TransferType() TransferType
	Relationship() *TransferRelationship
}

// ERC20Transfer represents a fungible Transfer(address,address,uint256) event
type ERC20Transfer struct {
	Type           TransferType `json:"type"`
	Sender         string       `json:"sender"`
	Receiver       string       `json:"receiver"`
	Value          string       `json:"value"`
	Contract       string       `json:"contract"`
	TxHash         string       `json:"txHash"`
	TxIndex        Quantity     `json:"txIndex"`
	BlockTimestamp int64        `json:"blockTimestamp"`
}

// ERC721Transfer represents a Transfer event whose token id is the fourth topic
type ERC721Transfer struct {
	Type           TransferType `json:"type"`
	Sender         string       `json:"sender"`
	Receiver       string       `json:"receiver"`
	TokenID        string       `json:"tokenId"`
	Contract       string       `json:"contract"`
	TxHash         string       `json:"txHash"`
	TxIndex        Quantity     `json:"txIndex"`
	BlockTimestamp int64        `json:"blockTimestamp"`
}

// ERC1155Transfer is either an ERC1155SingleTransfer or an ERC1155BatchTransfer
type ERC1155Transfer interface {
	TokenTransfer
	erc1155()
}

// ERC1155SingleTransfer represents a TransferSingle event
type ERC1155SingleTransfer struct {
	Type           TransferType `json:"type"`
	Operator       string       `json:"operator"`
	Sender         string       `json:"sender"`
	Receiver       string       `json:"receiver"`
	TokenID        string       `json:"tokenId"`
	Value          string       `json:"value"`
	Contract       string       `json:"contract"`
	TxHash         string       `json:"txHash"`
	TxIndex        Quantity     `json:"txIndex"`
	BlockTimestamp int64        `json:"blockTimestamp"`
}

// ERC1155BatchTransfer represents one (id, value) pair of a TransferBatch event
type ERC1155BatchTransfer struct {
	Type           TransferType `json:"type"`
	Operator       string       `json:"operator"`
	From           string       `json:"from"`
	To             string       `json:"to"`
	TokenID        string       `json:"tokenId"`
	Value          string       `json:"value"`
	Contract       string       `json:"contract"`
	TxHash         string       `json:"txHash"`
	TxIndex        Quantity     `json:"txIndex"`
	BlockTimestamp int64        `json:"blockTimestamp"`
}

// TransferRelationship is the storage form of any decoded transfer:
// a directed edge between two wallets through a token contract
type TransferRelationship struct {
	Standard        TransferType `json:"standard"`
	FromAddress     string       `json:"from_address"`
	ToAddress       string       `json:"to_address"`
	Operator        string       `json:"operator,omitempty"`
	ContractAddress string       `json:"contract_address"`
	TokenID         string       `json:"token_id,omitempty"`
	Value           string       `json:"value"`
	TxHash          string       `json:"tx_hash"`
	TxIndex         string       `json:"tx_index"`
	Position        int          `json:"position"`
	Timestamp       time.Time    `json:"timestamp"`
}

func (t *ERC20Transfer) TransferType() TransferType { return TransferTypeERC20 }

func (t *ERC20Transfer) Relationship() *TransferRelationship {
	return &TransferRelationship{
		Standard:        TransferTypeERC20,
		FromAddress:     t.Sender,
		ToAddress:       t.Receiver,
		ContractAddress: t.Contract,
		Value:           t.Value,
		TxHash:          t.TxHash,
		TxIndex:         t.TxIndex.String(),
		Timestamp:       time.UnixMilli(t.BlockTimestamp).UTC(),
	}
}

func (t *ERC721Transfer) TransferType() TransferType { return TransferTypeERC721 }

// Relationship reports a value of 1: an ERC721 transfer moves exactly one token
func (t *ERC721Transfer) Relationship() *TransferRelationship {
	return &TransferRelationship{
		Standard:        TransferTypeERC721,
		FromAddress:     t.Sender,
		ToAddress:       t.Receiver,
		ContractAddress: t.Contract,
		TokenID:         t.TokenID,
		Value:           "1",
		TxHash:          t.TxHash,
		TxIndex:         t.TxIndex.String(),
		Timestamp:       time.UnixMilli(t.BlockTimestamp).UTC(),
	}
}

func (t *ERC1155SingleTransfer) TransferType() TransferType { return TransferTypeERC1155Single }

func (t *ERC1155SingleTransfer) Relationship() *TransferRelationship {
	return &TransferRelationship{
		Standard:        TransferTypeERC1155Single,
		FromAddress:     t.Sender,
		ToAddress:       t.Receiver,
		Operator:        t.Operator,
		ContractAddress: t.Contract,
		TokenID:         t.TokenID,
		Value:           t.Value,
		TxHash:          t.TxHash,
		TxIndex:         t.TxIndex.String(),
		Timestamp:       time.UnixMilli(t.BlockTimestamp).UTC(),
	}
}

func (t *ERC1155SingleTransfer) erc1155() {}

func (t *ERC1155BatchTransfer) TransferType() TransferType { return TransferTypeERC1155Batch }

func (t *ERC1155BatchTransfer) Relationship() *TransferRelationship {
	return &TransferRelationship{
		Standard:        TransferTypeERC1155Batch,
		FromAddress:     t.From,
		ToAddress:       t.To,
		Operator:        t.Operator,
		ContractAddress: t.Contract,
		TokenID:         t.TokenID,
		Value:           t.Value,
		TxHash:          t.TxHash,
		TxIndex:         t.TxIndex.String(),
		Timestamp:       time.UnixMilli(t.BlockTimestamp).UTC(),
	}
}

func (t *ERC1155BatchTransfer) erc1155() {}
