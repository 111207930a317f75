package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"token-transfer-indexer/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLWriterAppendsInDiscoveryOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "transfers.jsonl")
	writer := NewJSONLWriter(path)

	set := entity.NewTransferSet()
	set.ERC20 = append(set.ERC20, &entity.ERC20Transfer{Type: entity.TransferTypeERC20, Value: "1"})
	set.ERC721 = append(set.ERC721, &entity.ERC721Transfer{Type: entity.TransferTypeERC721, TokenID: "2"})
	set.ERC1155 = append(set.ERC1155, &entity.ERC1155BatchTransfer{Type: entity.TransferTypeERC1155Batch, TokenID: "3"})

	n, err := writer.WriteResult(entity.Events(set))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = writer.WriteResult(entity.Events(set))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "ERC20", first["type"])
	assert.Contains(t, lines[1], `"type":"ERC721"`)
	assert.Contains(t, lines[2], `"type":"ERC1155_Batch"`)
}

func TestJSONLWriterSkipsEmptyResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfers.jsonl")
	writer := NewJSONLWriter(path)

	for _, result := range []entity.DecodeResult{entity.NoEvents(), entity.Fault("x")} {
		n, err := writer.WriteResult(result)
		require.NoError(t, err)
		assert.Zero(t, n)
	}

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
