package blockchain

import (
	"math/big"
	"strings"
)

const (
	// hex characters per 32-byte ABI word
	wordHexLen = 64
	// hex characters of a 20-byte address
	addressHexLen = 40
	// "0x" plus the two head words of a TransferBatch payload
	batchHeadHexLen = 2 + 2*wordHexLen
)

// StripPadding turns a 32-byte topic into a lowercase 0x-prefixed address
// by keeping its low 40 hex characters. Absent input yields "".
func StripPadding(topic string) string {
	if topic == "" {
		return ""
	}

	hex := trimHexPrefix(topic)
	if len(hex) >= addressHexLen {
		hex = hex[len(hex)-addressHexLen:]
	} else {
		hex = strings.Repeat("0", addressHexLen-len(hex)) + hex
	}
	return "0x" + strings.ToLower(hex)
}

// ParseSingleData decodes the (id, value) pair of a TransferSingle payload.
// Characters [2,66) are the id and [66,end) the value; missing characters read as zero.
func ParseSingleData(data string) (tokenID *big.Int, value *big.Int) {
	if data == "" || data == "0x" {
		return new(big.Int), new(big.Int)
	}
	return parseHexWord(hexSlice(data, 2, 2+wordHexLen)), parseHexWord(hexSlice(data, 2+wordHexLen, len(data)))
}

// ParseBatchData decodes the ids and values arrays of a TransferBatch payload.
//
// The two head words are byte offsets of the arrays. The element count is the
// distance between the two offsets in words, and slots are read starting at each
// offset. For standard ABI encoding the length word is counted as an element, so
// both slices start with the array length. The embedded length words are not
// cross-checked. Offsets that give no positive count, or a count larger than the
// payload can hold, decode to two empty slices.
func ParseBatchData(data string) (ids []*big.Int, values []*big.Int) {
	ids, values = []*big.Int{}, []*big.Int{}
	if len(data) < batchHeadHexLen {
		return ids, values
	}

	idsOffset, ok := hexOffset(data[2 : 2+wordHexLen])
	if !ok {
		return ids, values
	}
	valuesOffset, ok := hexOffset(data[2+wordHexLen : batchHeadHexLen])
	if !ok {
		return ids, values
	}

	count := (valuesOffset - idsOffset) / wordHexLen
	if count <= 0 || count > len(data)/wordHexLen {
		return ids, values
	}

	ids = readWords(data, idsOffset, count)
	values = readWords(data, valuesOffset, count)
	return ids, values
}

// hexOffset converts an ABI byte offset word into a position in the 0x-prefixed hex string
func hexOffset(word string) (int, bool) {
	offset := parseHexWord(word)
	if offset.BitLen() > 31 {
		return 0, false
	}
	return int(offset.Int64())*2 + 2, true
}

func readWords(data string, start, count int) []*big.Int {
	words := make([]*big.Int, count)
	for i := range words {
		from := start + i*wordHexLen
		words[i] = parseHexWord(hexSlice(data, from, from+wordHexLen))
	}
	return words
}

// parseHexWord strips leading zeros and reads the rest as an unsigned big-endian integer.
// Empty, signed or non-hex input reads as zero.
func parseHexWord(hex string) *big.Int {
	hex = strings.TrimLeft(hex, "0")
	if hex == "" {
		return new(big.Int)
	}
	value, ok := new(big.Int).SetString(hex, 16)
	if !ok || value.Sign() < 0 {
		return new(big.Int)
	}
	return value
}

// hexSlice returns s[from:to] clamped to the bounds of s
func hexSlice(s string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(s) {
		to = len(s)
	}
	if from >= to {
		return ""
	}
	return s[from:to]
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func hasData(data string) bool {
	return data != "" && data != "0x"
}
