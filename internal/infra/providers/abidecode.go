package providers

import (
	"encoding/hex"
	"math/big"
	"strings"
)

// DecodeABIUint reads a raw eth_call hex return as a single uint256/uintN
// word (the last 32-byte word of the return, left-padded).
func DecodeABIUint(hexReturn string) *big.Int {
	h := strings.TrimPrefix(hexReturn, "0x")
	if len(h) < 64 {
		return big.NewInt(0)
	}
	word := h[len(h)-64:]
	b, err := hex.DecodeString(word)
	if err != nil {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(b)
}

// DecodeABIString reads a raw eth_call hex return as a single dynamic
// `string` value: a 32-byte offset word (ignored, always 0x20 for a lone
// return value), a 32-byte length word, then the UTF-8 bytes padded to a
// 32-byte boundary.
func DecodeABIString(hexReturn string) string {
	h := strings.TrimPrefix(hexReturn, "0x")
	if len(h) < 128 {
		return ""
	}
	lengthWord := h[64:128]
	lengthBytes, err := hex.DecodeString(lengthWord)
	if err != nil {
		return ""
	}
	length := new(big.Int).SetBytes(lengthBytes).Int64()
	if length <= 0 {
		return ""
	}
	dataStart := 128
	dataEnd := dataStart + int(length)*2
	if dataEnd > len(h) {
		dataEnd = len(h)
	}
	if dataStart >= dataEnd {
		return ""
	}
	data, err := hex.DecodeString(h[dataStart:dataEnd])
	if err != nil {
		return ""
	}
	return string(data)
}
