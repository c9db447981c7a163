package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeABIUint_ReadsLastWord(t *testing.T) {
	raw := "0x" + repeatHex("0", 63) + "a" // 0x...0a = 10
	assert.Equal(t, "10", DecodeABIUint(raw).String())
}

func TestDecodeABIUint_ZeroOnShortReturn(t *testing.T) {
	assert.Equal(t, "0", DecodeABIUint("0x1234").String())
}

func TestDecodeABIString_DecodesDynamicStringReturn(t *testing.T) {
	// offset word (0x20), length word (4), "Test" padded to 32 bytes
	raw := "0x" +
		repeatHex("0", 63) + "2" + // offset = 0x20
		repeatHex("0", 63) + "4" + // length = 4
		"54657374" + repeatHex("0", 56) // "Test" + padding
	assert.Equal(t, "Test", DecodeABIString(raw))
}

func TestDecodeABIString_EmptyOnShortReturn(t *testing.T) {
	assert.Equal(t, "", DecodeABIString("0x1234"))
}

func repeatHex(s string, n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = s[0]
	}
	return string(out)
}
