package evidence

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// domainPrefix maps a tool to the short token used in its evidence id, so ids
// read as ev_bytecode_a1b2c3d4 rather than leaking the raw tool name.
var domainPrefix = map[Tool]string{
	ToolRPCBytecode:        "bytecode",
	ToolRPCErc20Metadata:   "metadata",
	ToolBasescanSourceInfo: "source",
	ToolBasescanCreation:   "creation",
	ToolDexscreenerPairs:   "dex",
	ToolHoneypotSimulation: "honeypot",
	ToolLPV2LockStatus:     "lplock",
	ToolOwnerStatus:        "owner",
	ToolCapabilityScan:     "capability",
	ToolTopHolders:         "holders",
}

// NewID generates an evidence id of the form ev_<domainPrefix>_<8-hex> using a
// cryptographically random suffix.
func NewID(tool Tool) string {
	prefix, ok := domainPrefix[tool]
	if !ok {
		prefix = "tool"
	}
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand is not expected to fail on any supported platform;
		// fall back to uuid's entropy source rather than a predictable suffix.
		u := uuid.New()
		copy(buf[:], u[:4])
	}
	return fmt.Sprintf("ev_%s_%s", prefix, hex.EncodeToString(buf[:]))
}
