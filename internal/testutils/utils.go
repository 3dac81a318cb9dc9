package testutils

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// MustHex decodes a hex dump into bytes. Spaces and newlines are ignored so
// test data can be laid out the way format notes write it.
func MustHex(t *testing.T, s string) []byte {
	t.Helper()
	clean := strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(s)
	b, err := hex.DecodeString(clean)
	require.NoError(t, err)
	return b
}

// PatternBytes returns n bytes filled with a deterministic spread of values,
// for payloads whose content does not matter.
func PatternBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 13)
	}
	return b
}
