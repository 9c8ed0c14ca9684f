package relay

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	t.Parallel()

	symKey := strings.Repeat("ab", 32)

	tests := []struct {
		name    string
		raw     string
		want    URI
		wantErr bool
	}{
		{
			name: "full uri",
			raw:  "wc:topic123@2?relay-protocol=irn&symKey=" + symKey,
			want: URI{Topic: "topic123", Version: "2", RelayProtocol: "irn", SymKey: mustHex(symKey)},
		},
		{
			name: "double slash form",
			raw:  "wc://topic123@2?symKey=" + symKey,
			want: URI{Topic: "topic123", Version: "2", RelayProtocol: "irn", SymKey: mustHex(symKey)},
		},
		{name: "wrong scheme", raw: "http:topic@2?symKey=" + symKey, wantErr: true},
		{name: "missing version", raw: "wc:topic123?symKey=" + symKey, wantErr: true},
		{name: "unsupported version", raw: "wc:topic123@1?symKey=" + symKey, wantErr: true},
		{name: "short key", raw: "wc:topic123@2?symKey=abcd", wantErr: true},
		{name: "missing key", raw: "wc:topic123@2?relay-protocol=irn", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURI(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidURI)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func mustHex(s string) []byte {
	raw, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return raw
}
