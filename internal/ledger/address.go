package ledger

import (
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// GroupCount is the number of address groups on the chain.
const GroupCount = 4

const contractAddressType = 0x03

// IsContractAddress reports whether the base58 address encodes a contract
// (pay-to-contract type byte). Undecodable addresses are not contracts.
func IsContractAddress(addr string) bool {
	raw, err := base58.Decode(addr)
	return err == nil && len(raw) > 0 && raw[0] == contractAddressType
}

// GroupOfAddress derives the address group from the blake2b digest of the
// address payload.
func GroupOfAddress(addr string) (uint8, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return 0, fmt.Errorf("decode address %q: %w", addr, err)
	}
	if len(raw) < 2 {
		return 0, fmt.Errorf("address %q payload too short", addr)
	}
	sum := blake2b.Sum256(raw[1:])
	return sum[len(sum)-1] % GroupCount, nil
}
