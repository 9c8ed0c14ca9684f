// Package ledger models confirmed and mempool transactions as returned by the
// node/explorer and classifies their effect on a given address. Everything in
// this package is pure and safe for concurrent readers.
package ledger

import (
	"errors"
	"math/big"
	"time"
)

// ErrMalformedTransaction reports a transaction whose inputs or outputs were
// omitted by the data source. A nil slice means the fetch truncated the data;
// a non-nil empty slice is a legitimate genesis/reward transaction.
var ErrMalformedTransaction = errors.New("ledger: transaction inputs or outputs missing")

// TokenAmount is a token id paired with a 256-bit amount.
type TokenAmount struct {
	ID     string
	Amount *big.Int
}

// Input is a consumed UTXO attributed to an address.
type Input struct {
	Address    string
	AttoAmount *big.Int
	Tokens     []TokenAmount
}

// Output is a produced UTXO attributed to an address.
type Output struct {
	Address    string
	AttoAmount *big.Int
	Tokens     []TokenAmount
}

// Transaction is an immutable ledger record. BlockHash is empty while the
// transaction sits in the mempool; PendingAmount then carries the signed
// amount the wallet recorded when it submitted the intent, since mempool
// inputs/outputs may be incomplete.
type Transaction struct {
	Hash          string
	BlockHash     string
	Timestamp     time.Time
	Inputs        []Input
	Outputs       []Output
	PendingAmount *big.Int
}

// Pending reports whether the transaction is still unconfirmed.
func (t Transaction) Pending() bool {
	return t.BlockHash == ""
}

// TransactionClass is the effect of a transaction on a reference address.
type TransactionClass string

const (
	ClassIncoming              TransactionClass = "incoming"
	ClassOutgoing              TransactionClass = "outgoing"
	ClassAddressSelfTransfer   TransactionClass = "address-self-transfer"
	ClassWalletSelfTransfer    TransactionClass = "wallet-self-transfer"
	ClassAddressGroupTransfer  TransactionClass = "address-group-transfer"
	ClassMove                  TransactionClass = "move"
	ClassAirdrop               TransactionClass = "airdrop"
	ClassBidirectionalTransfer TransactionClass = "bidirectional-transfer"
	ClassDappCall              TransactionClass = "dapp-call"
	ClassPending               TransactionClass = "pending"
)

// Direction is the coarse flow of value relative to the reference address.
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionSelf Direction = "self"
)

// Classification pairs the class with its direction for display purposes.
type Classification struct {
	Class     TransactionClass
	Direction Direction
}

// AmountDelta is the signed net effect of one transaction on one address.
// Native is never nil; token ids whose delta nets to zero are not present.
type AmountDelta struct {
	Native *big.Int
	Tokens map[string]*big.Int
}
