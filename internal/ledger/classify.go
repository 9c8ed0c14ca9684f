package ledger

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// IsAirdrop reports whether the transaction distributes an identical multiset
// of output bundles to every output address while the reference address
// contributed no inputs. Recipients are compared output by output, not by
// aggregate: two outputs of 50 to one address and a single output of 100 to
// another are different distributions. A single unit of difference between any
// two recipients falsifies the airdrop.
func IsAirdrop(tx Transaction, referenceAddress string) bool {
	if tx.Inputs == nil || len(tx.Outputs) == 0 {
		return false
	}
	for _, in := range tx.Inputs {
		if in.Address == referenceAddress {
			return false
		}
	}

	perAddress := map[string][]string{}
	for _, out := range tx.Outputs {
		perAddress[out.Address] = append(perAddress[out.Address], outputFingerprint(out))
	}

	hasOtherRecipient := false
	var reference string
	first := true
	for addr, prints := range perAddress {
		if addr != referenceAddress {
			hasOtherRecipient = true
		}
		sort.Strings(prints)
		bundle := strings.Join(prints, "|")
		if first {
			reference = bundle
			first = false
			continue
		}
		if bundle != reference {
			return false
		}
	}
	return hasOtherRecipient
}

// IsBidirectionalTransfer reports whether the reference address both sends and
// receives value within the same transaction, e.g. spends token A while
// netting native value. The consolidation change heuristic is skipped so a
// sweep never masquerades as a two-way trade.
func IsBidirectionalTransfer(tx Transaction, referenceAddress string) (bool, error) {
	delta, err := computeAmountDelta(tx, referenceAddress, true)
	if err != nil {
		return false, err
	}
	values := make([]*big.Int, 0, len(delta.Tokens)+1)
	values = append(values, delta.Native)
	for _, v := range delta.Tokens {
		values = append(values, v)
	}
	hasPositive, hasNegative := false, false
	for _, v := range values {
		switch v.Sign() {
		case 1:
			hasPositive = true
		case -1:
			hasNegative = true
		}
	}
	return hasPositive && hasNegative, nil
}

// Classify determines the transaction's effect on the reference address. The
// rules run in a fixed order and the first match wins; transactions can
// satisfy several predicates at once (a consolidation also nets to zero), so
// the order below is part of the contract:
//
//  1. mempool transactions are Pending, direction by sign of the recorded
//     payload amount only;
//  2. consolidations are Move;
//  3. a zero delta is a self transfer, or a group transfer when the address
//     routes through multiple distinct other output addresses;
//  4. mixed-sign deltas are BidirectionalTransfer;
//  5. any contract address involved makes it a DappCall;
//  6. otherwise direction follows the sign of the native delta, with every
//     address internal to the wallet turning it into WalletSelfTransfer and a
//     uniform no-input distribution turning an incoming into Airdrop.
func Classify(tx Transaction, referenceAddress string, internalAddresses []string) (Classification, error) {
	if tx.Pending() {
		return Classification{Class: ClassPending, Direction: pendingDirection(tx)}, nil
	}

	cons, err := IsConsolidation(tx)
	if err != nil {
		return Classification{}, err
	}
	if cons {
		return Classification{Class: ClassMove, Direction: DirectionSelf}, nil
	}

	delta, err := ComputeAmountDelta(tx, referenceAddress)
	if err != nil {
		return Classification{}, err
	}

	if delta.Native.Sign() == 0 && len(delta.Tokens) == 0 {
		if isGroupTransfer(tx, referenceAddress) {
			return Classification{Class: ClassAddressGroupTransfer, Direction: DirectionSelf}, nil
		}
		return Classification{Class: ClassAddressSelfTransfer, Direction: DirectionSelf}, nil
	}

	bidi, err := IsBidirectionalTransfer(tx, referenceAddress)
	if err != nil {
		return Classification{}, err
	}
	if bidi {
		return Classification{Class: ClassBidirectionalTransfer, Direction: DirectionNone}, nil
	}

	if touchesContract(tx) {
		return Classification{Class: ClassDappCall, Direction: signDirection(delta.Native)}, nil
	}

	if allAddressesInternal(tx, internalAddresses) {
		return Classification{Class: ClassWalletSelfTransfer, Direction: DirectionSelf}, nil
	}

	if delta.Native.Sign() < 0 {
		return Classification{Class: ClassOutgoing, Direction: DirectionOut}, nil
	}
	if IsAirdrop(tx, referenceAddress) {
		return Classification{Class: ClassAirdrop, Direction: DirectionIn}, nil
	}
	return Classification{Class: ClassIncoming, Direction: DirectionIn}, nil
}

func pendingDirection(tx Transaction) Direction {
	if tx.PendingAmount == nil {
		return DirectionNone
	}
	return signDirection(tx.PendingAmount)
}

func signDirection(v *big.Int) Direction {
	switch v.Sign() {
	case 1:
		return DirectionIn
	case -1:
		return DirectionOut
	default:
		return DirectionNone
	}
}

func isGroupTransfer(tx Transaction, referenceAddress string) bool {
	inInputs, inOutputs := false, false
	for _, in := range tx.Inputs {
		if in.Address == referenceAddress {
			inInputs = true
			break
		}
	}
	others := 0
	for _, addr := range distinctOutputAddresses(tx.Outputs) {
		if addr == referenceAddress {
			inOutputs = true
		} else {
			others++
		}
	}
	return inInputs && inOutputs && others >= 2
}

func touchesContract(tx Transaction) bool {
	for _, in := range tx.Inputs {
		if IsContractAddress(in.Address) {
			return true
		}
	}
	for _, out := range tx.Outputs {
		if IsContractAddress(out.Address) {
			return true
		}
	}
	return false
}

func allAddressesInternal(tx Transaction, internalAddresses []string) bool {
	if len(internalAddresses) == 0 {
		return false
	}
	internal := make(map[string]struct{}, len(internalAddresses))
	for _, addr := range internalAddresses {
		internal[addr] = struct{}{}
	}
	for _, in := range tx.Inputs {
		if _, ok := internal[in.Address]; !ok {
			return false
		}
	}
	for _, out := range tx.Outputs {
		if _, ok := internal[out.Address]; !ok {
			return false
		}
	}
	return true
}

func distinctOutputAddresses(outputs []Output) []string {
	seen := map[string]struct{}{}
	addrs := make([]string, 0, len(outputs))
	for _, out := range outputs {
		if _, ok := seen[out.Address]; ok {
			continue
		}
		seen[out.Address] = struct{}{}
		addrs = append(addrs, out.Address)
	}
	return addrs
}

// outputFingerprint canonically encodes the bundle carried by one output.
func outputFingerprint(out Output) string {
	bundle := AmountDelta{Native: new(big.Int), Tokens: map[string]*big.Int{}}
	if out.AttoAmount != nil {
		bundle.Native.Set(out.AttoAmount)
	}
	for _, tok := range out.Tokens {
		if tok.Amount == nil {
			continue
		}
		total, ok := bundle.Tokens[tok.ID]
		if !ok {
			total = new(big.Int)
			bundle.Tokens[tok.ID] = total
		}
		total.Add(total, tok.Amount)
	}
	return bundleFingerprint(bundle)
}

// bundleFingerprint canonically encodes a received bundle so two recipients
// can be compared for exact equality.
func bundleFingerprint(sum AmountDelta) string {
	ids := make([]string, 0, len(sum.Tokens))
	for id := range sum.Tokens {
		if sum.Tokens[id].Sign() == 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "native=%s", sum.Native.String())
	for _, id := range ids {
		fmt.Fprintf(&b, ";%s=%s", id, sum.Tokens[id].String())
	}
	return b.String()
}
