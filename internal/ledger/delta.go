package ledger

import "math/big"

// ComputeAmountDelta sums the native and token amounts of every output
// attributed to the address and subtracts the matching input sums. For a
// consolidation transaction the inferred change output is removed instead:
// with two or more outputs the last output is treated as change, with a
// single output the full swept value is reported.
func ComputeAmountDelta(tx Transaction, address string) (AmountDelta, error) {
	return computeAmountDelta(tx, address, false)
}

func computeAmountDelta(tx Transaction, address string, skipConsolidation bool) (AmountDelta, error) {
	if tx.Inputs == nil || tx.Outputs == nil {
		return AmountDelta{}, ErrMalformedTransaction
	}

	out := sumForAddress(address, outputEntries(tx.Outputs))

	if !skipConsolidation {
		cons, err := IsConsolidation(tx)
		if err != nil {
			return AmountDelta{}, err
		}
		if cons && tx.Outputs[0].Address == address {
			return removeConsolidationChange(out, tx.Outputs), nil
		}
	}

	in := sumForAddress(address, inputEntries(tx.Inputs))

	delta := AmountDelta{
		Native: new(big.Int).Sub(out.Native, in.Native),
		Tokens: map[string]*big.Int{},
	}
	for id, v := range out.Tokens {
		delta.Tokens[id] = new(big.Int).Set(v)
	}
	for id, v := range in.Tokens {
		cur, ok := delta.Tokens[id]
		if !ok {
			cur = new(big.Int)
			delta.Tokens[id] = cur
		}
		cur.Sub(cur, v)
	}
	dropZeroTokens(delta.Tokens)
	return delta, nil
}

// IsConsolidation reports whether the distinct input and output address sets
// are each exactly one address and equal.
func IsConsolidation(tx Transaction) (bool, error) {
	if tx.Inputs == nil || tx.Outputs == nil {
		return false, ErrMalformedTransaction
	}
	inAddrs := map[string]struct{}{}
	for _, in := range tx.Inputs {
		inAddrs[in.Address] = struct{}{}
	}
	outAddrs := map[string]struct{}{}
	for _, out := range tx.Outputs {
		outAddrs[out.Address] = struct{}{}
	}
	if len(inAddrs) != 1 || len(outAddrs) != 1 {
		return false, nil
	}
	_, ok := outAddrs[tx.Inputs[0].Address]
	return ok, nil
}

type valueEntry struct {
	address string
	native  *big.Int
	tokens  []TokenAmount
}

func inputEntries(inputs []Input) []valueEntry {
	entries := make([]valueEntry, len(inputs))
	for i, in := range inputs {
		entries[i] = valueEntry{address: in.Address, native: in.AttoAmount, tokens: in.Tokens}
	}
	return entries
}

func outputEntries(outputs []Output) []valueEntry {
	entries := make([]valueEntry, len(outputs))
	for i, out := range outputs {
		entries[i] = valueEntry{address: out.Address, native: out.AttoAmount, tokens: out.Tokens}
	}
	return entries
}

func sumForAddress(address string, entries []valueEntry) AmountDelta {
	sum := AmountDelta{Native: new(big.Int), Tokens: map[string]*big.Int{}}
	for _, e := range entries {
		if e.address != address {
			continue
		}
		if e.native != nil {
			sum.Native.Add(sum.Native, e.native)
		}
		for _, tok := range e.tokens {
			if tok.Amount == nil {
				continue
			}
			cur, ok := sum.Tokens[tok.ID]
			if !ok {
				cur = new(big.Int)
				sum.Tokens[tok.ID] = cur
			}
			cur.Add(cur, tok.Amount)
		}
	}
	return sum
}

// removeConsolidationChange subtracts the last output from the totals. The
// "last output is the change" rule is a wallet-software convention, not a
// ledger guarantee; it is kept as-is from the wallets this engine serves.
func removeConsolidationChange(total AmountDelta, outputs []Output) AmountDelta {
	if len(outputs) < 2 {
		dropZeroTokens(total.Tokens)
		return total
	}
	last := outputs[len(outputs)-1]
	if last.AttoAmount != nil {
		total.Native.Sub(total.Native, last.AttoAmount)
	}
	for _, tok := range last.Tokens {
		if tok.Amount == nil {
			continue
		}
		cur, ok := total.Tokens[tok.ID]
		if !ok {
			cur = new(big.Int)
			total.Tokens[tok.ID] = cur
		}
		cur.Sub(cur, tok.Amount)
	}
	dropZeroTokens(total.Tokens)
	return total
}

func dropZeroTokens(tokens map[string]*big.Int) {
	for id, v := range tokens {
		if v.Sign() == 0 {
			delete(tokens, id)
		}
	}
}
