package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func amt(v int64) *big.Int { return big.NewInt(v) }

func TestComputeAmountDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		tx         Transaction
		address    string
		wantNative int64
		wantTokens map[string]int64
		wantErr    error
	}{
		{
			name: "outputs minus inputs",
			tx: Transaction{
				BlockHash: "b1",
				Inputs:    []Input{{Address: "X", AttoAmount: amt(100)}},
				Outputs: []Output{
					{Address: "X", AttoAmount: amt(40)},
					{Address: "Y", AttoAmount: amt(60)},
				},
			},
			address:    "X",
			wantNative: -60,
		},
		{
			name: "receiver side of the same transaction",
			tx: Transaction{
				BlockHash: "b1",
				Inputs:    []Input{{Address: "X", AttoAmount: amt(100)}},
				Outputs: []Output{
					{Address: "X", AttoAmount: amt(40)},
					{Address: "Y", AttoAmount: amt(60)},
				},
			},
			address:    "Y",
			wantNative: 60,
		},
		{
			name: "token deltas netting to zero are dropped",
			tx: Transaction{
				BlockHash: "b1",
				Inputs: []Input{{Address: "X", AttoAmount: amt(10), Tokens: []TokenAmount{
					{ID: "tokA", Amount: amt(5)},
					{ID: "tokB", Amount: amt(3)},
				}}},
				Outputs: []Output{
					{Address: "X", AttoAmount: amt(10), Tokens: []TokenAmount{
						{ID: "tokA", Amount: amt(5)},
						{ID: "tokB", Amount: amt(1)},
					}},
					{Address: "Y", Tokens: []TokenAmount{{ID: "tokB", Amount: amt(2)}}},
				},
			},
			address:    "X",
			wantNative: 0,
			wantTokens: map[string]int64{"tokB": -2},
		},
		{
			name: "single output consolidation reports full value",
			tx: Transaction{
				BlockHash: "b1",
				Inputs: []Input{
					{Address: "X", AttoAmount: amt(300)},
					{Address: "X", AttoAmount: amt(200)},
				},
				Outputs: []Output{{Address: "X", AttoAmount: amt(500)}},
			},
			address:    "X",
			wantNative: 500,
		},
		{
			name: "multi output consolidation subtracts the last output as change",
			tx: Transaction{
				BlockHash: "b1",
				Inputs:    []Input{{Address: "X", AttoAmount: amt(500)}},
				Outputs: []Output{
					{Address: "X", AttoAmount: amt(300)},
					{Address: "X", AttoAmount: amt(195)},
				},
			},
			address:    "X",
			wantNative: 300,
		},
		{
			name:    "missing inputs",
			tx:      Transaction{BlockHash: "b1", Outputs: []Output{}},
			address: "X",
			wantErr: ErrMalformedTransaction,
		},
		{
			name:    "missing outputs",
			tx:      Transaction{BlockHash: "b1", Inputs: []Input{}},
			address: "X",
			wantErr: ErrMalformedTransaction,
		},
		{
			name: "empty slices are a valid genesis shape",
			tx: Transaction{
				BlockHash: "b1",
				Inputs:    []Input{},
				Outputs:   []Output{},
			},
			address:    "X",
			wantNative: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeAmountDelta(tt.tx, tt.address)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantNative, got.Native.Int64())
			require.Len(t, got.Tokens, len(tt.wantTokens))
			for id, want := range tt.wantTokens {
				require.Contains(t, got.Tokens, id)
				require.Equal(t, want, got.Tokens[id].Int64())
			}
		})
	}
}

func TestComputeAmountDeltaExactBigInt(t *testing.T) {
	t.Parallel()

	// Amounts beyond uint64 must survive without truncation.
	huge, ok := new(big.Int).SetString("340282366920938463463374607431768211456", 10)
	require.True(t, ok)

	tx := Transaction{
		BlockHash: "b1",
		Inputs:    []Input{{Address: "Z", AttoAmount: amt(1)}},
		Outputs:   []Output{{Address: "X", AttoAmount: new(big.Int).Set(huge)}},
	}
	got, err := ComputeAmountDelta(tx, "X")
	require.NoError(t, err)
	require.Zero(t, got.Native.Cmp(huge))
}

func TestIsConsolidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tx      Transaction
		want    bool
		wantErr error
	}{
		{
			name: "same singleton in and out",
			tx: Transaction{
				Inputs:  []Input{{Address: "X"}, {Address: "X"}},
				Outputs: []Output{{Address: "X"}},
			},
			want: true,
		},
		{
			name: "distinct addresses",
			tx: Transaction{
				Inputs:  []Input{{Address: "X"}},
				Outputs: []Output{{Address: "Y"}},
			},
			want: false,
		},
		{
			name: "multiple output addresses",
			tx: Transaction{
				Inputs:  []Input{{Address: "X"}},
				Outputs: []Output{{Address: "X"}, {Address: "Y"}},
			},
			want: false,
		},
		{
			name:    "empty sets are not a consolidation",
			tx:      Transaction{Inputs: []Input{}, Outputs: []Output{}},
			want:    false,
		},
		{
			name:    "missing inputs",
			tx:      Transaction{Outputs: []Output{{Address: "X"}}},
			wantErr: ErrMalformedTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsConsolidation(tt.tx)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestIsBidirectionalTransfer(t *testing.T) {
	t.Parallel()

	// Input X contributes tokA=2, X gets back tokA=1 (net -1) while netting
	// +50 native sourced from its own balance plus the counterparty's.
	tx := Transaction{
		BlockHash: "b1",
		Inputs: []Input{
			{Address: "X", AttoAmount: amt(10), Tokens: []TokenAmount{{ID: "tokA", Amount: amt(2)}}},
			{Address: "Y", AttoAmount: amt(60)},
		},
		Outputs: []Output{
			{Address: "X", AttoAmount: amt(60), Tokens: []TokenAmount{{ID: "tokA", Amount: amt(1)}}},
			{Address: "Y", AttoAmount: amt(10), Tokens: []TokenAmount{{ID: "tokA", Amount: amt(1)}}},
		},
	}

	got, err := IsBidirectionalTransfer(tx, "X")
	require.NoError(t, err)
	require.True(t, got)

	onlyOut := Transaction{
		BlockHash: "b1",
		Inputs:    []Input{{Address: "X", AttoAmount: amt(100)}},
		Outputs:   []Output{{Address: "Y", AttoAmount: amt(100)}},
	}
	got, err = IsBidirectionalTransfer(onlyOut, "X")
	require.NoError(t, err)
	require.False(t, got)

	_, err = IsBidirectionalTransfer(Transaction{}, "X")
	require.ErrorIs(t, err, ErrMalformedTransaction)
}

func TestIsBidirectionalTransferSkipsConsolidationHeuristic(t *testing.T) {
	t.Parallel()

	// A sweep back to self nets to roughly -fee; with the change heuristic it
	// would read as a large positive delta and a fake negative counterpart.
	tx := Transaction{
		BlockHash: "b1",
		Inputs:    []Input{{Address: "X", AttoAmount: amt(500)}},
		Outputs: []Output{
			{Address: "X", AttoAmount: amt(300)},
			{Address: "X", AttoAmount: amt(195)},
		},
	}
	got, err := IsBidirectionalTransfer(tx, "X")
	require.NoError(t, err)
	require.False(t, got)
}
