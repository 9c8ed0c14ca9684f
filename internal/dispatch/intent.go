package dispatch

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/lunarfield/walletbridge-backend/pkg/safe"
)

// NativeTokenID is the reserved token id of the chain's native asset. Token
// entries carrying it are folded into the native amount.
var NativeTokenID = strings.Repeat("0", 64)

// AssetAmount is one asset movement inside an intent.
type AssetAmount struct {
	ID     string
	Amount *big.Int
}

// Destination is one transfer recipient.
type Destination struct {
	Address    string
	AttoAmount *big.Int
	Tokens     []AssetAmount
}

// GasSettings are the optional gas overrides a dApp may request.
type GasSettings struct {
	Amount uint32
	Price  *big.Int
}

// Intent is the normalized representation of what a dApp asks the wallet to
// do. Built fresh from request params, never persisted.
type Intent interface {
	From() string
	intent()
}

type TransferIntent struct {
	FromAddress  string
	Destinations []Destination
	Gas          GasSettings
}

type DeployContractIntent struct {
	FromAddress      string
	Bytecode         string
	IssueTokenAmount *big.Int
	Amounts          []AssetAmount
	Gas              GasSettings
}

type ExecuteScriptIntent struct {
	FromAddress string
	Bytecode    string
	Amounts     []AssetAmount
	Gas         GasSettings
}

type SignMessageIntent struct {
	FromAddress string
	Message     string
	Hasher      string
}

type SignUnsignedTxIntent struct {
	FromAddress string
	UnsignedTx  string
	Submit      bool
}

// RawAPICallIntent is the passthrough proxy call; it never reaches the
// approval UI.
type RawAPICallIntent struct {
	FromAddress string
	Target      MethodKind
	Params      json.RawMessage
}

func (i TransferIntent) From() string       { return i.FromAddress }
func (i DeployContractIntent) From() string { return i.FromAddress }
func (i ExecuteScriptIntent) From() string  { return i.FromAddress }
func (i SignMessageIntent) From() string    { return i.FromAddress }
func (i SignUnsignedTxIntent) From() string { return i.FromAddress }
func (i RawAPICallIntent) From() string     { return i.FromAddress }

func (TransferIntent) intent()       {}
func (DeployContractIntent) intent() {}
func (ExecuteScriptIntent) intent()  {}
func (SignMessageIntent) intent()    {}
func (SignUnsignedTxIntent) intent() {}
func (RawAPICallIntent) intent()     {}

// Wire shapes of the alph_* request params. Amounts arrive as decimal
// strings because they are 256-bit.
type (
	wireToken struct {
		ID     string `json:"id"`
		Amount string `json:"amount"`
	}

	wireDestination struct {
		Address        string      `json:"address"`
		AttoAlphAmount string      `json:"attoAlphAmount"`
		Tokens         []wireToken `json:"tokens"`
	}

	wireGas struct {
		GasAmount *int64 `json:"gasAmount"`
		GasPrice  string `json:"gasPrice"`
	}

	wireTransferParams struct {
		SignerAddress string            `json:"signerAddress"`
		Destinations  []wireDestination `json:"destinations"`
		wireGas
	}

	wireDeployContractParams struct {
		SignerAddress         string      `json:"signerAddress"`
		Bytecode              string      `json:"bytecode"`
		InitialAttoAlphAmount string      `json:"initialAttoAlphAmount"`
		InitialTokenAmounts   []wireToken `json:"initialTokenAmounts"`
		IssueTokenAmount      string      `json:"issueTokenAmount"`
		wireGas
	}

	wireExecuteScriptParams struct {
		SignerAddress  string      `json:"signerAddress"`
		Bytecode       string      `json:"bytecode"`
		AttoAlphAmount string      `json:"attoAlphAmount"`
		Tokens         []wireToken `json:"tokens"`
		wireGas
	}

	wireSignMessageParams struct {
		SignerAddress string `json:"signerAddress"`
		Message       string `json:"message"`
		MessageHasher string `json:"messageHasher"`
	}

	wireSignUnsignedTxParams struct {
		SignerAddress string `json:"signerAddress"`
		UnsignedTx    string `json:"unsignedTx"`
	}
)

// BuildIntent parses request params into the typed intent for a method.
// Every defect (malformed JSON, bad amount, gas overflow) surfaces as an
// error the dispatcher maps to a ParsingFailed response.
func BuildIntent(method Method, params json.RawMessage) (Intent, error) {
	switch method.Kind {
	case KindSignAndSubmitTransferTx:
		return buildTransferIntent(params)
	case KindSignAndSubmitDeployContractTx:
		return buildDeployContractIntent(params)
	case KindSignAndSubmitExecuteScriptTx:
		return buildExecuteScriptIntent(params)
	case KindSignMessage:
		return buildSignMessageIntent(params)
	case KindSignUnsignedTx, KindSignAndSubmitUnsignedTx:
		return buildSignUnsignedTxIntent(params, method.Kind == KindSignAndSubmitUnsignedTx)
	case KindRequestNodeAPI, KindRequestExplorerAPI:
		return RawAPICallIntent{Target: method.Kind, Params: params}, nil
	default:
		return nil, fmt.Errorf("no intent for method %q", method.Raw)
	}
}

func buildTransferIntent(params json.RawMessage) (Intent, error) {
	var wire wireTransferParams
	if err := json.Unmarshal(params, &wire); err != nil {
		return nil, fmt.Errorf("decode transfer params: %w", err)
	}
	if len(wire.Destinations) == 0 {
		return nil, fmt.Errorf("transfer needs at least one destination")
	}

	destinations := make([]Destination, 0, len(wire.Destinations))
	for i, dst := range wire.Destinations {
		if dst.Address == "" {
			return nil, fmt.Errorf("destination %d has no address", i)
		}
		amount, err := safe.Amount(dst.AttoAlphAmount)
		if err != nil {
			return nil, fmt.Errorf("destination %d: %w", i, err)
		}
		tokens, err := parseTokens(dst.Tokens)
		if err != nil {
			return nil, fmt.Errorf("destination %d: %w", i, err)
		}
		destinations = append(destinations, Destination{Address: dst.Address, AttoAmount: amount, Tokens: tokens})
	}

	gas, err := parseGas(wire.wireGas)
	if err != nil {
		return nil, err
	}
	return TransferIntent{
		FromAddress:  wire.SignerAddress,
		Destinations: destinations,
		Gas:          gas,
	}, nil
}

func buildDeployContractIntent(params json.RawMessage) (Intent, error) {
	var wire wireDeployContractParams
	if err := json.Unmarshal(params, &wire); err != nil {
		return nil, fmt.Errorf("decode deploy-contract params: %w", err)
	}
	if wire.Bytecode == "" {
		return nil, fmt.Errorf("deploy-contract needs bytecode")
	}
	initial, err := safe.OptionalAmount(wire.InitialAttoAlphAmount)
	if err != nil {
		return nil, fmt.Errorf("initial amount: %w", err)
	}
	issue, err := safe.OptionalAmount(wire.IssueTokenAmount)
	if err != nil {
		return nil, fmt.Errorf("issue token amount: %w", err)
	}
	tokens, err := parseTokens(wire.InitialTokenAmounts)
	if err != nil {
		return nil, err
	}
	gas, err := parseGas(wire.wireGas)
	if err != nil {
		return nil, err
	}
	return DeployContractIntent{
		FromAddress:      wire.SignerAddress,
		Bytecode:         wire.Bytecode,
		IssueTokenAmount: issue,
		Amounts:          foldAssetAmounts(initial, tokens),
		Gas:              gas,
	}, nil
}

func buildExecuteScriptIntent(params json.RawMessage) (Intent, error) {
	var wire wireExecuteScriptParams
	if err := json.Unmarshal(params, &wire); err != nil {
		return nil, fmt.Errorf("decode execute-script params: %w", err)
	}
	if wire.Bytecode == "" {
		return nil, fmt.Errorf("execute-script needs bytecode")
	}
	native, err := safe.OptionalAmount(wire.AttoAlphAmount)
	if err != nil {
		return nil, fmt.Errorf("native amount: %w", err)
	}
	tokens, err := parseTokens(wire.Tokens)
	if err != nil {
		return nil, err
	}
	gas, err := parseGas(wire.wireGas)
	if err != nil {
		return nil, err
	}
	return ExecuteScriptIntent{
		FromAddress: wire.SignerAddress,
		Bytecode:    wire.Bytecode,
		Amounts:     foldAssetAmounts(native, tokens),
		Gas:         gas,
	}, nil
}

func buildSignMessageIntent(params json.RawMessage) (Intent, error) {
	var wire wireSignMessageParams
	if err := json.Unmarshal(params, &wire); err != nil {
		return nil, fmt.Errorf("decode sign-message params: %w", err)
	}
	if wire.Message == "" {
		return nil, fmt.Errorf("sign-message needs a message")
	}
	return SignMessageIntent{
		FromAddress: wire.SignerAddress,
		Message:     wire.Message,
		Hasher:      wire.MessageHasher,
	}, nil
}

func buildSignUnsignedTxIntent(params json.RawMessage, submit bool) (Intent, error) {
	var wire wireSignUnsignedTxParams
	if err := json.Unmarshal(params, &wire); err != nil {
		return nil, fmt.Errorf("decode sign-unsigned-tx params: %w", err)
	}
	if wire.UnsignedTx == "" {
		return nil, fmt.Errorf("sign-unsigned-tx needs the unsigned payload")
	}
	return SignUnsignedTxIntent{
		FromAddress: wire.SignerAddress,
		UnsignedTx:  wire.UnsignedTx,
		Submit:      submit,
	}, nil
}

func parseTokens(wire []wireToken) ([]AssetAmount, error) {
	if len(wire) == 0 {
		return nil, nil
	}
	tokens := make([]AssetAmount, 0, len(wire))
	for i, t := range wire {
		if t.ID == "" {
			return nil, fmt.Errorf("token %d has no id", i)
		}
		amount, err := safe.Amount(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		tokens = append(tokens, AssetAmount{ID: t.ID, Amount: amount})
	}
	return tokens, nil
}

func parseGas(wire wireGas) (GasSettings, error) {
	var gas GasSettings
	if wire.GasAmount != nil {
		amount, err := safe.Uint32(*wire.GasAmount)
		if err != nil {
			return gas, fmt.Errorf("gas amount: %w", err)
		}
		gas.Amount = amount
	}
	price, err := safe.OptionalAmount(wire.GasPrice)
	if err != nil {
		return gas, fmt.Errorf("gas price: %w", err)
	}
	if price.Sign() > 0 {
		gas.Price = price
	}
	return gas, nil
}

// foldAssetAmounts deduplicates amounts by token id, folding entries with the
// native id into one native entry. First-appearance order is preserved; zero
// amounts are dropped.
func foldAssetAmounts(native *big.Int, tokens []AssetAmount) []AssetAmount {
	totals := map[string]*big.Int{}
	var order []string
	add := func(id string, amount *big.Int) {
		if amount == nil || amount.Sign() == 0 {
			return
		}
		if id == "" {
			id = NativeTokenID
		}
		if total, ok := totals[id]; ok {
			total.Add(total, amount)
			return
		}
		totals[id] = new(big.Int).Set(amount)
		order = append(order, id)
	}

	add(NativeTokenID, native)
	for _, t := range tokens {
		add(t.ID, t.Amount)
	}

	if len(order) == 0 {
		return nil
	}
	amounts := make([]AssetAmount, 0, len(order))
	for _, id := range order {
		amounts = append(amounts, AssetAmount{ID: id, Amount: totals[id]})
	}
	return amounts
}
