// Package dispatch consumes session requests routed through an active
// session, classifies them by method, builds typed transaction intents and
// produces exactly one protocol response per request.
package dispatch

// MethodKind is the closed enum over known dApp methods. The zero value is
// unknown so a missed parse can never alias a real method.
type MethodKind int

const (
	KindUnknown MethodKind = iota
	KindSignAndSubmitTransferTx
	KindSignAndSubmitDeployContractTx
	KindSignAndSubmitExecuteScriptTx
	KindSignAndSubmitUnsignedTx
	KindSignUnsignedTx
	KindSignMessage
	KindRequestNodeAPI
	KindRequestExplorerAPI
)

// Method pairs the parsed kind with the raw wire string so unknown methods
// keep what the dApp actually sent.
type Method struct {
	Kind MethodKind
	Raw  string
}

var methodKinds = map[string]MethodKind{
	"alph_signAndSubmitTransferTx":       KindSignAndSubmitTransferTx,
	"alph_signAndSubmitDeployContractTx": KindSignAndSubmitDeployContractTx,
	"alph_signAndSubmitExecuteScriptTx":  KindSignAndSubmitExecuteScriptTx,
	"alph_signAndSubmitUnsignedTx":       KindSignAndSubmitUnsignedTx,
	"alph_signUnsignedTx":                KindSignUnsignedTx,
	"alph_signMessage":                   KindSignMessage,
	"alph_requestNodeApi":                KindRequestNodeAPI,
	"alph_requestExplorerApi":            KindRequestExplorerAPI,
}

// ParseMethod is total: an unrecognized string maps to KindUnknown.
func ParseMethod(raw string) Method {
	return Method{Kind: methodKinds[raw], Raw: raw}
}

func (m Method) String() string { return m.Raw }

// Passthrough reports whether the method is a raw node/explorer proxy call
// that bypasses UI and approval.
func (m Method) Passthrough() bool {
	return m.Kind == KindRequestNodeAPI || m.Kind == KindRequestExplorerAPI
}

// SigningClass reports whether the method needs a resolved signer address
// and a user decision.
func (m Method) SigningClass() bool {
	switch m.Kind {
	case KindSignAndSubmitTransferTx,
		KindSignAndSubmitDeployContractTx,
		KindSignAndSubmitExecuteScriptTx,
		KindSignAndSubmitUnsignedTx,
		KindSignUnsignedTx,
		KindSignMessage:
		return true
	default:
		return false
	}
}
