// Package relay implements the pairing/session protocol client: the
// websocket transport, the JSON-RPC 2.0 wire codec, envelope encryption and
// the persisted pairing/session/history stores. The session engine consumes
// it through an interface so tests can substitute a mock.
package relay

import "encoding/json"

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	ID      int64           `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response envelope carrying exactly one of
// Result or Error.
type Response struct {
	ID      int64           `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the application-level error payload sent back to a dApp. Codes
// are drawn from the fixed taxonomy below, distinct from transport errors.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// Application-level error taxonomy. The codes are part of the wire contract.
var (
	ErrorUserRejected         = &RPCError{Code: 5000, Message: "user rejected the request"}
	ErrorUserRejectedEvents   = &RPCError{Code: 5003, Message: "user rejected the requested events"}
	ErrorSignerAddressUnknown = &RPCError{Code: 6001, Message: "signer address is not known to this wallet"}
	ErrorParsingFailed        = &RPCError{Code: 6002, Message: "could not parse the request parameters"}
	ErrorTransactionBuildFail = &RPCError{Code: 6003, Message: "could not build the transaction"}
	ErrorTransactionSendFail  = &RPCError{Code: 6004, Message: "could not submit the transaction"}
	ErrorMethodUnsupported    = &RPCError{Code: 10002, Message: "method is not supported"}

	// ErrorInternal is the standard JSON-RPC internal-error code, used for
	// failures that are neither user decisions nor request defects.
	ErrorInternal = &RPCError{Code: -32603, Message: "internal error"}
)

// WithMessage returns a copy of the error with a more specific message,
// keeping the taxonomy code.
func (e *RPCError) WithMessage(msg string) *RPCError {
	return &RPCError{Code: e.Code, Message: msg}
}

const jsonrpcVersion = "2.0"

// Relay-transport methods.
const (
	relayPublish      = "irn_publish"
	relaySubscribe    = "irn_subscribe"
	relayUnsubscribe  = "irn_unsubscribe"
	relaySubscription = "irn_subscription"
)

// Sign-protocol methods carried inside sealed envelopes.
const (
	MethodSessionPropose = "wc_sessionPropose"
	MethodSessionSettle  = "wc_sessionSettle"
	MethodSessionRequest = "wc_sessionRequest"
	MethodSessionDelete  = "wc_sessionDelete"
	MethodSessionPing    = "wc_sessionPing"
	MethodSessionUpdate  = "wc_sessionUpdate"
	MethodSessionEvent   = "wc_sessionEvent"
	MethodSessionExtend  = "wc_sessionExtend"
)

// NewRequest builds a request envelope with the protocol version set.
func NewRequest(id int64, method string, params any) (Request, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Request{}, err
	}
	return Request{ID: id, JSONRPC: jsonrpcVersion, Method: method, Params: raw}, nil
}

// NewResult builds a success response envelope.
func NewResult(id int64, result any) (Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return Response{}, err
	}
	return Response{ID: id, JSONRPC: jsonrpcVersion, Result: raw}, nil
}

// NewError builds an error response envelope.
func NewError(id int64, rpcErr *RPCError) Response {
	return Response{ID: id, JSONRPC: jsonrpcVersion, Error: rpcErr}
}
