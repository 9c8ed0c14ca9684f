package relay

import "encoding/json"

// PeerMetadata is dApp-provided identity; untrusted and display-only.
type PeerMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url"`
	Icons       []string `json:"icons,omitempty"`
}

// Pairing is the long-lived handshake channel that precedes sessions. One
// pairing may host several sessions over its lifetime.
type Pairing struct {
	Topic         string        `json:"topic"`
	Active        bool          `json:"active"`
	Expiry        int64         `json:"expiry"`
	RelayProtocol string        `json:"relayProtocol"`
	SymKey        string        `json:"symKey"`
	PeerMetadata  *PeerMetadata `json:"peerMetadata,omitempty"`
}

// RequiredNamespace is the per-namespace capability set a proposal demands.
type RequiredNamespace struct {
	Chains  []string `json:"chains"`
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

// Proposal is an unresolved request from a dApp to open a session.
type Proposal struct {
	ID                 int64                        `json:"id"`
	PairingTopic       string                       `json:"pairingTopic"`
	RelayProtocol      string                       `json:"relayProtocol"`
	Proposer           PeerMetadata                 `json:"proposer"`
	RequiredNamespaces map[string]RequiredNamespace `json:"requiredNamespaces"`
	Expiry             int64                        `json:"expiry"`
}

// SessionNamespace is the capability set settled for an approved session.
type SessionNamespace struct {
	Accounts []string `json:"accounts"`
	Methods  []string `json:"methods"`
	Events   []string `json:"events"`
}

// Session is an approved channel authorizing specific accounts and methods
// for one dApp. It is never mutated in place except for lifetime renewal.
type Session struct {
	Topic         string                      `json:"topic"`
	PairingTopic  string                      `json:"pairingTopic"`
	RelayProtocol string                      `json:"relayProtocol"`
	SymKey        string                      `json:"symKey"`
	Expiry        int64                       `json:"expiry"`
	Acknowledged  bool                        `json:"acknowledged"`
	PeerMetadata  PeerMetadata                `json:"peerMetadata"`
	Namespaces    map[string]SessionNamespace `json:"namespaces"`
}

// SessionRequest is a single JSON-RPC-shaped request routed over an active
// session. Exactly one response must eventually be produced per ID.
type SessionRequest struct {
	ID      int64           `json:"id"`
	Topic   string          `json:"topic"`
	ChainID string          `json:"chainId"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// HistoryRecord is the persisted request/response tuple kept for replay and
// audit. The pruner caps how many of these survive.
type HistoryRecord struct {
	ID       int64           `json:"id"`
	Topic    string          `json:"topic"`
	Method   string          `json:"method"`
	Params   json.RawMessage `json:"params,omitempty"`
	Response *Response       `json:"response,omitempty"`
	Expiry   int64           `json:"expiry"`
}

// EventKind discriminates inbound protocol events.
type EventKind string

const (
	EventSessionProposal EventKind = "session_proposal"
	EventSessionRequest  EventKind = "session_request"
	EventSessionDelete   EventKind = "session_delete"
	EventSessionUpdate   EventKind = "session_update"
	EventSessionEvent    EventKind = "session_event"
	EventSessionPing     EventKind = "session_ping"
	EventSessionExpire   EventKind = "session_expire"
	EventSessionExtend   EventKind = "session_extend"
	EventProposalExpire  EventKind = "proposal_expire"
)

// Event is one inbound protocol event. Proposal and Request are set for the
// corresponding kinds only.
type Event struct {
	Kind     EventKind
	Topic    string
	Proposal *Proposal
	Request  *SessionRequest
}
