package dispatch

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lunarfield/walletbridge-backend/internal/relay"
)

// Outcome is the approval capability's decision for an intent.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeApproved
	OutcomeBuildFailed
)

// Decision carries the outcome plus the build-failure reason when relevant.
type Decision struct {
	Outcome Outcome
	Reason  string
}

type (
	// AddressBook is the read-only signer lookup of the wallet.
	AddressBook interface {
		Contains(address string) bool
		Size() int
	}

	// ApprovalUI suspends a request on a human decision. Closing the flow
	// without an explicit decision surfaces as an error and counts as a
	// rejection.
	ApprovalUI interface {
		Request(ctx context.Context, intent Intent) (Decision, error)
	}

	// APIClient forwards a raw passthrough call to the node or explorer.
	APIClient interface {
		Request(ctx context.Context, params json.RawMessage) (json.RawMessage, error)
	}

	// Broadcaster signs an approved intent and, where the method demands it,
	// submits the transaction. The raw JSON result goes back to the dApp
	// verbatim.
	Broadcaster interface {
		SignAndSubmit(ctx context.Context, intent Intent) (json.RawMessage, error)
	}

	// Responder is the session engine surface the dispatcher answers through;
	// it owns response delivery and post-exchange pruning.
	Responder interface {
		Respond(ctx context.Context, topic string, resp relay.Response) error
		SetRequestExpiry(ctx context.Context, id int64, expiry time.Time) error
	}

	// Metrics records metrics for dispatched methods.
	Metrics interface {
		Observe(method string, err error, started time.Time)
	}
)
