package session

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

import (
	"context"
	"time"

	"github.com/lunarfield/walletbridge-backend/internal/history"
	"github.com/lunarfield/walletbridge-backend/internal/relay"
)

type (
	// SignClient is the relay-protocol capability the engine drives. The
	// concrete implementation lives in internal/relay; the engine owns the
	// only goroutine that drains Events.
	SignClient interface {
		Pair(ctx context.Context, uri string) error
		ActivatePairing(ctx context.Context, topic string) error
		Pairings() []relay.Pairing
		Sessions() []relay.Session
		PendingProposal(ctx context.Context, pairingTopic string) (*relay.Proposal, error)
		Approve(ctx context.Context, input relay.ApproveInput) (relay.Session, error)
		Reject(ctx context.Context, proposalID int64, reason *relay.RPCError) error
		Respond(ctx context.Context, topic string, resp relay.Response) error
		Disconnect(ctx context.Context, topic string, reason *relay.RPCError) error
		SetHistoryExpiry(ctx context.Context, id int64, expiry time.Time) error
		Reset(ctx context.Context) error
		Events() <-chan relay.Event
		Close() error
	}

	// Pruner is the bounded-history policy applied around initialization and
	// after completed exchanges.
	Pruner interface {
		PruneBeforeInit(ctx context.Context) (history.Report, error)
		PruneAfterExchange(ctx context.Context, topic string, checkResponse bool) (history.Report, error)
	}

	// Metrics records metrics for engine operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

// ClientFactory constructs the relay client. Construction performs network
// I/O and is the part the retry loop guards.
type ClientFactory func(ctx context.Context) (SignClient, error)
