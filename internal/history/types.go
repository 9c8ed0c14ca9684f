package history

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

import (
	"context"
	"time"

	"github.com/lunarfield/walletbridge-backend/internal/relay"
)

// ProtocolStore is the slice of the persisted protocol store the pruner
// operates on.
type ProtocolStore interface {
	History(ctx context.Context) ([]relay.HistoryRecord, error)
	SaveHistory(ctx context.Context, records []relay.HistoryRecord) error
	Sessions(ctx context.Context) ([]relay.Session, error)
	MessageTopics(ctx context.Context) ([]string, error)
	Messages(ctx context.Context, topic string) ([]relay.StoredMessage, error)
	SaveMessages(ctx context.Context, topic string, messages []relay.StoredMessage) error
	DeleteMessages(ctx context.Context, topic string) error
}

// Metrics records metrics for pruning passes.
type Metrics interface {
	Observe(pass string, err error, started time.Time)
}
