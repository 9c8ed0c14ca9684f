package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/lunarfield/walletbridge-backend/internal/relay"
)

const (
	// maxSignatureRecords caps retained signing-class history records.
	maxSignatureRecords = 10
	// maxPendingRecords caps retained unresolved records of any other method.
	maxPendingRecords = 10

	signatureMethodPrefix = "alph_sign"
)

// passthroughMethods are raw node/explorer proxy calls. They carry no signing
// semantics worth auditing and may be arbitrarily large, so they never survive
// a restart and are scrubbed after every exchange.
var passthroughMethods = map[string]struct{}{
	"alph_requestNodeApi":     {},
	"alph_requestExplorerApi": {},
}

// IsPassthroughMethod reports whether a dApp method is a raw API proxy call.
func IsPassthroughMethod(method string) bool {
	_, ok := passthroughMethods[method]
	return ok
}

func isSignatureMethod(method string) bool {
	return strings.HasPrefix(method, signatureMethodPrefix)
}

// Report is the outcome of one pruning pass. Storage failures are collected
// instead of aborting the pass: pruning is best-effort and must never block
// protocol progress.
type Report struct {
	DroppedRecords  int
	DroppedMessages int
	DroppedBuffers  int
	Failures        []error
}

func (r *Report) fail(err error) {
	r.Failures = append(r.Failures, err)
}

// Err joins the collected failures, nil when the pass was clean.
func (r Report) Err() error {
	return errors.Join(r.Failures...)
}

// Pruner enforces the bounded-history policy over the persisted protocol
// store.
type Pruner struct {
	store   ProtocolStore
	metrics Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewPruner validates dependencies and builds a Pruner.
func NewPruner(store ProtocolStore, metrics Metrics, logger *zap.Logger) (*Pruner, error) {
	if store == nil {
		return nil, errors.New("history: protocol store is required")
	}
	if metrics == nil {
		return nil, errors.New("history: metrics is required")
	}
	if logger == nil {
		return nil, errors.New("history: logger is required")
	}
	return &Pruner{
		store:   store,
		metrics: metrics,
		logger:  logger.Named("pruner"),
		now:     time.Now,
	}, nil
}

// PruneBeforeInit runs the startup pass, newest records first:
//   - expired records are dropped;
//   - at most maxSignatureRecords signing-class records are retained,
//     resolved or not, for audit;
//   - at most maxPendingRecords unresolved records of any other method are
//     retained so in-flight work survives a restart;
//   - unresolved passthrough records are dropped unconditionally;
//   - everything else is dropped.
//
// Relative order of the retained records is preserved. Message buffers for
// topics without a live session are removed as unreachable garbage.
func (p *Pruner) PruneBeforeInit(ctx context.Context) (Report, error) {
	started := time.Now()
	report, err := p.pruneBeforeInit(ctx)
	p.metrics.Observe("before_init", err, started)
	return report, err
}

func (p *Pruner) pruneBeforeInit(ctx context.Context) (Report, error) {
	var report Report

	records, err := p.store.History(ctx)
	if err != nil {
		return report, fmt.Errorf("history: load records: %w", err)
	}

	keep := make([]bool, len(records))
	now := p.now().Unix()
	signatures, pending := 0, 0
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		switch {
		case rec.Expiry != 0 && rec.Expiry <= now:
		case IsPassthroughMethod(rec.Method) && rec.Response == nil:
		case isSignatureMethod(rec.Method):
			if signatures < maxSignatureRecords {
				keep[i] = true
				signatures++
			}
		case rec.Response == nil:
			if pending < maxPendingRecords {
				keep[i] = true
				pending++
			}
		}
	}

	kept := make([]relay.HistoryRecord, 0, len(records))
	for i, rec := range records {
		if keep[i] {
			kept = append(kept, rec)
		}
	}
	report.DroppedRecords = len(records) - len(kept)
	if report.DroppedRecords > 0 {
		if err := p.store.SaveHistory(ctx, kept); err != nil {
			report.fail(fmt.Errorf("history: write reduced records: %w", err))
		}
	}

	p.dropOrphanedBuffers(ctx, &report)

	p.logger.Debug("startup prune done",
		zap.Int("droppedRecords", report.DroppedRecords),
		zap.Int("droppedBuffers", report.DroppedBuffers),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

func (p *Pruner) dropOrphanedBuffers(ctx context.Context, report *Report) {
	sessions, err := p.store.Sessions(ctx)
	if err != nil {
		report.fail(fmt.Errorf("history: load sessions: %w", err))
		return
	}
	live := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		live[s.Topic] = struct{}{}
	}

	topics, err := p.store.MessageTopics(ctx)
	if err != nil {
		report.fail(fmt.Errorf("history: list message buffers: %w", err))
		return
	}
	for _, topic := range topics {
		if _, ok := live[topic]; ok {
			continue
		}
		if err := p.store.DeleteMessages(ctx, topic); err != nil {
			report.fail(fmt.Errorf("history: delete buffer %q: %w", topic, err))
			continue
		}
		report.DroppedBuffers++
	}
}

// PruneAfterExchange runs after a completed request/response cycle. Expired
// and passthrough records for the topic are always deleted; resolved records
// are deleted only when checkResponse is set. An empty topic widens the pass
// to every topic (the post-init cleanup). The topic's message buffer is
// scrubbed of passthrough entries and entries of just-deleted requests.
func (p *Pruner) PruneAfterExchange(ctx context.Context, topic string, checkResponse bool) (Report, error) {
	started := time.Now()
	report, err := p.pruneAfterExchange(ctx, topic, checkResponse)
	p.metrics.Observe("after_exchange", err, started)
	return report, err
}

func (p *Pruner) pruneAfterExchange(ctx context.Context, topic string, checkResponse bool) (Report, error) {
	var report Report

	records, err := p.store.History(ctx)
	if err != nil {
		return report, fmt.Errorf("history: load records: %w", err)
	}

	now := p.now().Unix()
	dropped := map[int64]struct{}{}
	kept := make([]relay.HistoryRecord, 0, len(records))
	for _, rec := range records {
		inScope := topic == "" || rec.Topic == topic
		expired := rec.Expiry != 0 && rec.Expiry <= now
		if inScope && (expired || IsPassthroughMethod(rec.Method) || (checkResponse && rec.Response != nil)) {
			dropped[rec.ID] = struct{}{}
			continue
		}
		kept = append(kept, rec)
	}
	report.DroppedRecords = len(dropped)
	if len(dropped) > 0 {
		if err := p.store.SaveHistory(ctx, kept); err != nil {
			report.fail(fmt.Errorf("history: write reduced records: %w", err))
		}
	}

	if topic != "" {
		p.scrubBuffer(ctx, topic, dropped, &report)
	}

	p.logger.Debug("exchange prune done",
		zap.String("topic", topic),
		zap.Int("droppedRecords", report.DroppedRecords),
		zap.Int("droppedMessages", report.DroppedMessages),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

// scrubBuffer removes buffered messages that carry a passthrough call or that
// belong to a request whose history record was just dropped.
func (p *Pruner) scrubBuffer(ctx context.Context, topic string, dropped map[int64]struct{}, report *Report) {
	messages, err := p.store.Messages(ctx, topic)
	if err != nil {
		report.fail(fmt.Errorf("history: load buffer %q: %w", topic, err))
		return
	}
	if len(messages) == 0 {
		return
	}

	kept := messages[:0]
	for _, msg := range messages {
		method := gjson.GetBytes(msg.Payload, "params.request.method").String()
		id := gjson.GetBytes(msg.Payload, "id").Int()
		_, resolved := dropped[id]
		if IsPassthroughMethod(method) || resolved {
			continue
		}
		kept = append(kept, msg)
	}
	if len(kept) == len(messages) {
		return
	}
	report.DroppedMessages = len(messages) - len(kept)
	if err := p.store.SaveMessages(ctx, topic, kept); err != nil {
		report.fail(fmt.Errorf("history: write buffer %q: %w", topic, err))
	}
}
