package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/lunarfield/walletbridge-backend/internal/clock"
	"github.com/lunarfield/walletbridge-backend/internal/relay"
)

const (
	// passthroughExpiry shortens the history lifetime of proxy calls so the
	// pruner reaps them quickly even if the pass-through response is lost.
	passthroughExpiry = time.Minute

	passthroughRateLimit = 10 // calls per second across both API targets

	// replayPollInterval paces the wallet-readiness check in Run.
	replayPollInterval = time.Second

	// maxRespondedEntries bounds the answered-request dedup set; the oldest
	// entries are evicted first. Request ids are timestamps, so an evicted
	// entry is long past its redelivery window.
	maxRespondedEntries = 1024
)

var (
	ErrNilResponder   = errors.New("responder must not be nil")
	ErrNilAddressBook = errors.New("address book must not be nil")
	ErrNilApprovalUI  = errors.New("approval ui must not be nil")
	ErrNilNodeClient  = errors.New("node client must not be nil")
	ErrNilExplorer    = errors.New("explorer client must not be nil")
	ErrNilBroadcaster = errors.New("broadcaster must not be nil")
	ErrNilMetrics     = errors.New("metrics must not be nil")
	ErrNilLogger      = errors.New("logger must not be nil")
)

// Deps are the capabilities a Dispatcher drives. All are required.
type Deps struct {
	Responder   Responder
	AddressBook AddressBook
	ApprovalUI  ApprovalUI
	Node        APIClient
	Explorer    APIClient
	Broadcaster Broadcaster
	Metrics     Metrics
	Logger      *zap.Logger
}

// Dispatcher turns inbound session requests into wallet actions and answers
// each exactly once. Requests that arrive before any wallet address exists
// are parked and replayed when the wallet is ready.
type Dispatcher struct {
	deps         Deps
	logger       *zap.Logger
	limiter      ratelimit.Limiter
	pollInterval time.Duration

	mu             sync.Mutex
	parked         []relay.SessionRequest
	responded      map[exchangeKey]struct{}
	respondedOrder []exchangeKey
}

// exchangeKey identifies one request exchange. Ids are only unique per
// session topic, so the dedup set keys on both.
type exchangeKey struct {
	topic string
	id    int64
}

func New(deps Deps) (*Dispatcher, error) {
	switch {
	case deps.Responder == nil:
		return nil, ErrNilResponder
	case deps.AddressBook == nil:
		return nil, ErrNilAddressBook
	case deps.ApprovalUI == nil:
		return nil, ErrNilApprovalUI
	case deps.Node == nil:
		return nil, ErrNilNodeClient
	case deps.Explorer == nil:
		return nil, ErrNilExplorer
	case deps.Broadcaster == nil:
		return nil, ErrNilBroadcaster
	case deps.Metrics == nil:
		return nil, ErrNilMetrics
	case deps.Logger == nil:
		return nil, ErrNilLogger
	}
	return &Dispatcher{
		deps:         deps,
		logger:       deps.Logger.Named("dispatch"),
		limiter:      ratelimit.New(passthroughRateLimit),
		pollInterval: replayPollInterval,
		responded:    map[exchangeKey]struct{}{},
	}, nil
}

// Run watches for wallet readiness and replays parked requests as soon as an
// address exists. It returns the context error when the context ends.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if d.Parked() > 0 && d.deps.AddressBook.Size() > 0 {
			if err := d.ReplayParked(ctx); err != nil {
				d.logger.Warn("parked replay failed", zap.Error(err))
			}
		}
		if err := clock.SleepWithContext(ctx, d.pollInterval); err != nil {
			return err
		}
	}
}

// Dispatch handles one session request end to end. It never returns a
// request-level defect as an error; those become error responses to the dApp.
// The returned error covers delivery failures only.
func (d *Dispatcher) Dispatch(ctx context.Context, req relay.SessionRequest) error {
	method := ParseMethod(req.Method)
	started := time.Now()
	err := d.dispatch(ctx, method, req)
	d.deps.Metrics.Observe(method.Raw, err, started)
	return err
}

func (d *Dispatcher) dispatch(ctx context.Context, method Method, req relay.SessionRequest) error {
	d.mu.Lock()
	if _, done := d.responded[exchangeKey{topic: req.Topic, id: req.ID}]; done {
		d.mu.Unlock()
		d.logger.Debug("request already answered", zap.String("topic", req.Topic), zap.Int64("id", req.ID))
		return nil
	}
	d.mu.Unlock()

	switch {
	case method.Passthrough():
		return d.dispatchPassthrough(ctx, method, req)
	case method.SigningClass():
		return d.dispatchSigning(ctx, method, req)
	default:
		d.logger.Warn("unsupported method", zap.String("method", req.Method), zap.Int64("id", req.ID))
		return d.respondError(ctx, req, relay.ErrorMethodUnsupported)
	}
}

func (d *Dispatcher) dispatchPassthrough(ctx context.Context, method Method, req relay.SessionRequest) error {
	// Shorten the record lifetime; proxy calls carry no long-lived value and
	// must never survive a prune. Best effort.
	if err := d.deps.Responder.SetRequestExpiry(ctx, req.ID, time.Now().Add(passthroughExpiry)); err != nil {
		d.logger.Warn("set passthrough expiry", zap.Int64("id", req.ID), zap.Error(err))
	}

	d.limiter.Take()

	target := d.deps.Node
	if method.Kind == KindRequestExplorerAPI {
		target = d.deps.Explorer
	}
	result, err := target.Request(ctx, req.Params)
	if err != nil {
		d.logger.Warn("passthrough call failed",
			zap.String("method", method.Raw), zap.Int64("id", req.ID), zap.Error(err))
		return d.respondError(ctx, req, relay.ErrorInternal.WithMessage(err.Error()))
	}
	return d.respondResult(ctx, req, result)
}

func (d *Dispatcher) dispatchSigning(ctx context.Context, method Method, req relay.SessionRequest) error {
	if d.deps.AddressBook.Size() == 0 {
		d.park(req)
		return nil
	}

	signer := gjson.GetBytes(req.Params, "signerAddress").String()
	if signer == "" || !d.deps.AddressBook.Contains(signer) {
		d.logger.Warn("unknown signer address",
			zap.String("method", method.Raw), zap.Int64("id", req.ID))
		return d.respondError(ctx, req, relay.ErrorSignerAddressUnknown)
	}

	intent, err := BuildIntent(method, req.Params)
	if err != nil {
		d.logger.Warn("bad request params",
			zap.String("method", method.Raw), zap.Int64("id", req.ID), zap.Error(err))
		return d.respondError(ctx, req, relay.ErrorParsingFailed.WithMessage(err.Error()))
	}

	decision, err := d.deps.ApprovalUI.Request(ctx, intent)
	if err != nil {
		d.logger.Info("approval flow aborted", zap.Int64("id", req.ID), zap.Error(err))
		return d.respondError(ctx, req, relay.ErrorUserRejected)
	}

	switch decision.Outcome {
	case OutcomeApproved:
		result, err := d.deps.Broadcaster.SignAndSubmit(ctx, intent)
		if err != nil {
			d.logger.Error("sign and submit failed",
				zap.String("method", method.Raw), zap.Int64("id", req.ID), zap.Error(err))
			return d.respondError(ctx, req, relay.ErrorTransactionSendFail.WithMessage(err.Error()))
		}
		return d.respondResult(ctx, req, result)
	case OutcomeBuildFailed:
		rpcErr := relay.ErrorTransactionBuildFail
		if decision.Reason != "" {
			rpcErr = rpcErr.WithMessage(decision.Reason)
		}
		return d.respondError(ctx, req, rpcErr)
	default:
		return d.respondError(ctx, req, relay.ErrorUserRejected)
	}
}

// ReplayParked re-dispatches every request that was waiting on a wallet
// address, each at most once. Call it after the address book is populated.
func (d *Dispatcher) ReplayParked(ctx context.Context) error {
	d.mu.Lock()
	pending := d.parked
	d.parked = nil
	d.mu.Unlock()

	var errs []error
	for _, req := range pending {
		if err := d.Dispatch(ctx, req); err != nil {
			errs = append(errs, fmt.Errorf("replay request %d: %w", req.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Parked reports how many requests are waiting on wallet readiness.
func (d *Dispatcher) Parked() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.parked)
}

func (d *Dispatcher) park(req relay.SessionRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.parked = append(d.parked, req)
	d.logger.Info("parked request until wallet is ready",
		zap.Int64("id", req.ID), zap.String("method", req.Method), zap.Int("parked", len(d.parked)))
}

func (d *Dispatcher) respondError(ctx context.Context, req relay.SessionRequest, rpcErr *relay.RPCError) error {
	return d.respond(ctx, req, relay.NewError(req.ID, rpcErr))
}

func (d *Dispatcher) respondResult(ctx context.Context, req relay.SessionRequest, result any) error {
	resp, err := relay.NewResult(req.ID, result)
	if err != nil {
		return fmt.Errorf("encode result for request %d: %w", req.ID, err)
	}
	return d.respond(ctx, req, resp)
}

func (d *Dispatcher) respond(ctx context.Context, req relay.SessionRequest, resp relay.Response) error {
	if err := d.deps.Responder.Respond(ctx, req.Topic, resp); err != nil {
		return fmt.Errorf("respond to request %d: %w", req.ID, err)
	}
	d.markResponded(exchangeKey{topic: req.Topic, id: req.ID})
	return nil
}

func (d *Dispatcher) markResponded(key exchangeKey) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.responded[key]; ok {
		return
	}
	d.responded[key] = struct{}{}
	d.respondedOrder = append(d.respondedOrder, key)
	if len(d.respondedOrder) > maxRespondedEntries {
		oldest := d.respondedOrder[0]
		d.respondedOrder = d.respondedOrder[1:]
		delete(d.responded, oldest)
	}
}
