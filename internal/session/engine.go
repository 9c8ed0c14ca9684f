package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lunarfield/walletbridge-backend/internal/clock"
	"github.com/lunarfield/walletbridge-backend/internal/history"
	"github.com/lunarfield/walletbridge-backend/internal/ledger"
	"github.com/lunarfield/walletbridge-backend/internal/relay"
	"github.com/lunarfield/walletbridge-backend/internal/storage"
)

// Status is the lifecycle state of the engine.
type Status string

const (
	StatusUninitialized     Status = "uninitialized"
	StatusInitializing      Status = "initializing"
	StatusInitialized       Status = "initialized"
	StatusInitFailed        Status = "initialization_failed"
	StatusMaxRetriesReached Status = "max_retries_reached"
)

const (
	maxInitRetries       = 5
	defaultRetryInterval = 3 * time.Second

	// anyGroup marks a chain that accepts signers from every address group.
	anyGroup = -1
)

var (
	// ErrNotInitialized reports an operation that needs a live relay client.
	ErrNotInitialized = errors.New("session: engine is not initialized")
	// ErrNoPendingProposal reports approve/reject with nothing to resolve.
	ErrNoPendingProposal = errors.New("session: no pending proposal")

	// Proposal validation failures. Each maps to its own user-facing message;
	// the proposal stays unresolved so the user may retry.
	ErrChainCount      = errors.New("session: dApp must request exactly one chain")
	ErrNetworkMismatch = errors.New("session: dApp network does not match the wallet network")
	ErrGroupMismatch   = errors.New("session: signer address group is not accepted by the dApp")
)

// InboundRequest is one dApp request surfaced on the Requests stream for the
// dispatcher/UI to act on.
type InboundRequest struct {
	Request relay.SessionRequest
	Session relay.Session
}

// Deps are the engine's constructor dependencies.
type Deps struct {
	Factory ClientFactory
	Pruner  Pruner
	Storage storage.Store
	Metrics Metrics
	Logger  *zap.Logger
	Network string
}

// Engine is the session lifecycle state machine. It is the single owner of
// the active-session cache, the pending proposal and the request stream;
// relay events are drained by one goroutine so all state transitions are
// serialized.
type Engine struct {
	factory ClientFactory
	pruner  Pruner
	kv      storage.Store
	metrics Metrics
	logger  *zap.Logger
	network string

	retryInterval time.Duration
	requests      chan InboundRequest

	mu       sync.Mutex
	status   Status
	attempts int
	client   SignClient
	sessions map[string]relay.Session
	proposal *relay.Proposal
}

// New validates dependencies and builds an engine in StatusUninitialized.
func New(deps Deps) (*Engine, error) {
	if deps.Factory == nil {
		return nil, errors.New("session: client factory is required")
	}
	if deps.Pruner == nil {
		return nil, errors.New("session: pruner is required")
	}
	if deps.Storage == nil {
		return nil, errors.New("session: storage is required")
	}
	if deps.Metrics == nil {
		return nil, errors.New("session: metrics is required")
	}
	if deps.Logger == nil {
		return nil, errors.New("session: logger is required")
	}
	if deps.Network == "" {
		return nil, errors.New("session: network is required")
	}
	return &Engine{
		factory:       deps.Factory,
		pruner:        deps.Pruner,
		kv:            deps.Storage,
		metrics:       deps.Metrics,
		logger:        deps.Logger.Named("session"),
		network:       deps.Network,
		retryInterval: defaultRetryInterval,
		requests:      make(chan InboundRequest, 16),
		status:        StatusUninitialized,
		sessions:      map[string]relay.Session{},
	}, nil
}

// Status returns the current lifecycle state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Requests is the stream of inbound dApp requests needing attention.
func (e *Engine) Requests() <-chan InboundRequest {
	return e.requests
}

// ActiveSessions lists the cached sessions, newest expiry first.
func (e *Engine) ActiveSessions() []relay.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]relay.Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Expiry > out[j].Expiry })
	return out
}

// ResetRetries re-arms the retry loop after StatusMaxRetriesReached.
func (e *Engine) ResetRetries() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attempts = 0
	if e.status == StatusMaxRetriesReached {
		e.status = StatusUninitialized
	}
}

// Run initializes the engine with bounded retries, then serves until the
// context is done. Retries are strictly serialized at a fixed interval; the
// retry cap transitions to StatusMaxRetriesReached and only an explicit
// ResetRetries re-arms automatic retries.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := e.Initialize(ctx)
		if err == nil {
			<-ctx.Done()
			e.shutdown()
			return ctx.Err()
		}

		e.mu.Lock()
		e.attempts++
		attempts := e.attempts
		e.mu.Unlock()
		e.logger.Warn("initialization failed",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", maxInitRetries),
			zap.Error(err))

		if attempts >= maxInitRetries {
			e.setStatus(StatusMaxRetriesReached)
			return fmt.Errorf("session: giving up after %d attempts: %w", attempts, err)
		}
		if err := clock.SleepWithContext(ctx, e.retryInterval); err != nil {
			return err
		}
	}
}

// Initialize runs one initialization attempt: startup prune, relay client
// construction, event drain start, post-init cleanup and session cache
// refresh.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	if e.status == StatusInitialized {
		e.mu.Unlock()
		return nil
	}
	e.status = StatusInitializing
	e.mu.Unlock()

	started := time.Now()
	err := e.initialize(ctx)
	e.metrics.Observe("initialize", err, started)
	if err != nil {
		e.setStatus(StatusInitFailed)
		return err
	}
	e.setStatus(StatusInitialized)
	return nil
}

func (e *Engine) initialize(ctx context.Context) error {
	if report, err := e.pruner.PruneBeforeInit(ctx); err != nil {
		e.logger.Warn("startup prune failed", zap.Error(err))
	} else {
		e.logReport("startup prune", report)
	}

	client, err := e.factory(ctx)
	if err != nil {
		return fmt.Errorf("session: construct relay client: %w", err)
	}

	e.mu.Lock()
	e.client = client
	e.sessions = map[string]relay.Session{}
	for _, s := range client.Sessions() {
		e.sessions[s.Topic] = s
	}
	count := len(e.sessions)
	e.mu.Unlock()

	// Post-init cleanup keeps unresolved work, drops expired and passthrough
	// leftovers across every topic.
	if report, err := e.pruner.PruneAfterExchange(ctx, "", false); err != nil {
		e.logger.Warn("post-init prune failed", zap.Error(err))
	} else {
		e.logReport("post-init prune", report)
	}

	go e.drainEvents(client)

	e.logger.Info("engine initialized", zap.Int("active_sessions", count))
	return nil
}

func (e *Engine) logReport(pass string, report history.Report) {
	if err := report.Err(); err != nil {
		e.logger.Warn(pass+" incomplete", zap.Error(err))
	}
}

func (e *Engine) setStatus(status Status) {
	e.mu.Lock()
	e.status = status
	e.mu.Unlock()
}

func (e *Engine) requireClient() (SignClient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusInitialized || e.client == nil {
		return nil, ErrNotInitialized
	}
	return e.client, nil
}

func (e *Engine) shutdown() {
	e.mu.Lock()
	client := e.client
	e.client = nil
	e.status = StatusUninitialized
	e.mu.Unlock()
	if client != nil {
		if err := client.Close(); err != nil {
			e.logger.Warn("relay client close failed", zap.Error(err))
		}
	}
}

// drainEvents is the single actor over the relay event stream; it exits when
// the client closes its channel.
func (e *Engine) drainEvents(client SignClient) {
	for event := range client.Events() {
		e.handleEvent(event)
	}
}

func (e *Engine) handleEvent(event relay.Event) {
	if e.Status() != StatusInitialized {
		e.logger.Debug("event ignored outside initialized state", zap.String("kind", string(event.Kind)))
		return
	}

	switch event.Kind {
	case relay.EventSessionProposal:
		if event.Proposal == nil {
			e.logger.Warn("proposal event without a payload dropped", zap.String("topic", event.Topic))
			return
		}
		e.mu.Lock()
		e.proposal = event.Proposal
		e.mu.Unlock()
		e.logger.Info("session proposal received",
			zap.String("topic", event.Topic),
			zap.String("dapp", event.Proposal.Proposer.Name))
	case relay.EventSessionRequest:
		if event.Request == nil {
			e.logger.Warn("request event without a payload dropped", zap.String("topic", event.Topic))
			return
		}
		e.mu.Lock()
		session := e.sessions[event.Topic]
		e.mu.Unlock()
		e.requests <- InboundRequest{Request: *event.Request, Session: session}
	case relay.EventSessionDelete:
		e.mu.Lock()
		delete(e.sessions, event.Topic)
		e.mu.Unlock()
		e.logger.Info("session deleted by peer", zap.String("topic", event.Topic))
	default:
		// Informational extension points.
		e.logger.Debug("protocol event", zap.String("kind", string(event.Kind)), zap.String("topic", event.Topic))
	}
}

// PairWithDapp establishes (or re-activates) a pairing from a wc: URI. An
// existing inactive pairing is activated and its pending proposal replayed,
// because activation does not reliably re-emit the proposal event. Pairing is
// idempotent: an already-paired topic is not an error.
func (e *Engine) PairWithDapp(ctx context.Context, uri string) error {
	started := time.Now()
	err := e.pairWithDapp(ctx, uri)
	e.metrics.Observe("pair", err, started)
	return err
}

func (e *Engine) pairWithDapp(ctx context.Context, uri string) error {
	client, err := e.requireClient()
	if err != nil {
		return err
	}
	parsed, err := relay.ParseURI(uri)
	if err != nil {
		return err
	}

	for _, pairing := range client.Pairings() {
		if pairing.Topic != parsed.Topic {
			continue
		}
		if !pairing.Active {
			if err := client.ActivatePairing(ctx, parsed.Topic); err != nil {
				return fmt.Errorf("session: activate pairing: %w", err)
			}
		}
		proposal, err := client.PendingProposal(ctx, parsed.Topic)
		if err != nil {
			return fmt.Errorf("session: find pending proposal: %w", err)
		}
		if proposal != nil {
			e.handleEvent(relay.Event{Kind: relay.EventSessionProposal, Topic: parsed.Topic, Proposal: proposal})
		}
		return nil
	}

	if err := client.Pair(ctx, uri); err != nil && !errors.Is(err, relay.ErrPairingExists) {
		return fmt.Errorf("session: pair: %w", err)
	}
	return nil
}

// ApproveProposal resolves the pending proposal into a session authorized for
// the signer address. Validation failures leave the proposal unresolved so a
// different address can be retried; an unacknowledged settle is an approval
// failure.
func (e *Engine) ApproveProposal(ctx context.Context, signerAddress string) error {
	started := time.Now()
	err := e.approveProposal(ctx, signerAddress)
	e.metrics.Observe("approve_proposal", err, started)
	return err
}

func (e *Engine) approveProposal(ctx context.Context, signerAddress string) error {
	client, err := e.requireClient()
	if err != nil {
		return err
	}
	e.mu.Lock()
	proposal := e.proposal
	e.mu.Unlock()
	if proposal == nil {
		return ErrNoPendingProposal
	}

	chain, err := requiredChain(proposal)
	if err != nil {
		return err
	}
	network, group, err := parseChain(chain)
	if err != nil {
		return err
	}
	if network != e.network {
		return fmt.Errorf("%w: dApp requires %q, wallet is on %q", ErrNetworkMismatch, network, e.network)
	}
	if group != anyGroup {
		signerGroup, err := ledger.GroupOfAddress(signerAddress)
		if err != nil {
			return fmt.Errorf("session: signer address: %w", err)
		}
		if int(signerGroup) != group {
			return fmt.Errorf("%w: dApp requires group %d, address is in group %d", ErrGroupMismatch, group, signerGroup)
		}
	}

	// One session per dApp origin.
	for _, existing := range e.ActiveSessions() {
		if existing.PeerMetadata.URL == "" || existing.PeerMetadata.URL != proposal.Proposer.URL {
			continue
		}
		if err := client.Disconnect(ctx, existing.Topic, nil); err != nil {
			e.logger.Warn("disconnect of superseded session failed",
				zap.String("topic", existing.Topic), zap.Error(err))
		}
		e.mu.Lock()
		delete(e.sessions, existing.Topic)
		e.mu.Unlock()
	}

	account := chain + ":" + signerAddress
	namespaces := make(map[string]relay.SessionNamespace, len(proposal.RequiredNamespaces))
	for name, required := range proposal.RequiredNamespaces {
		namespaces[name] = relay.SessionNamespace{
			Accounts: []string{account},
			Methods:  required.Methods,
			Events:   required.Events,
		}
	}

	session, err := client.Approve(ctx, relay.ApproveInput{ProposalID: proposal.ID, Namespaces: namespaces})
	if err != nil {
		return fmt.Errorf("session: approve: %w", err)
	}

	e.mu.Lock()
	e.sessions[session.Topic] = session
	e.proposal = nil
	e.mu.Unlock()
	e.logger.Info("session approved",
		zap.String("topic", session.Topic),
		zap.String("dapp", session.PeerMetadata.Name))
	return nil
}

// RejectProposal resolves the pending proposal with a user-rejected error.
// The proposal is cleared whether or not the relay call succeeds.
func (e *Engine) RejectProposal(ctx context.Context) error {
	started := time.Now()
	err := e.rejectProposal(ctx)
	e.metrics.Observe("reject_proposal", err, started)
	return err
}

func (e *Engine) rejectProposal(ctx context.Context) error {
	client, err := e.requireClient()
	if err != nil {
		return err
	}
	e.mu.Lock()
	proposal := e.proposal
	e.proposal = nil
	e.mu.Unlock()
	if proposal == nil {
		return ErrNoPendingProposal
	}
	if err := client.Reject(ctx, proposal.ID, relay.ErrorUserRejected); err != nil {
		return fmt.Errorf("session: reject: %w", err)
	}
	return nil
}

// UnpairFromDapp disconnects the session on a topic and prunes its records.
func (e *Engine) UnpairFromDapp(ctx context.Context, topic string) error {
	started := time.Now()
	err := e.unpairFromDapp(ctx, topic)
	e.metrics.Observe("unpair", err, started)
	return err
}

func (e *Engine) unpairFromDapp(ctx context.Context, topic string) error {
	client, err := e.requireClient()
	if err != nil {
		return err
	}
	disconnectErr := client.Disconnect(ctx, topic, nil)
	e.mu.Lock()
	delete(e.sessions, topic)
	e.mu.Unlock()
	if report, err := e.pruner.PruneAfterExchange(ctx, topic, false); err != nil {
		e.logger.Warn("unpair prune failed", zap.Error(err))
	} else {
		e.logReport("unpair prune", report)
	}
	return disconnectErr
}

// Respond relays exactly one response for a session request and prunes the
// resolved exchange.
func (e *Engine) Respond(ctx context.Context, topic string, resp relay.Response) error {
	started := time.Now()
	err := e.respond(ctx, topic, resp)
	e.metrics.Observe("respond", err, started)
	return err
}

func (e *Engine) respond(ctx context.Context, topic string, resp relay.Response) error {
	client, err := e.requireClient()
	if err != nil {
		return err
	}
	if err := client.Respond(ctx, topic, resp); err != nil {
		return err
	}
	if report, err := e.pruner.PruneAfterExchange(ctx, topic, true); err != nil {
		e.logger.Warn("exchange prune failed", zap.Error(err))
	} else {
		e.logReport("exchange prune", report)
	}
	return nil
}

// SetRequestExpiry shortens the retention of one history record; used for
// passthrough calls that must not linger.
func (e *Engine) SetRequestExpiry(ctx context.Context, id int64, expiry time.Time) error {
	client, err := e.requireClient()
	if err != nil {
		return err
	}
	return client.SetHistoryExpiry(ctx, id, expiry)
}

// ResetStorage is the factory reset of the protocol layer: best-effort
// per-topic disconnects, all in-memory state dropped, persisted namespace
// cleared. Safe to call when no client was ever constructed.
func (e *Engine) ResetStorage(ctx context.Context) error {
	started := time.Now()
	err := e.resetStorage(ctx)
	e.metrics.Observe("reset_storage", err, started)
	return err
}

func (e *Engine) resetStorage(ctx context.Context) error {
	e.mu.Lock()
	client := e.client
	topics := make([]string, 0, len(e.sessions))
	for topic := range e.sessions {
		topics = append(topics, topic)
	}
	e.sessions = map[string]relay.Session{}
	e.proposal = nil
	e.mu.Unlock()

	if client != nil {
		sort.Strings(topics)
		for _, topic := range topics {
			if err := client.Disconnect(ctx, topic, nil); err != nil {
				e.logger.Warn("disconnect during reset failed",
					zap.String("topic", topic), zap.Error(err))
			}
		}
		// The client's live state must go before the storage wipe, or a
		// later persist writes the old pairings and proposals back.
		if err := client.Reset(ctx); err != nil {
			e.logger.Warn("relay state reset failed", zap.Error(err))
		}
	}

drain:
	for {
		select {
		case <-e.requests:
		default:
			break drain
		}
	}

	if err := relay.NewStore(e.kv).Clear(ctx); err != nil {
		return fmt.Errorf("session: clear storage: %w", err)
	}
	e.logger.Info("protocol storage reset", zap.Int("disconnected", len(topics)))
	return nil
}

// requiredChain enforces that the proposal demands exactly one chain across
// all its namespaces.
func requiredChain(proposal *relay.Proposal) (string, error) {
	seen := map[string]struct{}{}
	var chain string
	for _, ns := range proposal.RequiredNamespaces {
		for _, c := range ns.Chains {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				chain = c
			}
		}
	}
	if len(seen) != 1 {
		return "", fmt.Errorf("%w: got %d", ErrChainCount, len(seen))
	}
	return chain, nil
}

// parseChain splits a CAIP-style chain id "alephium:<network>/<group>". The
// group part is optional; -1 (or absence) accepts any address group.
func parseChain(chain string) (string, int, error) {
	_, rest, ok := strings.Cut(chain, ":")
	if !ok || rest == "" {
		return "", 0, fmt.Errorf("session: malformed chain id %q", chain)
	}
	network, groupPart, ok := strings.Cut(rest, "/")
	if !ok {
		return network, anyGroup, nil
	}
	group, err := strconv.Atoi(groupPart)
	if err != nil {
		return "", 0, fmt.Errorf("session: malformed chain group in %q", chain)
	}
	if group != anyGroup && (group < 0 || group >= ledger.GroupCount) {
		return "", 0, fmt.Errorf("session: chain group %d out of range", group)
	}
	return network, group, nil
}
