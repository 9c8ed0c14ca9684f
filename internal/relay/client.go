package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lunarfield/walletbridge-backend/internal/storage"
)

// ClientMetrics records metrics for relay operations.
type ClientMetrics interface {
	Observe(operation string, err error, started time.Time)
}

var (
	// ErrPairingExists reports an attempt to pair on a topic that already
	// has a pairing. Callers treat pairing as idempotent and may swallow it.
	ErrPairingExists = errors.New("relay: pairing already exists for topic")
	// ErrUnknownTopic reports a publish/receive against a topic with no key.
	ErrUnknownTopic = errors.New("relay: no key material for topic")
	// ErrProposalNotFound reports approve/reject for an unknown proposal.
	ErrProposalNotFound = errors.New("relay: proposal not found")
	// ErrAcknowledgeTimeout reports a dApp that never acknowledged a settle.
	ErrAcknowledgeTimeout = errors.New("relay: session settle not acknowledged")
	// ErrClosed reports use of a closed client.
	ErrClosed = errors.New("relay: client closed")
)

const (
	callTimeout        = 15 * time.Second
	acknowledgeTimeout = 30 * time.Second

	pairingTTL  = 30 * 24 * time.Hour
	sessionTTL  = 7 * 24 * time.Hour
	proposalTTL = 5 * time.Minute
	requestTTL  = 5 * time.Minute

	publishTTL = int64(300) // seconds the relay retains an undelivered message

	inboundBuffer = 256 // sealed messages queued between the read pump and the sign handler
)

// Options configures a relay client.
type Options struct {
	URL      string
	Metadata PeerMetadata // the wallet's own metadata, sent in settles
}

// Client is the relay-protocol client: one websocket connection, the sealed
// sign-protocol codec on top of it, and the persisted protocol stores. The
// session engine is its only consumer and drains Events sequentially.
type Client struct {
	logger  *zap.Logger
	conn    *websocket.Conn
	store   *Store
	metrics ClientMetrics
	meta    PeerMetadata

	events  chan Event
	inbound chan inboundMessage

	mu            sync.Mutex
	pairings      map[string]Pairing
	sessions      map[string]Session
	proposals     map[int64]Proposal
	subscriptions map[string]string
	rpcWaiters    map[int64]chan Response
	ackWaiters    map[int64]chan Response

	writeMu sync.Mutex
	nextID  atomic.Int64
	done    chan struct{}
	closed  sync.Once
}

// Dial connects to the relay, restores persisted protocol state and
// re-subscribes to every known topic.
func Dial(ctx context.Context, opts Options, kv storage.Store, metrics ClientMetrics, logger *zap.Logger) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("relay: url is required")
	}
	if metrics == nil {
		return nil, errors.New("relay: client metrics is required")
	}

	started := time.Now()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, opts.URL+"?clientId="+uuid.NewString(), nil)
	metrics.Observe("dial", err, started)
	if err != nil {
		return nil, fmt.Errorf("relay: dial %q: %w", opts.URL, err)
	}

	c := &Client{
		logger:        logger.Named("relay"),
		conn:          conn,
		store:         NewStore(kv),
		metrics:       metrics,
		meta:          opts.Metadata,
		events:        make(chan Event, 16),
		inbound:       make(chan inboundMessage, inboundBuffer),
		pairings:      map[string]Pairing{},
		sessions:      map[string]Session{},
		proposals:     map[int64]Proposal{},
		subscriptions: map[string]string{},
		rpcWaiters:    map[int64]chan Response{},
		ackWaiters:    map[int64]chan Response{},
		done:          make(chan struct{}),
	}
	c.nextID.Store(time.Now().UnixMicro())

	if err := c.restore(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	go c.readLoop()
	go c.signLoop()

	for _, topic := range c.knownTopics() {
		if err := c.subscribe(ctx, topic); err != nil {
			c.logger.Warn("resubscribe failed", zap.String("topic", topic), zap.Error(err))
		}
	}
	return c, nil
}

func (c *Client) restore(ctx context.Context) error {
	pairings, err := c.store.Pairings(ctx)
	if err != nil {
		return err
	}
	sessions, err := c.store.Sessions(ctx)
	if err != nil {
		return err
	}
	proposals, err := c.store.Proposals(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range pairings {
		c.pairings[p.Topic] = p
	}
	for _, s := range sessions {
		c.sessions[s.Topic] = s
	}
	for _, p := range proposals {
		c.proposals[p.ID] = p
	}
	return nil
}

func (c *Client) knownTopics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	topics := make([]string, 0, len(c.pairings)+len(c.sessions))
	for topic, p := range c.pairings {
		if p.Active {
			topics = append(topics, topic)
		}
	}
	for topic := range c.sessions {
		topics = append(topics, topic)
	}
	return topics
}

// Events is the single inbound event stream drained by the session engine.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Close tears down the websocket; pending waiters are released with ErrClosed.
func (c *Client) Close() error {
	var err error
	c.closed.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Store exposes the persisted protocol store; the pruner shares it so every
// disk write funnels through one place.
func (c *Client) Store() *Store {
	return c.store
}

func (c *Client) readLoop() {
	defer close(c.inbound)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("relay read failed", zap.Error(err))
			}
			return
		}
		c.handleFrame(raw)
	}
}

// inboundMessage is one sealed sign-protocol message handed from the read
// pump to signLoop. Handlers publish acks through the same connection, so
// they must never run on the read pump itself: the ack of their own publish
// arrives there.
type inboundMessage struct {
	topic  string
	sealed string
}

// signLoop drains the sealed messages queued by the read pump and runs the
// sign-protocol handlers, in arrival order.
func (c *Client) signLoop() {
	defer close(c.events)
	for m := range c.inbound {
		c.handleInbound(m.topic, m.sealed)
	}
}

type inboundFrame struct {
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	JSONRPC string          `json:"jsonrpc"`
}

type subscriptionData struct {
	ID   string `json:"id"`
	Data struct {
		Topic   string `json:"topic"`
		Message string `json:"message"`
	} `json:"data"`
}

func (c *Client) handleFrame(raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.logger.Warn("undecodable relay frame", zap.Error(err))
		return
	}

	if frame.Method == relaySubscription {
		var sub subscriptionData
		if err := json.Unmarshal(frame.Params, &sub); err != nil {
			c.logger.Warn("undecodable subscription payload", zap.Error(err))
			return
		}
		// The relay redelivers until acked.
		if resp, err := NewResult(frame.ID, true); err == nil {
			_ = c.write(resp)
		}
		select {
		case c.inbound <- inboundMessage{topic: sub.Data.Topic, sealed: sub.Data.Message}:
		default:
			c.logger.Warn("inbound queue full, message dropped", zap.String("topic", sub.Data.Topic))
		}
		return
	}

	if frame.Method == "" {
		c.mu.Lock()
		waiter := c.rpcWaiters[frame.ID]
		delete(c.rpcWaiters, frame.ID)
		c.mu.Unlock()
		if waiter != nil {
			waiter <- Response{ID: frame.ID, JSONRPC: frame.JSONRPC, Result: frame.Result, Error: frame.Error}
		}
		return
	}

	c.logger.Debug("ignoring relay method", zap.String("method", frame.Method))
}

func (c *Client) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// call performs one relay-transport RPC and waits for its ack.
func (c *Client) call(ctx context.Context, method string, params any) (Response, error) {
	id := c.nextID.Add(1)
	req, err := NewRequest(id, method, params)
	if err != nil {
		return Response{}, fmt.Errorf("relay: encode %s: %w", method, err)
	}

	waiter := make(chan Response, 1)
	c.mu.Lock()
	c.rpcWaiters[id] = waiter
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.rpcWaiters, id)
		c.mu.Unlock()
	}()

	started := time.Now()
	if err := c.write(req); err != nil {
		c.metrics.Observe(method, err, started)
		return Response{}, fmt.Errorf("relay: write %s: %w", method, err)
	}

	timer := time.NewTimer(callTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		c.metrics.Observe(method, ctx.Err(), started)
		return Response{}, ctx.Err()
	case <-c.done:
		c.metrics.Observe(method, ErrClosed, started)
		return Response{}, ErrClosed
	case <-timer.C:
		err := fmt.Errorf("relay: %s timed out", method)
		c.metrics.Observe(method, err, started)
		return Response{}, err
	case resp := <-waiter:
		if resp.Error != nil {
			c.metrics.Observe(method, resp.Error, started)
			return Response{}, fmt.Errorf("relay: %s: %w", method, resp.Error)
		}
		c.metrics.Observe(method, nil, started)
		return resp, nil
	}
}

type subscribeParams struct {
	Topic string `json:"topic"`
}

func (c *Client) subscribe(ctx context.Context, topic string) error {
	resp, err := c.call(ctx, relaySubscribe, subscribeParams{Topic: topic})
	if err != nil {
		return err
	}
	var subID string
	if err := json.Unmarshal(resp.Result, &subID); err != nil {
		return fmt.Errorf("relay: decode subscription id: %w", err)
	}
	c.mu.Lock()
	c.subscriptions[topic] = subID
	c.mu.Unlock()
	return nil
}

type unsubscribeParams struct {
	Topic string `json:"topic"`
	ID    string `json:"id"`
}

func (c *Client) unsubscribe(ctx context.Context, topic string) {
	c.mu.Lock()
	subID, ok := c.subscriptions[topic]
	delete(c.subscriptions, topic)
	c.mu.Unlock()
	if !ok {
		return
	}
	if _, err := c.call(ctx, relayUnsubscribe, unsubscribeParams{Topic: topic, ID: subID}); err != nil {
		c.logger.Warn("unsubscribe failed", zap.String("topic", topic), zap.Error(err))
	}
}

type publishParams struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
	TTL     int64  `json:"ttl"`
	Tag     int    `json:"tag"`
}

// publish seals a sign-protocol payload with the topic key and hands it to
// the relay.
func (c *Client) publish(ctx context.Context, topic string, payload any, tag int) error {
	key, err := c.symKeyFor(topic)
	if err != nil {
		return err
	}
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("relay: encode payload: %w", err)
	}
	sealed, err := Seal(key, plaintext)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, relayPublish, publishParams{Topic: topic, Message: sealed, TTL: publishTTL, Tag: tag})
	return err
}

func (c *Client) symKeyFor(topic string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[topic]; ok {
		return decodeKey(s.SymKey)
	}
	if p, ok := c.pairings[topic]; ok {
		return decodeKey(p.SymKey)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
}
