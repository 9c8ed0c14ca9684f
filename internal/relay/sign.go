package relay

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

func decodeKey(symKey string) ([]byte, error) {
	key, err := hex.DecodeString(symKey)
	if err != nil || len(key) != symKeySize {
		return nil, fmt.Errorf("relay: malformed symmetric key")
	}
	return key, nil
}

type wireProposeParams struct {
	Relays []struct {
		Protocol string `json:"protocol"`
	} `json:"relays"`
	Proposer struct {
		PublicKey string       `json:"publicKey"`
		Metadata  PeerMetadata `json:"metadata"`
	} `json:"proposer"`
	RequiredNamespaces map[string]RequiredNamespace `json:"requiredNamespaces"`
	ExpiryTimestamp    int64                        `json:"expiryTimestamp"`
}

type wireRequestParams struct {
	ChainID string `json:"chainId"`
	Request struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	} `json:"request"`
}

type wireDeleteParams struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleInbound decrypts one relay message for a topic and routes the sign
// protocol payload. Message buffering and history writes happen here so the
// rest of the module never touches storage directly.
func (c *Client) handleInbound(topic, sealed string) {
	key, err := c.symKeyFor(topic)
	if err != nil {
		c.logger.Warn("message for unknown topic dropped", zap.String("topic", topic))
		return
	}
	plaintext, err := Open(key, sealed)
	if err != nil {
		c.logger.Warn("undecryptable message dropped", zap.String("topic", topic), zap.Error(err))
		return
	}

	ctx := context.Background()
	if err := c.store.AppendMessage(ctx, topic, plaintext); err != nil {
		c.logger.Warn("message buffer write failed", zap.Error(err))
	}

	var frame inboundFrame
	if err := json.Unmarshal(plaintext, &frame); err != nil {
		c.logger.Warn("undecodable sign payload", zap.String("topic", topic), zap.Error(err))
		return
	}

	if frame.Method == "" {
		c.mu.Lock()
		waiter := c.ackWaiters[frame.ID]
		delete(c.ackWaiters, frame.ID)
		c.mu.Unlock()
		if waiter != nil {
			waiter <- Response{ID: frame.ID, JSONRPC: frame.JSONRPC, Result: frame.Result, Error: frame.Error}
		}
		return
	}

	switch frame.Method {
	case MethodSessionPropose:
		c.handlePropose(ctx, topic, frame)
	case MethodSessionRequest:
		c.handleRequest(ctx, topic, frame)
	case MethodSessionDelete:
		c.handleDelete(ctx, topic, frame)
	case MethodSessionPing:
		c.respondTrue(ctx, topic, frame.ID)
		c.emit(Event{Kind: EventSessionPing, Topic: topic})
	case MethodSessionUpdate:
		c.respondTrue(ctx, topic, frame.ID)
		c.emit(Event{Kind: EventSessionUpdate, Topic: topic})
	case MethodSessionEvent:
		c.respondTrue(ctx, topic, frame.ID)
		c.emit(Event{Kind: EventSessionEvent, Topic: topic})
	case MethodSessionExtend:
		c.handleExtend(ctx, topic, frame)
	default:
		c.logger.Debug("unhandled sign method", zap.String("method", frame.Method))
	}
}

func (c *Client) handlePropose(ctx context.Context, topic string, frame inboundFrame) {
	var params wireProposeParams
	if err := json.Unmarshal(frame.Params, &params); err != nil {
		c.logger.Warn("undecodable proposal", zap.Error(err))
		return
	}
	protocol := "irn"
	if len(params.Relays) > 0 {
		protocol = params.Relays[0].Protocol
	}
	expiry := params.ExpiryTimestamp
	if expiry == 0 {
		expiry = time.Now().Add(proposalTTL).Unix()
	}
	proposal := Proposal{
		ID:                 frame.ID,
		PairingTopic:       topic,
		RelayProtocol:      protocol,
		Proposer:           params.Proposer.Metadata,
		RequiredNamespaces: params.RequiredNamespaces,
		Expiry:             expiry,
	}

	c.mu.Lock()
	c.proposals[proposal.ID] = proposal
	if p, ok := c.pairings[topic]; ok && p.PeerMetadata == nil {
		meta := params.Proposer.Metadata
		p.PeerMetadata = &meta
		c.pairings[topic] = p
	}
	c.mu.Unlock()
	c.persistProposals(ctx)
	c.persistPairings(ctx)

	if err := c.store.AppendHistory(ctx, HistoryRecord{
		ID:     frame.ID,
		Topic:  topic,
		Method: MethodSessionPropose,
		Params: frame.Params,
		Expiry: expiry,
	}); err != nil {
		c.logger.Warn("history write failed", zap.Error(err))
	}

	c.emit(Event{Kind: EventSessionProposal, Topic: topic, Proposal: &proposal})
}

func (c *Client) handleRequest(ctx context.Context, topic string, frame inboundFrame) {
	var params wireRequestParams
	if err := json.Unmarshal(frame.Params, &params); err != nil {
		c.logger.Warn("undecodable session request", zap.Error(err))
		return
	}
	request := SessionRequest{
		ID:      frame.ID,
		Topic:   topic,
		ChainID: params.ChainID,
		Method:  params.Request.Method,
		Params:  params.Request.Params,
	}

	if err := c.store.AppendHistory(ctx, HistoryRecord{
		ID:     frame.ID,
		Topic:  topic,
		Method: request.Method,
		Params: frame.Params,
		Expiry: time.Now().Add(requestTTL).Unix(),
	}); err != nil {
		c.logger.Warn("history write failed", zap.Error(err))
	}

	c.emit(Event{Kind: EventSessionRequest, Topic: topic, Request: &request})
}

func (c *Client) handleDelete(ctx context.Context, topic string, frame inboundFrame) {
	c.respondTrue(ctx, topic, frame.ID)
	c.dropSession(ctx, topic)
	c.emit(Event{Kind: EventSessionDelete, Topic: topic})
}

func (c *Client) handleExtend(ctx context.Context, topic string, frame inboundFrame) {
	c.mu.Lock()
	if s, ok := c.sessions[topic]; ok {
		s.Expiry = time.Now().Add(sessionTTL).Unix()
		c.sessions[topic] = s
	}
	c.mu.Unlock()
	c.persistSessions(ctx)
	c.respondTrue(ctx, topic, frame.ID)
	c.emit(Event{Kind: EventSessionExtend, Topic: topic})
}

func (c *Client) respondTrue(ctx context.Context, topic string, id int64) {
	resp, err := NewResult(id, true)
	if err != nil {
		return
	}
	if err := c.publish(ctx, topic, resp, 0); err != nil {
		c.logger.Warn("ack publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (c *Client) emit(event Event) {
	select {
	case c.events <- event:
	case <-c.done:
	}
}

// Pair registers the pairing encoded in the URI and subscribes to its topic.
// Pairing twice on one topic returns ErrPairingExists.
func (c *Client) Pair(ctx context.Context, rawURI string) error {
	uri, err := ParseURI(rawURI)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if _, ok := c.pairings[uri.Topic]; ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPairingExists, uri.Topic)
	}
	c.pairings[uri.Topic] = Pairing{
		Topic:         uri.Topic,
		Active:        true,
		Expiry:        time.Now().Add(pairingTTL).Unix(),
		RelayProtocol: uri.RelayProtocol,
		SymKey:        hex.EncodeToString(uri.SymKey),
	}
	c.mu.Unlock()
	c.persistPairings(ctx)
	return c.subscribe(ctx, uri.Topic)
}

// ActivatePairing re-activates a stored pairing and re-subscribes its topic.
func (c *Client) ActivatePairing(ctx context.Context, topic string) error {
	c.mu.Lock()
	p, ok := c.pairings[topic]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	p.Active = true
	p.Expiry = time.Now().Add(pairingTTL).Unix()
	c.pairings[topic] = p
	c.mu.Unlock()
	c.persistPairings(ctx)
	return c.subscribe(ctx, topic)
}

// Pairings lists the stored pairings, newest expiry first.
func (c *Client) Pairings() []Pairing {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Pairing, 0, len(c.pairings))
	for _, p := range c.pairings {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Expiry > out[j].Expiry })
	return out
}

// Sessions lists the stored sessions, newest expiry first.
func (c *Client) Sessions() []Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Expiry > out[j].Expiry })
	return out
}

// PendingProposal finds a stored proposal for the pairing topic, falling back
// to the persisted history: activating an existing pairing does not reliably
// re-emit the proposal event, so callers replay it from here.
func (c *Client) PendingProposal(ctx context.Context, pairingTopic string) (*Proposal, error) {
	c.mu.Lock()
	for _, p := range c.proposals {
		if p.PairingTopic == pairingTopic {
			proposal := p
			c.mu.Unlock()
			return &proposal, nil
		}
	}
	c.mu.Unlock()

	records, err := c.store.History(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.Topic != pairingTopic || rec.Method != MethodSessionPropose || rec.Response != nil {
			continue
		}
		var params wireProposeParams
		if err := json.Unmarshal(rec.Params, &params); err != nil {
			return nil, fmt.Errorf("relay: decode stored proposal: %w", err)
		}
		proposal := Proposal{
			ID:                 rec.ID,
			PairingTopic:       pairingTopic,
			RelayProtocol:      "irn",
			Proposer:           params.Proposer.Metadata,
			RequiredNamespaces: params.RequiredNamespaces,
			Expiry:             rec.Expiry,
		}
		return &proposal, nil
	}
	return nil, nil
}

// ApproveInput carries the settled capability set for a proposal.
type ApproveInput struct {
	ProposalID int64
	Namespaces map[string]SessionNamespace
}

type wireSettleParams struct {
	Relay struct {
		Protocol string `json:"protocol"`
	} `json:"relay"`
	Namespaces map[string]SessionNamespace `json:"namespaces"`
	Controller struct {
		Metadata PeerMetadata `json:"metadata"`
	} `json:"controller"`
	Expiry int64 `json:"expiry"`
}

// Approve resolves a proposal into a session. The session only becomes usable
// once the dApp acknowledges the settle; a timeout or an error response is an
// approval failure, not a partial success.
func (c *Client) Approve(ctx context.Context, input ApproveInput) (Session, error) {
	c.mu.Lock()
	proposal, ok := c.proposals[input.ProposalID]
	var pairing Pairing
	if ok {
		pairing, ok = c.pairings[proposal.PairingTopic]
	}
	c.mu.Unlock()
	if !ok {
		return Session{}, ErrProposalNotFound
	}

	pairingKey, err := decodeKey(pairing.SymKey)
	if err != nil {
		return Session{}, err
	}
	sessionTopic, err := NewTopic()
	if err != nil {
		return Session{}, err
	}
	sessionKey, err := DeriveSessionKey(pairingKey, sessionTopic)
	if err != nil {
		return Session{}, err
	}

	session := Session{
		Topic:         sessionTopic,
		PairingTopic:  proposal.PairingTopic,
		RelayProtocol: proposal.RelayProtocol,
		SymKey:        hex.EncodeToString(sessionKey),
		Expiry:        time.Now().Add(sessionTTL).Unix(),
		PeerMetadata:  proposal.Proposer,
		Namespaces:    input.Namespaces,
	}

	c.mu.Lock()
	c.sessions[sessionTopic] = session
	c.mu.Unlock()
	if err := c.subscribe(ctx, sessionTopic); err != nil {
		c.forgetSession(sessionTopic)
		return Session{}, err
	}

	// Tell the dApp where the session lives, then settle on the new topic.
	approveResult := map[string]any{
		"relay":        map[string]string{"protocol": proposal.RelayProtocol},
		"sessionTopic": sessionTopic,
	}
	resp, err := NewResult(proposal.ID, approveResult)
	if err == nil {
		err = c.publish(ctx, proposal.PairingTopic, resp, 0)
	}
	if err != nil {
		c.forgetSession(sessionTopic)
		return Session{}, fmt.Errorf("relay: approve response: %w", err)
	}

	var settle wireSettleParams
	settle.Relay.Protocol = proposal.RelayProtocol
	settle.Namespaces = input.Namespaces
	settle.Controller.Metadata = c.meta
	settle.Expiry = session.Expiry

	settleID := c.nextID.Add(1)
	settleReq, err := NewRequest(settleID, MethodSessionSettle, settle)
	if err != nil {
		c.forgetSession(sessionTopic)
		return Session{}, err
	}

	waiter := make(chan Response, 1)
	c.mu.Lock()
	c.ackWaiters[settleID] = waiter
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.ackWaiters, settleID)
		c.mu.Unlock()
	}()

	if err := c.publish(ctx, sessionTopic, settleReq, 0); err != nil {
		c.forgetSession(sessionTopic)
		return Session{}, err
	}

	timer := time.NewTimer(acknowledgeTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		c.forgetSession(sessionTopic)
		return Session{}, ctx.Err()
	case <-timer.C:
		c.forgetSession(sessionTopic)
		return Session{}, ErrAcknowledgeTimeout
	case ack := <-waiter:
		if ack.Error != nil {
			c.forgetSession(sessionTopic)
			return Session{}, fmt.Errorf("relay: settle rejected: %w", ack.Error)
		}
	}

	session.Acknowledged = true
	c.mu.Lock()
	c.sessions[sessionTopic] = session
	delete(c.proposals, proposal.ID)
	c.mu.Unlock()
	c.persistSessions(ctx)
	c.persistProposals(ctx)
	if err := c.store.ResolveHistory(ctx, proposal.ID, resp); err != nil {
		c.logger.Warn("history resolve failed", zap.Int64("id", proposal.ID), zap.Error(err))
	}
	return session, nil
}

// Reject resolves a proposal with an error response on the pairing topic.
func (c *Client) Reject(ctx context.Context, proposalID int64, reason *RPCError) error {
	c.mu.Lock()
	proposal, ok := c.proposals[proposalID]
	delete(c.proposals, proposalID)
	c.mu.Unlock()
	c.persistProposals(ctx)
	if !ok {
		return ErrProposalNotFound
	}
	return c.publish(ctx, proposal.PairingTopic, NewError(proposal.ID, reason), 0)
}

// Respond sends exactly one response for a session request and resolves its
// history record.
func (c *Client) Respond(ctx context.Context, topic string, resp Response) error {
	if err := c.publish(ctx, topic, resp, 0); err != nil {
		return err
	}
	if err := c.store.ResolveHistory(ctx, resp.ID, resp); err != nil {
		c.logger.Warn("history resolve failed", zap.Int64("id", resp.ID), zap.Error(err))
	}
	return nil
}

// Disconnect deletes a session on both ends.
func (c *Client) Disconnect(ctx context.Context, topic string, reason *RPCError) error {
	params := wireDeleteParams{Code: 6000, Message: "session disconnected"}
	if reason != nil {
		params = wireDeleteParams{Code: reason.Code, Message: reason.Message}
	}
	req, err := NewRequest(c.nextID.Add(1), MethodSessionDelete, params)
	if err != nil {
		return err
	}
	publishErr := c.publish(ctx, topic, req, 0)
	c.dropSession(ctx, topic)
	return publishErr
}

// PendingRequests lists session requests that never received a response,
// oldest first.
func (c *Client) PendingRequests(ctx context.Context) ([]SessionRequest, error) {
	records, err := c.store.History(ctx)
	if err != nil {
		return nil, err
	}
	var pending []SessionRequest
	for _, rec := range records {
		if rec.Response != nil || rec.Method == MethodSessionPropose {
			continue
		}
		var params wireRequestParams
		if err := json.Unmarshal(rec.Params, &params); err != nil {
			continue
		}
		pending = append(pending, SessionRequest{
			ID:      rec.ID,
			Topic:   rec.Topic,
			ChainID: params.ChainID,
			Method:  params.Request.Method,
			Params:  params.Request.Params,
		})
	}
	return pending, nil
}

// SetHistoryExpiry shortens (or extends) the retention of one history record.
func (c *Client) SetHistoryExpiry(ctx context.Context, id int64, expiry time.Time) error {
	return c.store.SetHistoryExpiry(ctx, id, expiry.Unix())
}

// Reset unsubscribes every topic and empties the in-memory pairing, session,
// proposal and subscription state. Callers wiping persisted storage must call
// this first so a later persist cannot write the old state back.
func (c *Client) Reset(ctx context.Context) error {
	c.mu.Lock()
	topics := make([]string, 0, len(c.subscriptions))
	for topic := range c.subscriptions {
		topics = append(topics, topic)
	}
	c.mu.Unlock()
	sort.Strings(topics)
	for _, topic := range topics {
		c.unsubscribe(ctx, topic)
	}

	c.mu.Lock()
	c.pairings = map[string]Pairing{}
	c.sessions = map[string]Session{}
	c.proposals = map[int64]Proposal{}
	c.subscriptions = map[string]string{}
	c.mu.Unlock()
	return nil
}

func (c *Client) dropSession(ctx context.Context, topic string) {
	c.unsubscribe(ctx, topic)
	c.forgetSession(topic)
	c.persistSessions(ctx)
	if err := c.store.DeleteMessages(ctx, topic); err != nil {
		c.logger.Warn("message buffer delete failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (c *Client) forgetSession(topic string) {
	c.mu.Lock()
	delete(c.sessions, topic)
	c.mu.Unlock()
}

func (c *Client) persistPairings(ctx context.Context) {
	if err := c.store.SavePairings(ctx, c.Pairings()); err != nil {
		c.logger.Warn("pairing persist failed", zap.Error(err))
	}
}

func (c *Client) persistSessions(ctx context.Context) {
	if err := c.store.SaveSessions(ctx, c.Sessions()); err != nil {
		c.logger.Warn("session persist failed", zap.Error(err))
	}
}

func (c *Client) persistProposals(ctx context.Context) {
	c.mu.Lock()
	proposals := make([]Proposal, 0, len(c.proposals))
	for _, p := range c.proposals {
		proposals = append(proposals, p)
	}
	c.mu.Unlock()
	sort.Slice(proposals, func(i, j int) bool { return proposals[i].ID < proposals[j].ID })
	if err := c.store.SaveProposals(ctx, proposals); err != nil {
		c.logger.Warn("proposal persist failed", zap.Error(err))
	}
}
