package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/lunarfield/walletbridge-backend/internal/dispatch"
)

// staticAddressBook serves the fixed signer set given on the command line.
// A wallet UI embedding the engine supplies a live one instead.
type staticAddressBook struct {
	addresses map[string]struct{}
}

func newStaticAddressBook(addresses []string) staticAddressBook {
	book := staticAddressBook{addresses: make(map[string]struct{}, len(addresses))}
	for _, addr := range addresses {
		if addr != "" {
			book.addresses[addr] = struct{}{}
		}
	}
	return book
}

func (b staticAddressBook) Contains(address string) bool {
	_, ok := b.addresses[address]
	return ok
}

func (b staticAddressBook) Size() int { return len(b.addresses) }

// policyApprover stands in for the wallet UI: approve everything when the
// development flag is set, reject everything otherwise.
type policyApprover struct {
	approve bool
	logger  *zap.Logger
}

func newPolicyApprover(approve bool, logger *zap.Logger) policyApprover {
	return policyApprover{approve: approve, logger: logger.Named("approver")}
}

func (p policyApprover) Request(_ context.Context, intent dispatch.Intent) (dispatch.Decision, error) {
	if !p.approve {
		p.logger.Info("rejecting request, no approval ui attached", zap.String("signer", intent.From()))
		return dispatch.Decision{Outcome: dispatch.OutcomeRejected}, nil
	}
	p.logger.Warn("auto-approving request", zap.String("signer", intent.From()))
	return dispatch.Decision{Outcome: dispatch.OutcomeApproved}, nil
}

// apiForwarder relays passthrough params to a REST backend. Params carry the
// dApp's own request shape: {"path": "/...", "method": "GET", "body": {...}}.
type apiForwarder struct {
	base string
	hc   *http.Client
}

func newAPIForwarder(base string, hc *http.Client) apiForwarder {
	return apiForwarder{base: strings.TrimRight(base, "/"), hc: hc}
}

func (f apiForwarder) Request(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	path := gjson.GetBytes(params, "path").String()
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("api call path %q must start with /", path)
	}
	method := strings.ToUpper(gjson.GetBytes(params, "method").String())
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if raw := gjson.GetBytes(params, "body"); raw.Exists() {
		body = strings.NewReader(raw.Raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build api request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read api response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("api call %s %s: status %d: %s", method, path, resp.StatusCode, payload)
	}
	return payload, nil
}

// signerForwarder posts approved intents to an external signer endpoint and
// relays its raw result. Without a configured endpoint every approval fails,
// which surfaces to the dApp as a submit error.
type signerForwarder struct {
	url string
	hc  *http.Client
}

func newSignerForwarder(url string, hc *http.Client) signerForwarder {
	return signerForwarder{url: url, hc: hc}
}

func (s signerForwarder) SignAndSubmit(ctx context.Context, intent dispatch.Intent) (json.RawMessage, error) {
	if s.url == "" {
		return nil, errors.New("no signer endpoint configured")
	}

	payload, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("encode intent: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build signer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("signer call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read signer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signer call: status %d: %s", resp.StatusCode, result)
	}
	return result, nil
}
