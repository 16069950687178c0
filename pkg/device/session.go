package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Juniper/go-netconf/netconf"
	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/ifconf/pkg/configlet"
	"github.com/newtron-network/ifconf/pkg/util"
	"github.com/newtron-network/ifconf/pkg/xmltree"
)

// Transport is the part of a NETCONF session the client needs.
// *netconf.Session satisfies it.
type Transport interface {
	Exec(methods ...netconf.RPCMethod) (*netconf.RPCReply, error)
	Close() error
}

// Dialer opens a transport to an endpoint. The default dials SSH.
type Dialer func(ctx context.Context, ep Endpoint) (Transport, error)

// Options tune Open.
type Options struct {
	Dialer Dialer
}

// State tracks where a session is in its operation group.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateReadDone
	StateEditSubmitted
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateReadDone:
		return "read-done"
	case StateEditSubmitted:
		return "edit-submitted"
	default:
		return "disconnected"
	}
}

// Session is an open NETCONF session. Not safe for overlapping RPCs; calls
// are serialised.
type Session struct {
	Endpoint Endpoint

	transport    Transport
	id           int
	capabilities []string
	state        State

	mu sync.Mutex
}

// EditResult is the outcome of an edit-config or commit. OK is true only
// when the device replied <ok/> without error-severity rpc-errors.
type EditResult struct {
	OK       bool
	Fragment string
	Reply    string
	Errors   []RPCErrorDetail
}

// Status is "OK" or the failure detail reported by the device.
func (r *EditResult) Status() string {
	if r.OK {
		return "OK"
	}
	if len(r.Errors) == 0 {
		return "FAILED: no <ok/> in reply"
	}
	return "FAILED: " + formatDetails(r.Errors)
}

// Err returns the rejection as an *RPCError, or nil when OK.
func (r *EditResult) Err(op string) error {
	if r.OK {
		return nil
	}
	return &RPCError{Operation: op, Errors: r.Errors}
}

// Open establishes an authenticated session and completes the hello
// exchange.
func Open(ctx context.Context, ep Endpoint, opts Options) (*Session, error) {
	ep = ep.withDefaults()
	if err := ep.Validate(); err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", ep.Label(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dial := opts.Dialer
	if dial == nil {
		dial = DialSSH
	}
	t, err := dial(ctx, ep)
	if err != nil {
		return nil, err
	}

	s := &Session{Endpoint: ep, transport: t, state: StateConnected}
	switch nc := t.(type) {
	case *netconf.Session:
		s.id = nc.SessionID
		s.capabilities = nc.ServerCapabilities
	case interface{ Capabilities() []string }:
		s.capabilities = nc.Capabilities()
	}

	util.WithDevice(ep.Label()).Infof("Connected to %s (session %d, %d capabilities)", ep.Address(), s.id, len(s.capabilities))
	return s, nil
}

// DialSSH is the default Dialer: NETCONF over SSH with password
// authentication and the endpoint's host-key policy.
func DialSSH(ctx context.Context, ep Endpoint) (Transport, error) {
	cb, check, err := hostKeyCallback(ep)
	if err != nil {
		return nil, err
	}
	config := &ssh.ClientConfig{
		User:            ep.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(ep.Password)},
		HostKeyCallback: cb,
		Timeout:         ep.Timeout,
	}

	type result struct {
		s   *netconf.Session
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := netconf.DialSSH(ep.Address(), config)
		done <- result{s, err}
	}()

	select {
	case <-ctx.Done():
		// Reap the dial in the background so the connection is not leaked.
		go func() {
			if r := <-done; r.s != nil {
				r.s.Close()
			}
		}()
		return nil, &ConnectionError{Address: ep.Address(), Err: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			if check.err != nil {
				return nil, classifyHostKeyFailure(ep, check.err)
			}
			return nil, &ConnectionError{Address: ep.Address(), Err: r.err}
		}
		return r.s, nil
	}
}

// WithSession opens a session, runs fn, and closes the session on every
// exit path including panics.
func WithSession(ctx context.Context, ep Endpoint, opts Options, fn func(*Session) error) error {
	s, err := Open(ctx, ep, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			util.WithDevice(ep.Label()).Warnf("Closing session: %v", cerr)
		}
	}()
	return fn(s)
}

// ID returns the session-id from the server hello, or 0 when unknown.
func (s *Session) ID() int { return s.id }

// Capabilities returns the capabilities advertised in the server hello.
func (s *Session) Capabilities() []string { return s.capabilities }

// HasCapability reports whether the server advertised a capability whose URI
// starts with prefix.
func (s *Session) HasCapability(prefix string) bool {
	for _, c := range s.capabilities {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// State returns the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// reply is a parsed device answer.
type reply struct {
	tree    *xmltree.Node
	raw     string
	details []RPCErrorDetail
}

func (r *reply) ok() bool {
	return r.tree.Child("ok") != nil && !hasError(r.details)
}

// exec sends one RPC. An error means the RPC never produced a usable reply;
// device rejections come back as parsed details.
func (s *Session) exec(ctx context.Context, op, body string) (*reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.state == StateDisconnected {
		return nil, fmt.Errorf("%s: %w", op, util.ErrNotConnected)
	}

	util.WithRPC(s.Endpoint.Label(), op).Debugf("Sending %s", body)
	r, err := s.transport.Exec(netconf.RawMethod(body))
	if r == nil {
		if err == nil {
			err = errors.New("empty reply")
		}
		return nil, &ConnectionError{Address: s.Endpoint.Address(), Err: fmt.Errorf("%s: %w", op, err)}
	}
	// go-netconf also returns an error for rpc-error replies; the details are
	// read from the reply itself. The raw envelope keeps the namespace and
	// message-id; Data is only its content.
	raw := strings.TrimSpace(r.RawReply)
	if raw == "" {
		raw = "<rpc-reply>" + r.Data + "</rpc-reply>"
	}
	tree, perr := xmltree.Parse([]byte(raw))
	if perr != nil {
		return nil, &RPCError{Operation: op, Err: fmt.Errorf("parsing reply: %w", perr)}
	}
	details := replyErrors(tree)
	util.WithRPC(s.Endpoint.Label(), op).Debugf("Reply: %d rpc-error(s)", len(details))
	return &reply{tree: tree, raw: raw, details: details}, nil
}

// ConfigReply is a get-config answer as received and as parsed.
type ConfigReply struct {
	Raw  string
	Tree *xmltree.Node
}

// ReadConfig runs get-config against datastore with a subtree filter and
// returns the reply tree rooted at rpc-reply.
func (s *Session) ReadConfig(ctx context.Context, datastore, filter string) (*xmltree.Node, error) {
	r, err := s.ReadConfigReply(ctx, datastore, filter)
	if err != nil {
		return nil, err
	}
	return r.Tree, nil
}

// ReadConfigReply is ReadConfig that also keeps the raw reply text.
func (s *Session) ReadConfigReply(ctx context.Context, datastore, filter string) (*ConfigReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "get-config"
	if err := checkDatastore(op, datastore); err != nil {
		return nil, err
	}
	f, err := subtreeFilter(filter)
	if err != nil {
		return nil, &RPCError{Operation: op, Err: err}
	}

	r, err := s.exec(ctx, op, getConfigRPC(datastore, f))
	if err != nil {
		return nil, err
	}
	if hasError(r.details) {
		return nil, &RPCError{Operation: op, Errors: r.details}
	}
	s.state = StateReadDone
	return &ConfigReply{Raw: r.raw, Tree: r.tree}, nil
}

// Validate asks the device to validate datastore. It returns true when the
// device replies <ok/>; a rejection is false with a nil error.
func (s *Session) Validate(ctx context.Context, datastore string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "validate"
	if err := checkDatastore(op, datastore); err != nil {
		return false, err
	}
	r, err := s.exec(ctx, op, validateRPC(datastore))
	if err != nil {
		return false, err
	}
	if !r.ok() {
		util.WithRPC(s.Endpoint.Label(), op).Warnf("Validation of %s failed: %s", datastore, formatDetails(r.details))
		return false, nil
	}
	return true, nil
}

// EditConfig submits payload to datastore. A device rejection is not an
// error: it is reported through EditResult.OK and EditResult.Errors.
func (s *Session) EditConfig(ctx context.Context, datastore string, payload *configlet.Payload) (*EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "edit-config"
	if err := checkDatastore(op, datastore); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, &RPCError{Operation: op, Err: errors.New("no payload")}
	}
	if err := checkConfigPayload(payload.XML); err != nil {
		return nil, &RPCError{Operation: op, Err: err}
	}

	r, err := s.exec(ctx, op, editConfigRPC(datastore, payload.XML))
	if err != nil {
		return nil, err
	}
	s.state = StateEditSubmitted
	result := newEditResult(r)
	result.Fragment = payload.Fragment
	util.WithRPC(s.Endpoint.Label(), op).Infof("%s (%s) on %s: %s", payload.Fragment, payload.Operation, datastore, result.Status())
	return result, nil
}

// Commit commits the candidate datastore to running.
func (s *Session) Commit(ctx context.Context) (*EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "commit"
	r, err := s.exec(ctx, op, commitRPC)
	if err != nil {
		return nil, err
	}
	s.state = StateEditSubmitted
	result := newEditResult(r)
	util.WithRPC(s.Endpoint.Label(), op).Infof("Commit: %s", result.Status())
	return result, nil
}

func newEditResult(r *reply) *EditResult {
	return &EditResult{
		OK:     r.ok(),
		Reply:  r.raw,
		Errors: r.details,
	}
}

// Close ends the session. Calling it again is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return nil
	}
	s.state = StateDisconnected
	err := s.transport.Close()
	util.WithDevice(s.Endpoint.Label()).Info("Disconnected")
	return err
}
