package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/google/uuid"

	"github.com/dashpay/grovedbg/proof"
	"github.com/dashpay/grovedbg/wire"
)

var (
	// ErrNoSession is returned when a data request is made before
	// NewSession or after DropSession.
	ErrNoSession = errors.New("no active session")
	// ErrUnexpectedStatus is returned when the endpoint answers with a
	// non 2xx status.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

const contentTypeCBOR = "application/cbor"

// Client is a GroveDB debugger endpoint client. It owns at most one session
// at a time; all data requests are issued against it.
type Client struct {
	log     logger.Logger
	address string
	httpc   *http.Client
	codec   wire.Codec

	session    uuid.UUID
	hasSession bool
}

// The proof builder resolves real nodes through the client.
var _ proof.NodeSource = (*Client)(nil)

type ClientOption func(*Client)

// WithHTTPClient overrides the transport, typically for tests.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// NewClient creates a client for the debugger endpoint at address. No
// session is established yet; call NewSession first.
func NewClient(log logger.Logger, address string, opts ...ClientOption) (*Client, error) {
	codec, err := wire.NewCodec()
	if err != nil {
		return nil, err
	}
	c := &Client{
		log:     log,
		address: strings.TrimRight(address, "/"),
		httpc:   http.DefaultClient,
		codec:   codec,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewSession asks the endpoint for a fresh session, dropping the previous
// one first if the client holds one.
func (c *Client) NewSession(ctx context.Context) (uuid.UUID, error) {
	if c.hasSession {
		if err := c.DropSession(ctx); err != nil {
			c.log.Infof("dropping stale session %s failed: %v", c.session, err)
		}
	}

	var response wire.NewSessionResponse
	if err := c.post(ctx, "new_session", nil, &response); err != nil {
		return uuid.Nil, fmt.Errorf("starting session: %w", err)
	}

	c.session = response.SessionID
	c.hasSession = true
	c.log.Infof("started session %s", c.session)
	return c.session, nil
}

// DropSession releases the endpoint side resources of the current session.
func (c *Client) DropSession(ctx context.Context) error {
	if !c.hasSession {
		return ErrNoSession
	}
	request := wire.DropSessionRequest{SessionID: c.session}
	c.hasSession = false
	if err := c.post(ctx, "drop_session", request, nil); err != nil {
		return fmt.Errorf("dropping session %s: %w", request.SessionID, err)
	}
	return nil
}

// FetchRootNode retrieves the root node of the database, nil if the
// database is empty.
func (c *Client) FetchRootNode(ctx context.Context) (*wire.NodeUpdate, error) {
	request, err := c.sessionRequest(wire.RootFetchRequest{})
	if err != nil {
		return nil, err
	}
	var update *wire.NodeUpdate
	if err := c.post(ctx, "fetch_root_node", request, &update); err != nil {
		return nil, err
	}
	if update == nil {
		c.log.Debugf("no root node, database is empty")
	}
	return update, nil
}

// FetchNode retrieves the node at key of the subtree at path, nil if the
// endpoint knows no such node.
func (c *Client) FetchNode(ctx context.Context, path [][]byte, key []byte) (*wire.NodeUpdate, error) {
	request, err := c.sessionRequest(wire.NodeFetchRequest{Path: path, Key: key})
	if err != nil {
		return nil, err
	}
	var update *wire.NodeUpdate
	if err := c.post(ctx, "fetch_node", request, &update); err != nil {
		return nil, err
	}
	return update, nil
}

// FetchWithPathQuery retrieves every node the query selects.
func (c *Client) FetchWithPathQuery(ctx context.Context, query wire.PathQuery) ([]wire.NodeUpdate, error) {
	request, err := c.sessionRequest(query)
	if err != nil {
		return nil, err
	}
	var updates []wire.NodeUpdate
	if err := c.post(ctx, "fetch_with_path_query", request, &updates); err != nil {
		return nil, err
	}
	c.log.Debugf("path query returned %d nodes", len(updates))
	return updates, nil
}

// ProvePathQuery asks the endpoint to prove the query against its current
// snapshot.
func (c *Client) ProvePathQuery(ctx context.Context, query wire.PathQuery) (wire.Proof, error) {
	request, err := c.sessionRequest(query)
	if err != nil {
		return wire.Proof{}, err
	}
	var p wire.Proof
	if err := c.post(ctx, "prove_path_query", request, &p); err != nil {
		return wire.Proof{}, err
	}
	return p, nil
}

func (c *Client) sessionRequest(request any) (any, error) {
	if !c.hasSession {
		return nil, ErrNoSession
	}
	return wire.WithSession[any]{SessionID: c.session, Request: request}, nil
}

// post sends one CBOR request and decodes one CBOR response. A nil request
// sends an empty body, a nil response discards the body.
func (c *Client) post(ctx context.Context, endpoint string, request, response any) error {
	var body io.Reader
	if request != nil {
		data, err := c.codec.Marshal(request)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address+"/"+endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentTypeCBOR)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("posting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status, endpoint)
	}
	if response == nil {
		return nil
	}
	if err := c.codec.Decode(resp.Body, response); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}
