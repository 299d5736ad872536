package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/ports"
)

// Transport implements ports.Transport for endpoints served by a Server.
type Transport struct {
	client *http.Client
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient sets the client used for every call.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithTimeout bounds every call. The caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		cp := *t.client
		cp.Timeout = d
		t.client = &cp
	}
}

// NewTransport creates a transport. Without options it uses a client with
// no timeout of its own.
func NewTransport(opts ...Option) *Transport {
	t := &Transport{client: &http.Client{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Connect checks that endpoint hosts the task called name and returns a
// handle on it.
func (t *Transport) Connect(ctx context.Context, name, endpoint string) (ports.RemoteTask, error) {
	base, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q for task %s", endpoint, name)
	}
	rt := &RemoteTask{client: t.client, base: base.String(), name: name}

	var info taskInfo
	if err := rt.do(ctx, http.MethodGet, "", nil, &info); err != nil {
		return nil, err
	}
	rt.model = info.Model
	return rt, nil
}

// RemoteTask is a handle on one task served by a Server.
type RemoteTask struct {
	client *http.Client
	base   string
	name   string
	model  string
}

var _ ports.RemoteTask = (*RemoteTask)(nil)

func (t *RemoteTask) Name() string { return t.name }

func (t *RemoteTask) path(elems ...string) string {
	var b strings.Builder
	b.WriteString(t.base)
	b.WriteString("/tasks/")
	b.WriteString(url.PathEscape(t.name))
	for _, e := range elems {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(e))
	}
	return b.String()
}

// do performs one round-trip. path is relative to the task URL.
func (t *RemoteTask) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := t.path()
	if path != "" {
		target += "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", domain.ErrCommunication, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return t.decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, target, err)
	}
	return nil
}

func (t *RemoteTask) decodeError(resp *http.Response) error {
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		body.Error = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		nf := &domain.NotFoundError{Kind: body.Kind, Name: body.Name}
		if nf.Kind == "" {
			nf.Kind, nf.Name = "task", t.name
		}
		if nf.Kind != "task" {
			nf.Task = t.name
		}
		return nf
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrStateTransition, body.Error)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrTypeMismatch, body.Error)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", domain.ErrCommunication, body.Error)
	}
	return errors.New(body.Error)
}

func (t *RemoteTask) ModelName(ctx context.Context) (string, error) {
	var info taskInfo
	if err := t.do(ctx, http.MethodGet, "", nil, &info); err != nil {
		return "", err
	}
	t.model = info.Model
	return info.Model, nil
}

func (t *RemoteTask) State(ctx context.Context) (domain.TaskState, error) {
	var body stateBody
	if err := t.do(ctx, http.MethodGet, "state", nil, &body); err != nil {
		return 0, err
	}
	return domain.ParseTaskState(body.State)
}

func (t *RemoteTask) transition(ctx context.Context, tr domain.Transition) (bool, error) {
	var body transitionBody
	if err := t.do(ctx, http.MethodPost, "transitions/"+string(tr), nil, &body); err != nil {
		return false, err
	}
	return body.OK, nil
}

func (t *RemoteTask) Configure(ctx context.Context) (bool, error) {
	return t.transition(ctx, domain.TransitionConfigure)
}

func (t *RemoteTask) Start(ctx context.Context) (bool, error) {
	return t.transition(ctx, domain.TransitionStart)
}

func (t *RemoteTask) Stop(ctx context.Context) (bool, error) {
	return t.transition(ctx, domain.TransitionStop)
}

func (t *RemoteTask) Cleanup(ctx context.Context) (bool, error) {
	return t.transition(ctx, domain.TransitionCleanup)
}

func (t *RemoteTask) HasPort(ctx context.Context, name string) (bool, error) {
	_, err := t.Port(ctx, name)
	var nf *domain.NotFoundError
	if errors.As(err, &nf) && nf.Kind == "port" {
		return false, nil
	}
	return err == nil, err
}

func (t *RemoteTask) Port(ctx context.Context, name string) (domain.PortInfo, error) {
	var info domain.PortInfo
	err := t.do(ctx, http.MethodGet, "ports/"+url.PathEscape(name), nil, &info)
	return info, err
}

func (t *RemoteTask) Ports(ctx context.Context) ([]domain.PortInfo, error) {
	var infos []domain.PortInfo
	err := t.do(ctx, http.MethodGet, "ports", nil, &infos)
	return infos, err
}

func (t *RemoteTask) ReadPort(ctx context.Context, name string) (any, bool, error) {
	var body sampleBody
	if err := t.do(ctx, http.MethodGet, "ports/"+url.PathEscape(name)+"/sample", nil, &body); err != nil {
		return nil, false, err
	}
	return body.Value, body.OK, nil
}

func (t *RemoteTask) WritePort(ctx context.Context, name string, value any) error {
	return t.do(ctx, http.MethodPut, "ports/"+url.PathEscape(name)+"/sample", valueBody{Value: value}, nil)
}

func (t *RemoteTask) Attribute(ctx context.Context, name string) (domain.AttributeInfo, error) {
	var info domain.AttributeInfo
	err := t.do(ctx, http.MethodGet, "attributes/"+url.PathEscape(name), nil, &info)
	return info, err
}

func (t *RemoteTask) Attributes(ctx context.Context) ([]domain.AttributeInfo, error) {
	var infos []domain.AttributeInfo
	err := t.do(ctx, http.MethodGet, "attributes", nil, &infos)
	return infos, err
}

func (t *RemoteTask) ReadAttribute(ctx context.Context, name string) (any, error) {
	var body valueBody
	if err := t.do(ctx, http.MethodGet, "attributes/"+url.PathEscape(name)+"/value", nil, &body); err != nil {
		return nil, err
	}
	return body.Value, nil
}

func (t *RemoteTask) WriteAttribute(ctx context.Context, name string, value any) error {
	return t.do(ctx, http.MethodPut, "attributes/"+url.PathEscape(name)+"/value", valueBody{Value: value}, nil)
}

func (t *RemoteTask) ReadAttributeString(ctx context.Context, name string) (string, error) {
	var body stringBody
	if err := t.do(ctx, http.MethodGet, "attributes/"+url.PathEscape(name)+"/string", nil, &body); err != nil {
		return "", err
	}
	return body.Value, nil
}

func (t *RemoteTask) WriteAttributeString(ctx context.Context, name, value string) error {
	return t.do(ctx, http.MethodPut, "attributes/"+url.PathEscape(name)+"/string", stringBody{Value: value}, nil)
}

func (t *RemoteTask) Operations(ctx context.Context) ([]domain.OperationInfo, error) {
	var infos []domain.OperationInfo
	err := t.do(ctx, http.MethodGet, "operations", nil, &infos)
	return infos, err
}

func (t *RemoteTask) CallOperation(ctx context.Context, name string, args []any) (any, error) {
	if args == nil {
		args = []any{}
	}
	var body valueBody
	if err := t.do(ctx, http.MethodPost, "operations/"+url.PathEscape(name), callBody{Args: args}, &body); err != nil {
		return nil, err
	}
	return body.Value, nil
}
