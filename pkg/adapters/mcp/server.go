// Package mcp exposes the component registry and the task proxies as Model
// Context Protocol tools, so that agents can inspect and drive a running
// system.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/orocos/internal/logging"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/task"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TaskSummary is one entry of the list_tasks result.
type TaskSummary struct {
	Name  string `json:"name" jsonschema_description:"Name of the task in the naming directory"`
	State string `json:"state,omitempty" jsonschema_description:"Current lifecycle state"`
	Error string `json:"error,omitempty" jsonschema_description:"Why the state could not be read"`
}

// TaskList is the list_tasks result.
type TaskList struct {
	Tasks []TaskSummary `json:"tasks"`
}

// StateResponse is the result of the state and transition tools.
type StateResponse struct {
	Task  string `json:"task"`
	State string `json:"state" jsonschema_description:"Lifecycle state after the call"`
}

// ValueResponse is the result of the read and write tools.
type ValueResponse struct {
	Task   string `json:"task"`
	Member string `json:"member"`
	Value  any    `json:"value,omitempty"`
	OK     bool   `json:"ok" jsonschema_description:"False when a port has no sample yet"`
}

// CallResponse is the result of call_operation.
type CallResponse struct {
	Task      string `json:"task"`
	Operation string `json:"operation"`
	Value     any    `json:"value,omitempty"`
}

type taskArgs struct {
	Task string `json:"task"`
}

type transitionArgs struct {
	Task       string `json:"task"`
	Transition string `json:"transition"`
}

type memberArgs struct {
	Task   string `json:"task"`
	Member string `json:"member"`
}

type writeArgs struct {
	Task   string `json:"task"`
	Member string `json:"member"`
	Value  string `json:"value"`
}

type callArgs struct {
	Task      string `json:"task"`
	Operation string `json:"operation"`
	Args      string `json:"args"`
}

type modelArgs struct {
	Model string `json:"model"`
}

// Server exposes a task directory as an MCP server. Tool calls may arrive
// concurrently; the directory and the registry are only used under mu.
type Server struct {
	mu        sync.Mutex
	dir       *task.Directory
	models    task.ModelResolver
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	version string
	logger  *slog.Logger
}

// WithVersion sets the version advertised to clients.
func WithVersion(v string) Option {
	return func(c *serverConfig) { c.version = v }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serverConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewServer creates a server over dir. models may be nil, in which case the
// resolve_model tool is not registered.
func NewServer(dir *task.Directory, models task.ModelResolver, opts ...Option) *Server {
	cfg := serverConfig{version: "dev", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{
		dir:       dir,
		models:    models,
		logger:    cfg.logger,
		mcpServer: server.NewMCPServer("orocos-mcp", strings.TrimSpace(cfg.version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE, until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the tasks registered in the naming directory with their lifecycle state."),
		mcp.WithOutputSchema[TaskList](),
	), mcp.NewStructuredToolHandler(s.handleListTasks))

	s.mcpServer.AddTool(mcp.NewTool("describe_task",
		mcp.WithDescription("Describe a task: state, model, attributes and ports, as markdown."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task name")),
	), s.handleDescribe)

	s.mcpServer.AddTool(mcp.NewTool("task_state",
		mcp.WithDescription("Read the current lifecycle state of a task."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task name")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleState))

	s.mcpServer.AddTool(mcp.NewTool("apply_transition",
		mcp.WithDescription("Run a lifecycle transition on a task."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task name")),
		mcp.WithString("transition", mcp.Required(),
			mcp.Description("Transition to run"),
			mcp.Enum("configure", "start", "stop", "cleanup"),
		),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleTransition))

	s.mcpServer.AddTool(mcp.NewTool("read_member",
		mcp.WithDescription("Read an attribute or property value, or the last sample of a port."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task name")),
		mcp.WithString("member", mcp.Required(), mcp.Description("Attribute, property or port name")),
		mcp.WithOutputSchema[ValueResponse](),
	), mcp.NewStructuredToolHandler(s.handleRead))

	s.mcpServer.AddTool(mcp.NewTool("write_member",
		mcp.WithDescription("Write an attribute or property value, or a sample on an input port."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task name")),
		mcp.WithString("member", mcp.Required(), mcp.Description("Attribute, property or port name")),
		mcp.WithString("value", mcp.Required(), mcp.Description("JSON value; anything that is not valid JSON is sent as a string")),
		mcp.WithOutputSchema[ValueResponse](),
	), mcp.NewStructuredToolHandler(s.handleWrite))

	s.mcpServer.AddTool(mcp.NewTool("call_operation",
		mcp.WithDescription("Call an operation exported by a task and wait for its result."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task name")),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Operation name")),
		mcp.WithString("args", mcp.Description("JSON array of arguments; empty for none")),
		mcp.WithOutputSchema[CallResponse](),
	), mcp.NewStructuredToolHandler(s.handleCall))

	if s.models != nil {
		s.mcpServer.AddTool(mcp.NewTool("resolve_model",
			mcp.WithDescription("Get the definition of a task model: ports, properties, superclass and capabilities."),
			mcp.WithString("model", mcp.Required(), mcp.Description("Task model name, e.g. nav::Controller")),
		), s.handleResolveModel)
	}
}

func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest, args struct{}) (TaskList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := TaskList{Tasks: []TaskSummary{}}
	err := s.dir.Each(ctx, func(t *task.TaskContext) error {
		summary := TaskSummary{Name: t.Name()}
		state, err := t.State(ctx)
		if err != nil {
			summary.Error = err.Error()
		} else {
			summary.State = state.String()
		}
		list.Tasks = append(list.Tasks, summary)
		return nil
	})
	return list, err
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := request.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.dir.Get(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := t.Describe(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("describe failed: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleState(ctx context.Context, request mcp.CallToolRequest, args taskArgs) (StateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.dir.Get(ctx, args.Task)
	if err != nil {
		return StateResponse{}, err
	}
	state, err := t.State(ctx)
	if err != nil {
		return StateResponse{}, err
	}
	return StateResponse{Task: t.Name(), State: state.String()}, nil
}

func (s *Server) handleTransition(ctx context.Context, request mcp.CallToolRequest, args transitionArgs) (StateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, err := domain.ParseTransition(args.Transition)
	if err != nil {
		return StateResponse{}, err
	}
	t, err := s.dir.Get(ctx, args.Task)
	if err != nil {
		return StateResponse{}, err
	}
	if err := t.Apply(ctx, tr); err != nil {
		s.logger.Warn("MCP transition failed", "task", args.Task, "transition", tr, "error", err)
		return StateResponse{}, err
	}
	state, err := t.State(ctx)
	if err != nil {
		return StateResponse{}, err
	}
	return StateResponse{Task: t.Name(), State: state.String()}, nil
}

func (s *Server) handleRead(ctx context.Context, request mcp.CallToolRequest, args memberArgs) (ValueResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.dir.Get(ctx, args.Task)
	if err != nil {
		return ValueResponse{}, err
	}
	resp := ValueResponse{Task: t.Name(), Member: args.Member}
	v, err := t.Get(ctx, args.Member)
	if err != nil {
		return ValueResponse{}, err
	}
	if p, ok := v.(*task.Port); ok {
		resp.Value, resp.OK, err = p.Read(ctx)
		return resp, err
	}
	resp.Value, resp.OK = v, true
	return resp, nil
}

func (s *Server) handleWrite(ctx context.Context, request mcp.CallToolRequest, args writeArgs) (ValueResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.dir.Get(ctx, args.Task)
	if err != nil {
		return ValueResponse{}, err
	}
	value := parseValue(args.Value)

	ok, err := t.HasPort(ctx, args.Member)
	if err != nil {
		return ValueResponse{}, err
	}
	if ok {
		p, err := t.Port(ctx, args.Member)
		if err != nil {
			return ValueResponse{}, err
		}
		err = p.Write(ctx, value)
		return ValueResponse{Task: t.Name(), Member: args.Member, Value: value, OK: err == nil}, err
	}

	if err := t.Set(ctx, args.Member, value); err != nil {
		return ValueResponse{}, err
	}
	return ValueResponse{Task: t.Name(), Member: args.Member, Value: value, OK: true}, nil
}

func (s *Server) handleCall(ctx context.Context, request mcp.CallToolRequest, args callArgs) (CallResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var values []any
	if strings.TrimSpace(args.Args) != "" {
		list, ok := parseValue(args.Args).([]any)
		if !ok {
			return CallResponse{}, fmt.Errorf("args must be a JSON array, got %q", args.Args)
		}
		values = list
	}

	t, err := s.dir.Get(ctx, args.Task)
	if err != nil {
		return CallResponse{}, err
	}
	v, err := t.Call(ctx, args.Operation, values...)
	if err != nil {
		return CallResponse{}, err
	}
	return CallResponse{Task: t.Name(), Operation: args.Operation, Value: v}, nil
}

// parseValue decodes s as JSON, keeping integers exact. Invalid JSON is
// taken as a plain string.
func parseValue(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return s
	}
	return v
}

func (s *Server) handleResolveModel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := request.RequireString("model")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.models.ResolveTaskModel(ctx, name)
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return mcp.NewToolResultError(nf.Error()), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(m)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("orocos://tasks", "Registered tasks",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		names, err := s.dir.Names(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		jsonBytes, _ := json.Marshal(names)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "orocos://tasks",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
