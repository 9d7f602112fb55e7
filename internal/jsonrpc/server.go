package jsonrpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
)

const (
	// ProtocolVersion is reported by initialize
	ProtocolVersion = "2024-11-05"
	// ServerName is reported by initialize
	ServerName = "fetcher-mcp-server"

	initialBufferSize = 64 * 1024
	maxLineSize       = 10 * 1024 * 1024

	emptyOutput = "Command completed successfully"
)

// Dispatcher runs invocations against the plugin registry
type Dispatcher interface {
	Dispatch(ctx context.Context, inv domain.Invocation, out io.Writer) error
	Registry() ports.PluginRegistry
}

// Server answers line-delimited JSON-RPC 2.0 requests, one message per line
type Server struct {
	dispatcher Dispatcher
	version    string
	logger     *zap.Logger
	writeMu    sync.Mutex
}

// NewServer creates a server that reports version in initialize
func NewServer(dispatcher Dispatcher, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		dispatcher: dispatcher,
		version:    version,
		logger:     logger.Named("rpc"),
	}
}

type line struct {
	data []byte
	err  error
}

// Serve reads requests from in and writes responses to out until in reaches EOF
// or ctx is cancelled. Only transport failures are returned.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan line)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, initialBufferSize), maxLineSize)
		for scanner.Scan() {
			data := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line{data: data}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- line{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	s.logger.Info("serving JSON-RPC on stdio")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping", zap.Error(ctx.Err()))
			return nil
		case l, ok := <-lines:
			if !ok {
				s.logger.Info("input closed")
				return nil
			}
			if l.err != nil {
				return fmt.Errorf("reading requests: %w", l.err)
			}
			if len(bytes.TrimSpace(l.data)) == 0 {
				continue
			}
			resp := s.Handle(ctx, l.data)
			if resp == nil {
				continue
			}
			if err := s.write(out, resp); err != nil {
				return err
			}
		}
	}
}

func (s *Server) write(out io.Writer, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		data, _ = json.Marshal(NewErrorResponse(resp.ID, NewError(CodeInternalError, "failed to encode response")))
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

// Handle processes one line and returns the response, or nil when none is due
func (s *Server) Handle(ctx context.Context, data []byte) *Response {
	msg, perr := ParseMessage(data)
	if perr != nil {
		s.logger.Warn("rejected message", zap.Int("code", perr.Code), zap.String("error", perr.Message))
		return NewErrorResponse(msg.ResponseID(), perr)
	}

	switch msg.Type() {
	case MessageTypeNotification:
		s.logger.Debug("notification", zap.String("method", msg.Method))
		return nil
	case MessageTypeResponse, MessageTypeError:
		s.logger.Debug("ignoring client response", zap.ByteString("id", msg.ID))
		return nil
	}

	logger := s.logger.With(zap.String("method", msg.Method), zap.ByteString("id", msg.ID))
	logger.Debug("request")

	result, rerr := s.call(ctx, msg)
	if rerr != nil {
		logger.Info("request failed", zap.Int("code", rerr.Code), zap.String("error", rerr.Message))
		return NewErrorResponse(msg.ID, rerr)
	}
	return NewResult(msg.ID, result)
}

func (s *Server) call(ctx context.Context, msg *Message) (result interface{}, rerr *Error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("handler panicked", zap.String("method", msg.Method), zap.Any("panic", rec))
			rerr = NewError(CodeInternalError, "internal error: %v", rec)
		}
	}()

	switch msg.Method {
	case "initialize":
		return s.initialize(), nil
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return map[string]interface{}{"tools": ListTools(s.dispatcher.Registry())}, nil
	case "tools/call":
		return s.callTool(ctx, msg.Params)
	case "list_plugins":
		return s.listPlugins(), nil
	case "get_plugin_info":
		return s.pluginInfo(msg.Params)
	}
	return nil, NewError(CodeMethodNotFound, "method not found: %s", msg.Method)
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      serverInfo             `json:"serverInfo"`
}

func (s *Server) initialize() initializeResult {
	return initializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]interface{}{
			"tools":   map[string]bool{"listChanged": false},
			"logging": struct{}{},
		},
		ServerInfo: serverInfo{Name: ServerName, Version: s.version},
	}
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Args      json.RawMessage `json:"args"`
}

type content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the tools/call result envelope
type CallResult struct {
	Content []content `json:"content"`
	IsError bool      `json:"isError"`
}

func textResult(text string, isError bool) CallResult {
	return CallResult{Content: []content{{Type: "text", Text: text}}, IsError: isError}
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (interface{}, *Error) {
	var params callParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, NewError(CodeInvalidParams, "tool name is required")
	}
	pluginName, command, ok := domain.SplitToolName(params.Name)
	if !ok {
		return nil, NewError(CodeInvalidParams, "invalid tool name format: %s", params.Name)
	}
	plugin, ok := s.dispatcher.Registry().Get(pluginName)
	if !ok {
		return nil, NewError(CodeInvalidParams, "plugin not found: %s", pluginName)
	}

	argsRaw := params.Args
	if len(bytes.TrimSpace(argsRaw)) == 0 || bytes.Equal(bytes.TrimSpace(argsRaw), nullID) {
		argsRaw = params.Arguments
	}
	cmd, _ := plugin.Commands().Lookup(command)
	args, err := NormalizeArguments(cmd, argsRaw)
	if err != nil {
		return nil, NewError(CodeInvalidParams, "%v", err)
	}

	var buf bytes.Buffer
	inv := domain.Invocation{Plugin: pluginName, Command: command, Args: args}
	s.logger.Debug("calling tool", zap.String("tool", params.Name), zap.Strings("args", args))
	dispatchErr := s.dispatcher.Dispatch(ctx, inv, &buf)

	text := strings.TrimSpace(buf.String())
	if dispatchErr != nil {
		if text == "" {
			text = "Error executing command: " + dispatchErr.Error()
		}
		return textResult(text, true), nil
	}
	if text == "" {
		text = emptyOutput
	}
	return textResult(text, false), nil
}

type pluginSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Commands    []string `json:"commands"`
}

func (s *Server) listPlugins() []pluginSummary {
	summaries := make([]pluginSummary, 0)
	for _, plugin := range s.dispatcher.Registry().Plugins() {
		summaries = append(summaries, pluginSummary{
			Name:        plugin.Name(),
			Description: plugin.Description(),
			Commands:    plugin.Commands().Names(),
		})
	}
	return summaries
}

type infoParams struct {
	Name       string `json:"name"`
	PluginName string `json:"plugin_name"`
}

type pluginInfo struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Commands    map[string]string `json:"commands"`
}

func (s *Server) pluginInfo(raw json.RawMessage) (interface{}, *Error) {
	var params infoParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	name := params.Name
	if name == "" {
		name = params.PluginName
	}
	if name == "" {
		return nil, NewError(CodeInvalidParams, "plugin name is required")
	}
	plugin, ok := s.dispatcher.Registry().Get(name)
	if !ok {
		return nil, NewError(CodeInvalidParams, "plugin not found: %s", name)
	}

	commands := make(map[string]string, plugin.Commands().Len())
	for _, cmd := range plugin.Commands().Commands() {
		commands[cmd.Name] = cmd.Description
	}
	return pluginInfo{Name: plugin.Name(), Description: plugin.Description(), Commands: commands}, nil
}

func decodeParams(raw json.RawMessage, v interface{}) *Error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return NewError(CodeInvalidParams, "invalid params: %s has the wrong type", typeErr.Field)
		}
		return NewError(CodeInvalidParams, "invalid params: %v", err)
	}
	return nil
}
