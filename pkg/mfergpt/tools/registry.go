// Package tools dispatches assistant tool calls to their implementations
// through a typed registry.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/assistant"
)

// Handler implements one tool. args is the raw JSON argument object from
// the tool call.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Registry maps tool names to handlers and resolves batches of tool calls.
// Tool failures become error payloads in the output, never dropped calls:
// a run can only continue when every pending call gets exactly one output.
type Registry struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger.With("component", "tools"),
	}
}

// Register adds a handler under a tool name, replacing any existing one.
func (r *Registry) Register(name string, handler Handler) {
	r.handlers[name] = handler
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Resolve executes a batch of tool calls concurrently and returns one
// output per call. Unknown tools and handler failures produce error
// payloads so the assistant can recover in-conversation.
func (r *Registry) Resolve(ctx context.Context, calls []assistant.ToolCall) []assistant.ToolOutput {
	outputs := make([]assistant.ToolOutput, len(calls))
	var wg sync.WaitGroup
	for idx, call := range calls {
		wg.Add(1)
		go func(idx int, call assistant.ToolCall) {
			defer wg.Done()
			outputs[idx] = assistant.ToolOutput{
				ToolCallID: call.ID,
				Output:     r.resolveOne(ctx, call),
			}
		}(idx, call)
	}
	wg.Wait()
	return outputs
}

func (r *Registry) resolveOne(ctx context.Context, call assistant.ToolCall) string {
	name := call.Function.Name
	handler, ok := r.handlers[name]
	if !ok {
		r.logger.Warn("unsupported tool requested", "tool", name)
		return errorPayload(fmt.Sprintf("unsupported tool: %s", name))
	}

	r.logger.Info("executing tool", "tool", name)
	result, err := handler(ctx, call.ToolArguments())
	if err != nil {
		r.logger.Error("tool failed", "tool", name, "error", err)
		return errorPayload(err.Error())
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		r.logger.Error("tool result not encodable", "tool", name, "error", err)
		return errorPayload("tool result could not be encoded")
	}
	return string(encoded)
}

func errorPayload(message string) string {
	encoded, _ := json.Marshal(map[string]string{"error": message})
	return string(encoded)
}
