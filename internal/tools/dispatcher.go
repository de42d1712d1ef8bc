package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	supportotel "github.com/Malikxolo/Customer-Support-agent/internal/otel"
)

var tracer = supportotel.Tracer("tools")

// Dispatcher validates and executes a turn's capability invocations.
// Invocations are independent; one branch failing or panicking never
// aborts its siblings.
type Dispatcher struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewDispatcher wraps a registry.
func NewDispatcher(registry *Registry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// InvocationKey disambiguates repeated use of the same capability within a
// turn by its position in the call list.
func InvocationKey(call Call, ordinal int) string {
	return fmt.Sprintf("%s_%d", call.Tool, ordinal)
}

// Dispatch runs calls and returns one result per invocation key.
//
// Validation happens locally first: an unknown tool or missing required
// parameters short-circuit to a result without any external call. The
// remaining invocations fan out concurrently and the join gates the return;
// completion order is irrelevant.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []Call) map[string]Result {
	ctx, span := tracer.Start(ctx, "tools.dispatch",
		trace.WithAttributes(attribute.Int("tools.call_count", len(calls))))
	defer span.End()

	results := make(map[string]Result, len(calls))

	// Validation first, fan-out second. Short-circuit entries land in the
	// map before any branch goroutine exists, so only the locked writes in
	// the fan-out ever run concurrently.
	type runnable struct {
		key  string
		tool Tool
		call Call
	}
	var pending []runnable

	for i, call := range calls {
		key := InvocationKey(call, i)

		tool, ok := d.registry.Get(call.Tool)
		if !ok {
			results[key] = Result{
				Tool:  call.Tool,
				Error: fmt.Sprintf("unknown capability %q", call.Tool),
			}
			d.logger.Warn().Str("event", "tool_unknown").Str("tool", call.Tool).Msg("capability not registered")
			continue
		}

		if missing := missingParams(tool, call.Params); len(missing) > 0 {
			results[key] = Result{
				Tool:               call.Tool,
				NeedsClarification: true,
				MissingParams:      missing,
			}
			d.logger.Debug().
				Str("event", "tool_needs_params").
				Str("tool", call.Tool).
				Strs("missing", missing).
				Msg("invocation short-circuited before execution")
			continue
		}

		pending = append(pending, runnable{key: key, tool: tool, call: call})
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, r := range pending {
		wg.Add(1)
		go func(r runnable) {
			defer wg.Done()
			res := d.execute(ctx, r.tool, r.call)
			mu.Lock()
			results[r.key] = res
			mu.Unlock()
		}(r)
	}

	wg.Wait()
	return results
}

// execute runs one invocation, converting panics and clarification errors
// into structured results.
func (d *Dispatcher) execute(ctx context.Context, tool Tool, call Call) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("event", "tool_panic").
				Str("tool", call.Tool).
				Interface("panic", r).
				Msg("capability panicked")
			res = Result{Tool: call.Tool, Error: fmt.Sprintf("internal error in %s", call.Tool)}
		}
	}()

	ctx, span := tracer.Start(ctx, "tools.execute",
		trace.WithAttributes(attribute.String("tool.name", call.Tool)))
	defer span.End()

	data, err := tool.Execute(ctx, call.Params)
	if err != nil {
		var clarify *ClarificationError
		if errors.As(err, &clarify) {
			return Result{
				Tool:               call.Tool,
				NeedsClarification: true,
				MissingParams:      clarify.MissingParams,
				Question:           clarify.Question,
			}
		}
		span.RecordError(err)
		d.logger.Warn().Str("event", "tool_failed").Str("tool", call.Tool).Err(err).Msg("capability failed")
		return Result{Tool: call.Tool, Error: err.Error()}
	}

	return Result{Tool: call.Tool, Success: true, Data: data}
}
