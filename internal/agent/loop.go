// Package agent supervises one research run: it hands the instructions to the
// computer-use collaborator, bounds it with a wall-clock deadline, and turns
// whatever came back into a validated result set.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-research-agent/internal/browser"
	"github.com/nbenliogludev/go-research-agent/internal/jsonx"
	"github.com/nbenliogludev/go-research-agent/internal/taskspec"
)

// directive is layered over the generated instructions every turn. It keeps
// the collaborator from wandering once it has what it came for.
const directive = "CRITICAL: Stop at the FIRST observation that satisfies the success criteria and return your final answer immediately. Do not navigate to additional pages to double-check results you already have."

// Collaborator drives the browser autonomously and eventually returns one
// free-text final answer. *llm.ComputerUse is the production implementation.
type Collaborator interface {
	Run(ctx context.Context, instructions, directive string, exec browser.Executor, maxTurns int) (string, error)
}

// Supervisor owns the run boundary: budget enforcement and the guarantee that
// every run, however it ends, yields a ResultSet.
type Supervisor struct {
	collab   Collaborator
	maxTurns int
	timeout  time.Duration
	log      *zap.Logger
}

func NewSupervisor(collab Collaborator, maxTurns int, timeout time.Duration, log *zap.Logger) *Supervisor {
	return &Supervisor{collab: collab, maxTurns: maxTurns, timeout: timeout, log: log}
}

// Run executes one supervised research run. It never returns an error: the
// caller always gets a ResultSet, degraded when the run timed out, crashed or
// produced unparseable output. SearchComplete is true only when the
// collaborator's answer parsed and claimed completion.
func (s *Supervisor) Run(ctx context.Context, instructions string, schema *taskspec.RecordSchema, exec browser.Executor) *taskspec.ResultSet {
	runID := uuid.NewString()
	log := s.log.With(zap.String("run_id", runID))
	log.Info("research run starting",
		zap.Int("max_turns", s.maxTurns),
		zap.Duration("timeout", s.timeout))

	answer, err := s.runBounded(ctx, instructions, exec, log)
	if err != nil {
		log.Error("research run failed", zap.Error(err))
		return taskspec.NewResultSet(nil, fmt.Sprintf("Research run failed: %v", err), false)
	}

	rs, err := parseFinal(answer, schema)
	if err != nil {
		log.Warn("final answer did not parse", zap.Error(err), zap.String("answer", answer))
		return taskspec.NewResultSet(nil,
			fmt.Sprintf("Agent finished but its final answer could not be parsed: %v", err), false)
	}

	log.Info("research run finished",
		zap.Int("items", len(rs.FoundItems)),
		zap.Bool("complete", rs.SearchComplete),
		zap.Int("turns_used", exec.TurnCount()))
	for _, entry := range tail(exec.ActionLog(), 5) {
		log.Info("action trace", zap.Int("turn", entry.Turn), zap.String("action", entry.Action))
	}
	return rs
}

func tail(entries []browser.ActionLogEntry, n int) []browser.ActionLogEntry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

// runBounded races the collaborator against the wall-clock budget. A run that
// overshoots is abandoned, not joined: its goroutine keeps the buffered
// channel from leaking and the context cancel tells it to wind down.
func (s *Supervisor) runBounded(ctx context.Context, instructions string, exec browser.Executor, log *zap.Logger) (string, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		answer string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		answer, err := s.collab.Run(runCtx, instructions, directive, exec, s.maxTurns)
		done <- outcome{answer, err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.answer, out.err
	case <-timer.C:
		cancel()
		log.Warn("research run exceeded its time budget", zap.Duration("timeout", s.timeout))
		return "", fmt.Errorf("research run exceeded the %s time budget", s.timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// parseFinal recovers the result object from the collaborator's free-text
// answer and validates every extracted item against the task schema. One
// malformed item fails the whole parse; a partially-trusted result set is
// worse than an honest failure.
func parseFinal(answer string, schema *taskspec.RecordSchema) (*taskspec.ResultSet, error) {
	obj, err := jsonx.ExtractObject(answer)
	if err != nil {
		return nil, err
	}

	summary, ok := obj["search_summary"].(string)
	if !ok {
		return nil, errors.New("final answer has no search_summary")
	}
	complete, _ := obj["search_complete"].(bool)

	var items []taskspec.Record
	if rawItems, ok := obj["found_items"]; ok && rawItems != nil {
		list, ok := rawItems.([]any)
		if !ok {
			return nil, fmt.Errorf("found_items is %T, want a list", rawItems)
		}
		items = make([]taskspec.Record, 0, len(list))
		for i, rawItem := range list {
			m, ok := rawItem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("found_items[%d] is %T, want an object", i, rawItem)
			}
			rec, err := schema.Validate(m)
			if err != nil {
				return nil, fmt.Errorf("found_items[%d]: %w", i, err)
			}
			items = append(items, rec)
		}
	}

	return taskspec.NewResultSet(items, summary, complete), nil
}
