package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/retrieval"
	"golang.org/x/sync/errgroup"
)

// maxTransitions bounds a turn. The longest valid path takes six steps.
const maxTransitions = 16

// handler applies one state's update and names the next state.
type handler func(ctx context.Context, ts *TurnState) (State, error)

// Response is the result of one turn.
type Response struct {
	AnswerText   string        `json:"answer"`
	Citations    []*core.Piece `json:"citations"`
	FinishReason string        `json:"finish_reason"`
}

// StateMachine answers questions with retrieval-augmented generation.
// It holds no per-turn state and is safe for concurrent turns.
type StateMachine struct {
	retriever retrieval.Retriever
	detector  ai.LanguageDetector
	rephraser ai.Rephraser
	generator ai.Generator
	evaluator ai.Evaluator

	fallback    core.FilterSet
	hasFallback bool
	messages    Messages
	history     HistorySettings

	handlers map[State]handler
	logger   *slog.Logger
	monitor  Monitor
}

// Option configures a StateMachine.
type Option func(*StateMachine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *StateMachine) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger.With("component", "answer")
		return nil
	}
}

// WithEvaluator replaces the provider's evaluator. Nil disables evaluation.
func WithEvaluator(evaluator ai.Evaluator) Option {
	return func(m *StateMachine) error {
		m.evaluator = evaluator
		return nil
	}
}

// WithFallbackFilters sets the broader scope used on the single retry.
// An empty set is a valid fallback meaning "no restriction".
func WithFallbackFilters(filters core.FilterSet) Option {
	return func(m *StateMachine) error {
		m.fallback = filters.Clone()
		m.hasFallback = true
		return nil
	}
}

// WithMessages overrides canned answers. Empty fields keep their defaults.
func WithMessages(messages Messages) Option {
	return func(m *StateMachine) error {
		m.messages = messages.withDefaults()
		return nil
	}
}

// WithHistorySettings sets how chat history is trimmed and ordered.
func WithHistorySettings(settings HistorySettings) Option {
	return func(m *StateMachine) error {
		if settings.Limit < 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidHistoryLimit, settings.Limit)
		}
		m.history = settings
		return nil
	}
}

// WithMonitor installs turn hooks.
func WithMonitor(monitor Monitor) Option {
	return func(m *StateMachine) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		m.monitor = monitor
		return nil
	}
}

// NewStateMachine creates a state machine using provider's steps.
func NewStateMachine(retriever retrieval.Retriever, provider ai.AIProvider, opts ...Option) (*StateMachine, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	m := &StateMachine{
		retriever: retriever,
		detector:  provider.LanguageDetector(),
		rephraser: provider.Rephraser(),
		generator: provider.Generator(),
		evaluator: provider.Evaluator(),
		messages:  DefaultMessages(),
		history:   DefaultHistorySettings(),
		logger:    slog.Default().With("component", "answer"),
		monitor:   &noopMonitor{},
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	m.handlers = map[State]handler{
		StateDetermineLanguage: m.determineLanguage,
		StateRephrase:          m.rephrase,
		StateRetrieve:          m.retrieve,
		StateGenerate:          m.generate,
		StateEvaluate:          m.evaluate,
		StateError:             m.composeError,
	}

	return m, nil
}

// Answer runs one turn. Recoverable conditions produce a canned answer with
// an explicit finish reason. Fatal conditions return an error wrapping
// ErrTurnFailed and no response.
func (m *StateMachine) Answer(ctx context.Context, sessionID, question string, history []core.Message, filters core.FilterSet) (*Response, error) {
	if strings.TrimSpace(question) == "" {
		return &Response{
			AnswerText:   m.messages.EmptyMessage,
			Citations:    []*core.Piece{},
			FinishReason: m.messages.EmptyMessage,
		}, nil
	}

	ts := &TurnState{
		SessionID:     sessionID,
		TurnID:        uuid.NewString(),
		Question:      question,
		History:       FormatHistory(history, m.history),
		ActiveFilters: filters.Clone(),
	}
	logger := m.turnLogger(ts)
	logger.Info("received question", "question", question)

	start := time.Now()
	if err := m.run(ctx, ts); err != nil {
		err = fmt.Errorf("%w: %w", ErrTurnFailed, err)
		logger.Error("turn failed", "err", err)
		m.monitor.TurnFailed(err)
		return nil, err
	}

	resp := &Response{
		AnswerText:   ts.AnswerText,
		Citations:    ts.Pieces,
		FinishReason: strings.Join(uniqueOrdered(ts.FinishReasons), " "),
	}
	if resp.Citations == nil {
		resp.Citations = []*core.Piece{}
	}

	logger.Info("generated answer", "finish_reason", resp.FinishReason, "citations", len(resp.Citations), "retry_used", ts.RetryUsed)
	m.monitor.TurnCompleted(resp.FinishReason, ts.RetryUsed, time.Since(start))
	return resp, nil
}

// run drives the dispatcher until StateDone.
func (m *StateMachine) run(ctx context.Context, ts *TurnState) error {
	state := StateDetermineLanguage
	for steps := 0; state != StateDone; steps++ {
		if steps >= maxTransitions {
			return fmt.Errorf("%w: stopped in %s after %d steps", ErrTransitionLimit, state, steps)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var next State
		var err error
		switch state {
		case StateDetermineLanguage, StateRephrase:
			next, err = m.fork(ctx, ts)
		default:
			h, ok := m.handlers[state]
			if !ok {
				return fmt.Errorf("%w: no handler for %s", ErrTransitionLimit, state)
			}
			m.monitor.StateEntered(state)
			next, err = h(ctx, ts)
		}
		if err != nil {
			return err
		}

		m.turnLogger(ts).Debug("transition", "from", state, "to", next)
		state = next
	}
	return nil
}

// fork runs language detection and rephrasing concurrently. Each handler
// works on its own copy of the turn state; only the fields each one owns
// are merged back.
func (m *StateMachine) fork(ctx context.Context, ts *TurnState) (State, error) {
	langState, rephraseState := *ts, *ts
	var langNext, rephraseNext State

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.monitor.StateEntered(StateDetermineLanguage)
		var err error
		langNext, err = m.handlers[StateDetermineLanguage](gctx, &langState)
		return err
	})
	g.Go(func() error {
		m.monitor.StateEntered(StateRephrase)
		var err error
		rephraseNext, err = m.handlers[StateRephrase](gctx, &rephraseState)
		return err
	})
	if err := g.Wait(); err != nil {
		return StateDone, err
	}

	if langNext != rephraseNext {
		return StateDone, fmt.Errorf("%w: fork branches disagree (%s, %s)", ErrTransitionLimit, langNext, rephraseNext)
	}

	ts.Language = langState.Language
	ts.RephrasedQuestion = rephraseState.RephrasedQuestion
	return langNext, nil
}

func (m *StateMachine) turnLogger(ts *TurnState) *slog.Logger {
	return m.logger.With("session_id", ts.SessionID, "turn_id", ts.TurnID)
}

// uniqueOrdered drops repeated and empty values keeping first-seen order.
func uniqueOrdered(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
