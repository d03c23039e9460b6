// Package verify correlates one-time codes against upstream conversation
// data to prove a requesting user controls a specific upstream account.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reschool/eschool-gateway/pkg/domain"
)

// deepScanThreads caps how many threads the deep scan fetches in full.
// Each fetch is one upstream round trip, so the budget is deliberately small.
const deepScanThreads = 5

// Messenger provides the upstream conversation data the engine searches.
// Implementations handle session expiry internally; an error here means the
// data is genuinely unavailable right now.
type Messenger interface {
	Threads(ctx context.Context) ([]domain.ThreadSummary, error)
	ThreadMessages(ctx context.Context, threadID int64) ([]domain.ThreadMessage, error)
}

// RecordStore persists the access records the engine issues.
type RecordStore interface {
	Create(ctx context.Context, rec *domain.AccessRecord) error
}

// Engine runs the tiered code search: hinted thread, then thread previews,
// then full bodies of the most recently active threads. Strategies are
// ordered cheapest first and short-circuit on the first match.
type Engine struct {
	messenger Messenger
	records   RecordStore
	logger    *slog.Logger
}

// NewEngine creates a verification engine.
func NewEngine(messenger Messenger, records RecordStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		messenger: messenger,
		records:   records,
		logger:    logger,
	}
}

// Verify searches the upstream for a message containing code and, when the
// sender is found, issues and persists an access record for that identity.
// threadHint of zero means no hint. A nil record with nil error is the
// normal not-found outcome: the code may simply not have been sent yet.
func (e *Engine) Verify(ctx context.Context, code string, threadHint int64, meta domain.VerificationMetadata) (*domain.AccessRecord, error) {
	personID, found := e.scanHintedThread(ctx, code, threadHint)

	var threads []domain.ThreadSummary
	if !found {
		personID, threads, found = e.scanPreviews(ctx, code)
	}
	if !found {
		personID, found = e.scanDeep(ctx, code, threads)
	}
	if !found {
		e.logger.Info("verification code not found", "code_len", len(code))
		return nil, nil
	}

	rec := &domain.AccessRecord{
		Token:      uuid.NewString(),
		PersonID:   personID,
		DeviceName: meta.DeviceName,
		FullName:   meta.FullName,
		GradeClass: meta.GradeClass,
		CreatedAt:  time.Now(),
	}
	if err := e.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting access record: %w", err)
	}

	e.logger.Info("verification succeeded",
		"person_id", personID,
		"full_name", meta.FullName,
		"grade_class", meta.GradeClass,
	)
	return rec, nil
}

// scanHintedThread checks the messages of the client-supplied thread. The
// cheapest and most targeted strategy: one fetch, sender taken from the
// matching message.
func (e *Engine) scanHintedThread(ctx context.Context, code string, threadHint int64) (int64, bool) {
	if threadHint == 0 {
		return 0, false
	}

	messages, err := e.messenger.ThreadMessages(ctx, threadHint)
	if err != nil {
		e.logger.Warn("hinted thread scan failed", "thread_id", threadHint, "error", err)
		return 0, false
	}
	for _, msg := range messages {
		if strings.Contains(msg.Body, code) {
			e.logger.Info("code found in hinted thread", "thread_id", threadHint, "sender_id", msg.SenderID)
			return msg.SenderID, true
		}
	}
	return 0, false
}

// scanPreviews checks the last-message preview of the 50 most recent
// threads. The fetched thread list is returned so the deep scan does not
// repeat the round trip.
func (e *Engine) scanPreviews(ctx context.Context, code string) (int64, []domain.ThreadSummary, bool) {
	threads, err := e.messenger.Threads(ctx)
	if err != nil {
		e.logger.Warn("thread listing failed", "error", err)
		return 0, nil, false
	}
	for _, thread := range threads {
		if strings.Contains(thread.Preview, code) {
			e.logger.Info("code found in thread preview", "thread_id", thread.ThreadID, "sender", thread.SenderName)
			return thread.CounterpartID, threads, true
		}
	}
	return 0, threads, false
}

// scanDeep fetches full message bodies for the most recently active threads
// in order, stopping at the first match.
func (e *Engine) scanDeep(ctx context.Context, code string, threads []domain.ThreadSummary) (int64, bool) {
	if len(threads) == 0 {
		return 0, false
	}

	limit := deepScanThreads
	if len(threads) < limit {
		limit = len(threads)
	}
	for i := 0; i < limit; i++ {
		threadID := threads[i].ThreadID
		if threadID == 0 {
			continue
		}
		messages, err := e.messenger.ThreadMessages(ctx, threadID)
		if err != nil {
			e.logger.Warn("deep scan fetch failed", "thread_id", threadID, "error", err)
			continue
		}
		for _, msg := range messages {
			if strings.Contains(msg.Body, code) {
				e.logger.Info("code found in deep scan", "thread_id", threadID, "sender_id", msg.SenderID)
				return msg.SenderID, true
			}
		}
	}
	return 0, false
}
