package eventpublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

func TestProcessEventsPublishesAndMarks(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{{ID: "evt-1", EventType: "loan.disbursed"}},
	}
	sink := &stubSink{}
	ep := newTestPublisher(repo, sink)

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents failed: %v", err)
	}

	if len(sink.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(sink.published))
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-1" {
		t.Fatalf("expected event to be marked published, got %#v", repo.marked)
	}
}

func TestProcessEventsContinuesOnPublishError(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{
			{ID: "evt-1", EventType: "journal.posted"},
			{ID: "evt-2", EventType: "loan.repaid"},
		},
	}
	sink := &stubSink{
		errorsByID: map[string]error{"evt-1": errors.New("broker down")},
	}
	ep := newTestPublisher(repo, sink)

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents returned error: %v", err)
	}

	// evt-1 stays unpublished and is retried on the next tick.
	if len(sink.published) != 1 || sink.published[0].ID != "evt-2" {
		t.Fatalf("expected only evt-2 to be published, got %#v", sink.published)
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-2" {
		t.Fatalf("expected only evt-2 to be marked, got %#v", repo.marked)
	}
}

func TestProcessEventsRespectsBatchSize(t *testing.T) {
	repo := &stubOutboxRepo{}
	for i := 0; i < 20; i++ {
		repo.events = append(repo.events, &domain.OutboxEvent{ID: "evt", EventType: "journal.posted"})
	}
	sink := &stubSink{}
	ep := newTestPublisher(repo, sink)

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents failed: %v", err)
	}

	if len(sink.published) != ep.batchSize {
		t.Fatalf("expected %d published events, got %d", ep.batchSize, len(sink.published))
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	repo := &stubOutboxRepo{}
	sink := &stubSink{}
	ep := newTestPublisher(repo, sink)
	ep.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := p.Publish(context.Background(), &domain.OutboxEvent{
		ID:            "evt-1",
		EventType:     "loan.disbursed",
		AggregateType: "loan",
		AggregateID:   "loan-1",
		Payload:       map[string]any{"loan_number": "LN-0001"},
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func newTestPublisher(repo *stubOutboxRepo, sink *stubSink) *EventPublisher {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	return NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  sink,
		Logger:     logger,
		BatchSize:  10,
		Interval:   5 * time.Millisecond,
	})
}

type stubOutboxRepo struct {
	events []*domain.OutboxEvent
	marked []string
}

func (s *stubOutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return nil
}

func (s *stubOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if len(s.events) <= limit {
		return append([]*domain.OutboxEvent(nil), s.events...), nil
	}
	return append([]*domain.OutboxEvent(nil), s.events[:limit]...), nil
}

func (s *stubOutboxRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	s.marked = append(s.marked, id)
	return nil
}

func (s *stubOutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

type stubSink struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
}

func (s *stubSink) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if err := s.errorsByID[event.ID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}
