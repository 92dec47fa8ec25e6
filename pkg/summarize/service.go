package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/providers"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/store"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/stream"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/telemetry/metrics"
)

const (
	updateQueueSize = 256
	updateTimeout   = 5 * time.Second
)

// Input is one summarization request as accepted by the service.
type Input struct {
	Text         string
	ClientOrigin string
	Options      providers.Options
}

// Service ties each summary stream to a durable request record: the record
// is created before the stream starts and updated once when the stream
// reaches its terminal event. Updates are persisted asynchronously so
// storage latency and storage failures never stall or break a live stream.
type Service struct {
	orch    *Orchestrator
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	updates chan updateJob
	wg      sync.WaitGroup

	closeOnce sync.Once
}

type updateJob struct {
	id  string
	upd store.Update
}

// NewService builds the lifecycle service and starts its persistence worker.
func NewService(orch *Orchestrator, st store.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		orch:    orch,
		store:   st,
		logger:  logger.With("component", "summary_service"),
		metrics: m,
		updates: make(chan updateJob, updateQueueSize),
	}
	s.wg.Add(1)
	go s.persistLoop()
	return s
}

// Summarize creates the request record and starts the stream. The returned
// id identifies the record even when the stream fails.
//
// When the record cannot be created, no provider is contacted and the caller
// receives a single-event stream carrying the creation failure. When no
// provider is configured, the record is failed and the error is returned
// directly so the transport can reject the request.
func (s *Service) Summarize(ctx context.Context, in Input) (string, <-chan stream.Event, error) {
	rec := &store.Record{
		ID:           uuid.NewString(),
		InputText:    in.Text,
		ClientOrigin: in.ClientOrigin,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Create(ctx, rec); err != nil {
		s.logger.Error("failed to create request record", "error", err)
		s.metrics.RecordPersistenceFailure("create")

		out := make(chan stream.Event, 1)
		out <- stream.Fail(fmt.Errorf("Failed to create summary request: %w", err))
		close(out)
		return rec.ID, out, nil
	}

	upstream, err := s.orch.StreamSummarize(ctx, in.Text, in.Options)
	if err != nil {
		s.enqueueFailure(rec.ID, err.Error())
		return rec.ID, nil, err
	}

	out := make(chan stream.Event, 1)
	go s.forward(ctx, rec.ID, upstream, out)
	return rec.ID, out, nil
}

// forward relays events to the caller and enqueues the record update when
// the terminal event passes through. A stream that ends without a terminal
// event (client disconnect, upstream hangup) leaves the record incomplete
// for retention to mark abandoned.
func (s *Service) forward(ctx context.Context, id string, upstream <-chan stream.Event, out chan<- stream.Event) {
	defer close(out)

	for ev := range upstream {
		switch ev.Type {
		case stream.TypeComplete:
			s.enqueueCompletion(id, ev.Result)
		case stream.TypeError:
			s.enqueueFailure(id, ev.Err.Error())
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) enqueueCompletion(id string, res *stream.Result) {
	now := time.Now().UTC()
	upd := store.Update{CompletedAt: &now}
	if res != nil {
		upd.SummaryText = &res.Summary
		upd.TotalTokens = &res.TokensUsed
		upd.CostUSD = &res.Cost
	}
	s.enqueue(updateJob{id: id, upd: upd})
}

func (s *Service) enqueueFailure(id, message string) {
	now := time.Now().UTC()
	s.enqueue(updateJob{id: id, upd: store.Update{
		CompletedAt:  &now,
		ErrorMessage: &message,
	}})
}

func (s *Service) enqueue(job updateJob) {
	select {
	case s.updates <- job:
	default:
		// Shedding here is preferable to stalling a live stream; retention
		// will mark the record abandoned.
		s.logger.Warn("update queue full, dropping record update", "record_id", job.id)
		s.metrics.RecordPersistenceFailure("enqueue")
	}
}

func (s *Service) persistLoop() {
	defer s.wg.Done()
	for job := range s.updates {
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		err := s.store.Update(ctx, job.id, job.upd)
		cancel()
		if err != nil {
			// Persistence failures are observability problems, not request
			// failures. The stream already completed from the client's view.
			s.logger.Error("failed to update request record",
				"record_id", job.id, "error", err)
			s.metrics.RecordPersistenceFailure("update")
		}
	}
}

// Close drains pending record updates and stops the persistence worker.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.updates)
		s.wg.Wait()
	})
}
