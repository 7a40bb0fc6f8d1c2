package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/open-depot/archive-api/internal/models"
	"github.com/open-depot/archive-api/pkg/jobs"
)

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditService records archive operations asynchronously so that streaming
// a download is never blocked on the audit write.
type AuditService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService builds the service and its backing queue. Start must be
// called before events are recorded.
func NewAuditService(store auditStore, cfg jobs.QueueConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{logger: logger}
	s.queue = jobs.NewQueue("audit", func(ctx context.Context, job jobs.Job) error {
		log, ok := job.Payload.(*models.AuditLog)
		if !ok {
			s.logger.Warn("dropping malformed audit job", zap.String("job_id", job.ID))
			return nil
		}
		return store.Create(ctx, log)
	}, cfg)
	return s
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues one audit event. Failures are logged, never surfaced: an
// audit hiccup must not fail the user-facing operation.
func (s *AuditService) Record(userID string, action models.AuditAction, datasetID string, itemIDs []string, detail string) {
	log := &models.AuditLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		DatasetID: datasetID,
		ItemIDs:   strings.Join(itemIDs, ","),
		Detail:    detail,
	}
	if err := s.queue.Enqueue(jobs.Job{ID: log.ID, Type: string(action), Payload: log}); err != nil {
		s.logger.Warn("failed to enqueue audit event", zap.String("action", string(action)), zap.Error(err))
	}
}
