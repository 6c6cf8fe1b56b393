package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// jobTimeout bounds one run of a scheduled job
const jobTimeout = 2 * time.Minute

// TokenPurger removes expired sessions
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// CronService runs the background jobs: orphan contract reconciliation and
// expired refresh token cleanup
type CronService struct {
	cron      *cron.Cron
	demands   *DemandService
	tokens    TokenPurger
	actorID   uint
	batchSize int
}

// NewCronService creates a cron service. Jobs are registered by Start.
func NewCronService(demands *DemandService, tokens TokenPurger, actorID uint, batchSize int) *CronService {
	return &CronService{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		demands:   demands,
		tokens:    tokens,
		actorID:   actorID,
		batchSize: batchSize,
	}
}

// Start registers the jobs and starts the scheduler. An empty reconcile spec
// disables reconciliation.
func (s *CronService) Start(reconcileSpec string) error {
	if reconcileSpec != "" {
		if _, err := s.cron.AddFunc(reconcileSpec, s.RunReconcile); err != nil {
			return err
		}
	}
	if s.tokens != nil {
		if _, err := s.cron.AddFunc("@daily", s.runTokenPurge); err != nil {
			return err
		}
	}
	s.cron.Start()
	zap.L().Info("cron service started", zap.String("reconcile", reconcileSpec), zap.Int("jobs", len(s.cron.Entries())))
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	zap.L().Info("cron service stopped")
}

// RunReconcile runs one reconciliation sweep
func (s *CronService) RunReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.demands.ReconcileConversions(ctx, s.actorID, s.batchSize); err != nil {
		zap.L().Error("scheduled reconciliation failed", zap.Error(err))
	}
}

func (s *CronService) runTokenPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.tokens.PurgeExpiredTokens(ctx)
	if err != nil {
		zap.L().Error("expired token purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("expired refresh tokens purged", zap.Int64("count", n))
	}
}
