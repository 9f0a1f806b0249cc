package service

import (
	"context"
	"fmt"
	"time"

	"hospital-records/internal/domain/entity"
	"hospital-records/internal/domain/repository"
	"hospital-records/internal/infrastructure/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// MajorityScanService periodically lists minor-keyed patients who have
// since turned adult. Re-keying needs the patient's own cin, so the scan only
// reports them; the key changes on their next update.
type MajorityScanService struct {
	tx          repository.Transactor
	patientRepo repository.PatientRepository
	metrics     *metrics.IdentityMetrics
	log         *logrus.Logger
	now         func() time.Time

	cron *cron.Cron
}

func NewMajorityScanService(
	tx repository.Transactor,
	patientRepo repository.PatientRepository,
	identityMetrics *metrics.IdentityMetrics,
	log *logrus.Logger,
	now func() time.Time,
) *MajorityScanService {
	return &MajorityScanService{
		tx:          tx,
		patientRepo: patientRepo,
		metrics:     identityMetrics,
		log:         log,
		now:         now,
	}
}

// Scan returns the ids of minor-keyed patients whose recomputed age is adult.
func (s *MajorityScanService) Scan(ctx context.Context) ([]string, error) {
	candidates, err := s.patientRepo.FindAll(s.tx.DB(ctx), entity.PatientFilter{MinorKeyed: true})
	if err != nil {
		s.log.Warnf("Failed to list minor patients: %+v", err)
		return nil, err
	}

	now := s.now()
	var pending []string
	for _, p := range candidates {
		if p.MinorKeyed() && !entity.Classify(p.DateNaissance, now).IsMinor() {
			pending = append(pending, p.ID)
		}
	}

	s.metrics.SetPendingMajority(len(pending))
	return pending, nil
}

// Start schedules Scan on schedule, a standard five field cron expression.
func (s *MajorityScanService) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		pending, err := s.Scan(ctx)
		if err != nil {
			return
		}
		s.log.WithFields(logrus.Fields{
			"job":     "majority_scan",
			"pending": len(pending),
			"ids":     pending,
		}).Info("Majority scan completed")
	})
	if err != nil {
		return fmt.Errorf("invalid majority scan schedule %q: %w", schedule, err)
	}

	s.cron = c
	c.Start()
	s.log.Infof("Majority scan scheduled: %s", schedule)
	return nil
}

// Stop waits for a running scan to finish.
func (s *MajorityScanService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("MajorityScanService stopped")
}
