package report

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/loandesk/internal/domain"
	"github.com/totegamma/loandesk/internal/infra/database/models"
	"github.com/totegamma/loandesk/internal/usecase"
)

// PostgresStore appends every report to the sync_runs table.
type PostgresStore struct {
	db *gorm.DB
}

var _ usecase.ReportStore = (*PostgresStore)(nil)

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, report domain.SyncReport) error {
	b, err := json.Marshal(report)
	if err != nil {
		return err
	}
	run := models.SyncRun{
		Trigger:    report.Trigger,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Success:    report.Totals.Success,
		Failed:     report.Totals.Failed,
		Duplicate:  report.Totals.Duplicate,
		Skipped:    report.Totals.Skipped,
		Report:     string(b),
	}
	return s.db.WithContext(ctx).Create(&run).Error
}

func (s *PostgresStore) Latest(ctx context.Context) (*domain.SyncReport, error) {
	var run models.SyncRun
	err := s.db.WithContext(ctx).Order("finished_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFoundError{Resource: "sync report"}
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sync report")
	}
	return decodeRun(run)
}

func decodeRun(run models.SyncRun) (*domain.SyncReport, error) {
	var report domain.SyncReport
	if run.Report != "" {
		if err := json.Unmarshal([]byte(run.Report), &report); err != nil {
			return nil, errors.Wrap(err, "failed to decode sync report")
		}
		return &report, nil
	}
	report = domain.SyncReport{
		Trigger:    run.Trigger,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Totals: domain.SyncCounts{
			Success:   run.Success,
			Failed:    run.Failed,
			Duplicate: run.Duplicate,
			Skipped:   run.Skipped,
		},
	}
	return &report, nil
}
