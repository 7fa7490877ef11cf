package remote

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/loandesk/internal/usecase"
)

// PostgresStore writes rows straight into the remote Postgres database.
type PostgresStore struct {
	db *gorm.DB
}

var _ usecase.RemoteStore = (*PostgresStore)(nil)

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Name() string {
	return "postgres"
}

func (s *PostgresStore) Upsert(ctx context.Context, table string, row usecase.Row, conflictKey string) (usecase.Row, error) {
	if _, ok := row[conflictKey]; !ok {
		return nil, errors.Errorf("row has no %s column", conflictKey)
	}

	err := s.db.WithContext(ctx).
		Table(table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: conflictKey}},
			DoUpdates: clause.AssignmentColumns(updateColumns(row, conflictKey)),
		}).
		Create(map[string]any(row)).Error
	if err != nil {
		return nil, errors.Wrapf(err, "upsert into %s", table)
	}
	return row, nil
}

func (s *PostgresStore) Exists(ctx context.Context, table, field string, value any) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Table(table).
		Where(clause.Eq{Column: clause.Column{Name: field}, Value: value}).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrapf(err, "probe %s.%s", table, field)
	}
	return n > 0, nil
}

func (s *PostgresStore) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Table(table).Count(&n).Error
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", table)
	}
	return n, nil
}

// updateColumns lists every column except the conflict key, sorted so the
// generated statement is stable.
func updateColumns(row usecase.Row, conflictKey string) []string {
	cols := make([]string, 0, len(row))
	for k := range row {
		if k == conflictKey {
			continue
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
