package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/kabyedict/internal/dbx"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/entries"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kabyedict/internal/server/stats"
)

// StatisticsService computes contributor statistics over the whole
// dictionary on every call.
type StatisticsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewStatisticsService(db *sql.DB, m repomanager.RepositoryManager) *StatisticsService {
	return &StatisticsService{db: db, repomanager: m}
}

func (s *StatisticsService) Report(ctx context.Context) (stats.Report, error) {
	ctx, span := tracer.Start(ctx, "Statistics.Service.Report")
	defer span.End()

	var report stats.Report
	err := dbx.WithReadTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		all, err := s.repomanager.Entries(tx).List(ctx, entries.Criteria{})
		if err != nil {
			return err
		}
		report = stats.Compute(all)
		return nil
	})
	if err != nil {
		return stats.Report{}, fail(span, err)
	}
	return report, nil
}
