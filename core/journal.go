package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"

	m "sa.service/data/models"
)

const journalTimeout = 5 * time.Second

// RunJournal keeps an audit trail of analysis requests. Nothing reads it back.
type RunJournal interface {
	Record(ctx context.Context, run m.AnalysisRun) error
}

// NopJournal is used when no database is configured.
type NopJournal struct{}

func (NopJournal) Record(context.Context, m.AnalysisRun) error {
	return nil
}

// recordRun writes the outcome of one analysis. A failure is logged, the response never changes.
func (sc *ServiceContext) recordRun(ctx context.Context, kind string, tickers []string, started time.Time, err error) {
	run := m.AnalysisRun{
		Id:         uuid.New(),
		Kind:       kind,
		Tickers:    tickers,
		Outcome:    m.AnalysisOutcomeOk,
		DurationMs: sc.now().Sub(started).Milliseconds(),
		CreatedAt:  started,
	}
	if sc.Fetcher != nil {
		run.Provider = sc.Fetcher.Name()
	}
	if err != nil {
		run.Outcome = KindOf(err).String()
		run.Message = null.StringFrom(UserMessage(err))
	}

	// the client may already be gone, the row is still worth keeping
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if jerr := sc.Journal.Record(jctx, run); jerr != nil {
		sc.Logger.Warn().Str("kind", kind).Strs("tickers", tickers).Err(jerr).Msg("failed to record analysis run")
	}
}
