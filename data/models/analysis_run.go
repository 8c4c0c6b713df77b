package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
)

const (
	AnalysisKindCorrelation = "correlation"
	AnalysisKindPrices      = "prices"
	AnalysisKindBeta        = "beta"

	AnalysisOutcomeOk = "ok"
)

// AnalysisRun is one row of the analysis journal, written once per request and never read by the analyses.
type AnalysisRun struct {
	Id         uuid.UUID   `db:"id"`
	Kind       string      `db:"kind"`
	Tickers    []string    `db:"tickers"`
	Provider   string      `db:"provider"`
	Outcome    string      `db:"outcome"`
	Message    null.String `db:"message"`
	DurationMs int64       `db:"duration_ms"`
	CreatedAt  time.Time   `db:"created_at"`
}
