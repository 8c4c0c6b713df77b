package queries

import (
	"embed"
	"fmt"
)

//go:embed create/*.sql delete/*.sql insert/*.sql select/*.sql
var Files embed.FS

// ^^^ the go:embed directive is used to embed the files in the queries package
// meaning on compile time it will convert the files to binary data and embed it in the queries package

type CreateQueries struct {
	AnalysisRun string
}

type DeleteQueries struct {
	AnalysisRunById string
}

type InsertQueries struct {
	AnalysisRun string
}

type SelectQueries struct {
	RecentAnalysisRuns string
}

type QueryHelperStruct struct {
	Create CreateQueries
	Delete DeleteQueries
	Insert InsertQueries
	Select SelectQueries
}

var QueryHelper = QueryHelperStruct{
	Create: CreateQueries{
		AnalysisRun: "create/analysis_run.sql",
	},
	Delete: DeleteQueries{
		AnalysisRunById: "delete/analysis_run_by_id.sql",
	},
	Insert: InsertQueries{
		AnalysisRun: "insert/analysis_run.sql",
	},
	Select: SelectQueries{
		RecentAnalysisRuns: "select/recent_analysis_runs.sql",
	},
}

func Get(path string) string {
	content, err := Files.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("error reading query file: %w", err))
	}

	return string(content)
}
