package store

import "time"

// Run is one invocation of a runner.
type Run struct {
	ID         string
	Workflow   string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Passed     int
	Failed     int
}

// Iteration is the outcome of replaying the workflow for one data row.
type Iteration struct {
	Index    int
	Success  bool
	Data     string
	Error    string
	Duration time.Duration
}

type runRow struct {
	ID         string `db:"id"`
	Workflow   string `db:"workflow"`
	Mode       string `db:"mode"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
	Total      int    `db:"total"`
	Passed     int    `db:"passed"`
	Failed     int    `db:"failed"`
}

type iterationRow struct {
	RunID      string `db:"run_id"`
	Index      int    `db:"idx"`
	Success    int    `db:"success"`
	Data       string `db:"data"`
	Error      string `db:"error_message"`
	DurationMS int64  `db:"duration_ms"`
}
