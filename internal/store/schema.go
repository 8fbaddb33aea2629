package store

func schemaFor(driver string) []string {
	switch driver {
	case "sqlserver":
		return []string{
			`IF OBJECT_ID(N'runs', N'U') IS NULL CREATE TABLE runs (
				id NVARCHAR(64) NOT NULL PRIMARY KEY,
				workflow NVARCHAR(255) NOT NULL,
				mode NVARCHAR(32) NOT NULL,
				started_at NVARCHAR(40) NOT NULL,
				finished_at NVARCHAR(40) NOT NULL,
				total INT NOT NULL,
				passed INT NOT NULL,
				failed INT NOT NULL
			)`,
			`IF OBJECT_ID(N'iterations', N'U') IS NULL CREATE TABLE iterations (
				run_id NVARCHAR(64) NOT NULL,
				idx INT NOT NULL,
				success INT NOT NULL,
				data NVARCHAR(MAX) NOT NULL,
				error_message NVARCHAR(MAX) NOT NULL,
				duration_ms BIGINT NOT NULL,
				PRIMARY KEY (run_id, idx)
			)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS runs (
				id VARCHAR(64) NOT NULL PRIMARY KEY,
				workflow VARCHAR(255) NOT NULL,
				mode VARCHAR(32) NOT NULL,
				started_at VARCHAR(40) NOT NULL,
				finished_at VARCHAR(40) NOT NULL,
				total INTEGER NOT NULL,
				passed INTEGER NOT NULL,
				failed INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS iterations (
				run_id VARCHAR(64) NOT NULL,
				idx INTEGER NOT NULL,
				success INTEGER NOT NULL,
				data TEXT NOT NULL,
				error_message TEXT NOT NULL,
				duration_ms BIGINT NOT NULL,
				PRIMARY KEY (run_id, idx)
			)`,
		}
	}
}
