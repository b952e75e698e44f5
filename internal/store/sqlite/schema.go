package sqlite

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_name TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		link TEXT,
		content_hash TEXT NOT NULL UNIQUE CHECK (content_hash <> ''),
		source_type TEXT NOT NULL DEFAULT 'facebook',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		provider TEXT NOT NULL DEFAULT 'facebook',
		enabled INTEGER NOT NULL DEFAULT 1,
		added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_enabled ON sources(enabled)`,
}
