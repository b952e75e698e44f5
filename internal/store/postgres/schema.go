package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id BIGSERIAL PRIMARY KEY,
		source_name TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		link TEXT,
		content_hash TEXT NOT NULL UNIQUE CHECK (content_hash <> ''),
		source_type TEXT NOT NULL DEFAULT 'facebook',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// Databases created by the old parser have jobs(group_name, ...) instead.
	`ALTER TABLE jobs ADD COLUMN IF NOT EXISTS source_name TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE jobs ADD COLUMN IF NOT EXISTS source_type TEXT NOT NULL DEFAULT 'facebook'`,
	`DO $$
	BEGIN
		IF EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = 'jobs' AND column_name = 'group_name'
		) THEN
			UPDATE jobs SET source_name = group_name
			WHERE source_name = '' AND group_name IS NOT NULL;
		END IF;
	END $$`,
	`CREATE TABLE IF NOT EXISTS sources (
		id BIGSERIAL PRIMARY KEY,
		source_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		provider TEXT NOT NULL DEFAULT 'facebook',
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_enabled ON sources(enabled)`,
}

const (
	selectLegacyGroups = `
		SELECT group_id, COALESCE(group_name, ''), COALESCE(enabled, TRUE), COALESCE(added_at, NOW())
		FROM fb_groups
		WHERE group_id IS NOT NULL
		ORDER BY id`
	insertLegacyGroup = `
		INSERT INTO sources (source_id, name, provider, enabled, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_id) DO NOTHING`
)
