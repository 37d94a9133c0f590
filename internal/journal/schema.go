package journal

const Schema = `
CREATE TABLE IF NOT EXISTS fetches (
	id          TEXT PRIMARY KEY,
	provider    TEXT NOT NULL,
	origin      TEXT NOT NULL,
	records     INTEGER NOT NULL,
	kind        TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fetches_started_at ON fetches(started_at);
`
