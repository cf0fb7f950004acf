package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS draft_runs (
	id         TEXT PRIMARY KEY,
	message_id TEXT NOT NULL DEFAULT '',
	subject    TEXT NOT NULL DEFAULT '',
	recipient  TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_draft_runs_message_id ON draft_runs(message_id);
CREATE INDEX IF NOT EXISTS idx_draft_runs_status ON draft_runs(status);
CREATE INDEX IF NOT EXISTS idx_draft_runs_created_at ON draft_runs(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
