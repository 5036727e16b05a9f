// ABOUTME: Database schema definitions
// ABOUTME: Creates SQLite tables for users, postmen, interactions, logs, plans, notices and audit rows
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user' CHECK(role IN ('user', 'admin')),
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	last_login_at DATETIME
);

CREATE TABLE IF NOT EXISTS postmen (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	position TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '포스트맨' CHECK(category IN ('포스트맨', '포스트맨PLUS')),
	stage TEXT NOT NULL DEFAULT 'first_meeting' CHECK(stage IN ('first_meeting', 'relationship_building', 'trust_building', 'plus', 'vip')),
	give_score INTEGER NOT NULL DEFAULT 0 CHECK(give_score >= 0),
	take_score INTEGER NOT NULL DEFAULT 0 CHECK(take_score >= 0),
	last_contact DATETIME,
	notes TEXT NOT NULL DEFAULT '',
	profile_image TEXT NOT NULL DEFAULT '',
	birthday DATETIME,
	strengths TEXT NOT NULL DEFAULT '',
	interests TEXT NOT NULL DEFAULT '',
	goals TEXT NOT NULL DEFAULT '',
	business_summary TEXT NOT NULL DEFAULT '',
	life_purpose TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_postmen_user ON postmen(user_id);
CREATE INDEX IF NOT EXISTS idx_postmen_name ON postmen(name);

CREATE TABLE IF NOT EXISTS interactions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	postman_id TEXT NOT NULL,
	type TEXT NOT NULL CHECK(type IN ('GIVE', 'TAKE')),
	category TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	date DATETIME NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY (postman_id) REFERENCES postmen(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_interactions_user_date ON interactions(user_id, date DESC);
CREATE INDEX IF NOT EXISTS idx_interactions_postman ON interactions(postman_id);

CREATE TABLE IF NOT EXISTS daily_logs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	date TEXT NOT NULL,
	content TEXT NOT NULL,
	goals TEXT NOT NULL DEFAULT '',
	achievements TEXT NOT NULL DEFAULT '',
	letters_sent INTEGER NOT NULL DEFAULT 0,
	calls INTEGER NOT NULL DEFAULT 0,
	social_touches INTEGER NOT NULL DEFAULT 0,
	gifts_sent INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(user_id, date),
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS weekly_plans (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	week_start TEXT NOT NULL,
	goals TEXT NOT NULL DEFAULT '[]',
	meetings TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(user_id, week_start),
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS notices (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS admin_logs (
	id TEXT PRIMARY KEY,
	admin_id TEXT NOT NULL,
	action TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_admin_logs_created ON admin_logs(created_at DESC);
`

// Tables lists every application table, in dependency order.
var Tables = []string{"users", "postmen", "interactions", "daily_logs", "weekly_plans", "notices", "admin_logs"}

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
