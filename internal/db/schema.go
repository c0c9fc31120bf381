package db

// schemaStatements is applied in order by Migrate. Every statement is
// written to be valid under both postgres and sqlite3 dialects: no
// SERIAL/AUTOINCREMENT (ids are pre-generated snowflakes), BIGINT for
// 64-bit ids, TEXT for everything variable-length.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT,
		social_credit BIGINT NOT NULL DEFAULT 0,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		verification_code TEXT,
		password_reset_code TEXT,
		bio TEXT,
		avatar BIGINT,
		banner BIGINT,
		badges BIGINT NOT NULL DEFAULT 0,
		permissions BIGINT NOT NULL DEFAULT 0,
		status_type TEXT NOT NULL DEFAULT 'OFFLINE',
		status_text TEXT,
		created_at BIGINT NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		platform TEXT,
		client TEXT,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
	`CREATE TABLE IF NOT EXISTS spheres (
		id BIGINT PRIMARY KEY,
		owner_id BIGINT NOT NULL REFERENCES users(id),
		slug TEXT NOT NULL UNIQUE,
		name TEXT,
		type TEXT NOT NULL DEFAULT 'CHAT',
		description TEXT,
		icon BIGINT,
		banner BIGINT,
		badges BIGINT NOT NULL DEFAULT 0,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT PRIMARY KEY,
		sphere_id BIGINT NOT NULL REFERENCES spheres(id),
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_categories_sphere ON categories(sphere_id)`,
	`CREATE TABLE IF NOT EXISTS channels (
		id BIGINT PRIMARY KEY,
		sphere_id BIGINT NOT NULL REFERENCES spheres(id),
		category_id BIGINT NOT NULL REFERENCES categories(id),
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'TEXT',
		topic TEXT,
		position INTEGER NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_channels_category ON channels(category_id)`,
	`CREATE TABLE IF NOT EXISTS members (
		user_id BIGINT NOT NULL REFERENCES users(id),
		sphere_id BIGINT NOT NULL REFERENCES spheres(id),
		nickname TEXT,
		sphere_avatar BIGINT,
		sphere_banner BIGINT,
		sphere_bio TEXT,
		sphere_status TEXT,
		joined_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, sphere_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_members_sphere ON members(sphere_id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGINT PRIMARY KEY,
		channel_id BIGINT NOT NULL REFERENCES channels(id),
		author_id BIGINT REFERENCES users(id),
		content TEXT,
		reference BIGINT,
		created_at BIGINT NOT NULL,
		edited_at BIGINT,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id, id)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		message_id BIGINT NOT NULL REFERENCES messages(id),
		file_id BIGINT NOT NULL REFERENCES files(id),
		description TEXT,
		spoiler BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (message_id, file_id)
	)`,
	`CREATE TABLE IF NOT EXISTS embeds (
		message_id BIGINT NOT NULL REFERENCES messages(id),
		ordinal INTEGER NOT NULL DEFAULT 0,
		url TEXT NOT NULL,
		type TEXT NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (message_id, ordinal)
	)`,
	`CREATE TABLE IF NOT EXISTS reactions (
		message_id BIGINT NOT NULL REFERENCES messages(id),
		emoji TEXT NOT NULL,
		user_id BIGINT NOT NULL REFERENCES users(id),
		PRIMARY KEY (message_id, emoji, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reactions_message ON reactions(message_id)`,
	`CREATE TABLE IF NOT EXISTS emojis (
		id BIGINT PRIMARY KEY,
		sphere_id BIGINT NOT NULL REFERENCES spheres(id),
		name TEXT NOT NULL,
		image_id BIGINT NOT NULL,
		uploader_id BIGINT NOT NULL REFERENCES users(id),
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_emojis_sphere_name ON emojis(sphere_id, name) WHERE is_deleted = FALSE`,
	`CREATE TABLE IF NOT EXISTS blobs (
		id BIGINT PRIMARY KEY,
		bucket TEXT NOT NULL,
		hash TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size BIGINT NOT NULL,
		width INTEGER,
		height INTEGER,
		created_at BIGINT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_blobs_bucket_hash ON blobs(bucket, hash)`,
	`CREATE TABLE IF NOT EXISTS files (
		id BIGINT PRIMARY KEY,
		blob_id BIGINT NOT NULL REFERENCES blobs(id),
		bucket TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_files_blob ON files(blob_id)`,
}
