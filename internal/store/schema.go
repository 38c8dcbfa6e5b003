package store

const Schema = `
CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	artist_id TEXT NOT NULL,
	album_id TEXT NOT NULL,
	title TEXT NOT NULL,
	track_number INTEGER DEFAULT 0,
	duration INTEGER DEFAULT 0,
	UNIQUE(artist_id, album_id, title)
);

CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(artist_id, album_id);

CREATE TABLE IF NOT EXISTS blacklist (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	download_id TEXT NOT NULL,
	title TEXT NOT NULL,
	artist_id TEXT,
	album_id TEXT,
	indexer TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_blacklist_title ON blacklist(title);

CREATE TABLE IF NOT EXISTS history (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	download_id TEXT,
	title TEXT,
	detail TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at);
`
