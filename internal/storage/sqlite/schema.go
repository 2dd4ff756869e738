package sqlite

// Schema is the embedded SQLite schema. All statements are idempotent so the
// schema can be applied on every open.
const Schema = `
CREATE TABLE IF NOT EXISTS thoughts (
    id               TEXT PRIMARY KEY,
    content          TEXT NOT NULL,
    summary          TEXT NOT NULL DEFAULT '',
    timestamp        DATETIME NOT NULL,
    is_blocker       INTEGER NOT NULL DEFAULT 0,
    affected_project TEXT NOT NULL DEFAULT '',
    para_bucket      TEXT NOT NULL DEFAULT '',
    salience         REAL NOT NULL DEFAULT 0,
    review_count     INTEGER NOT NULL DEFAULT 0,
    last_reviewed    DATETIME,
    ease_factor      REAL NOT NULL DEFAULT 2.5
);

CREATE TABLE IF NOT EXISTS entities (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    type        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);

-- Identity is the case-insensitive (type, name) pair.
CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_identity
    ON entities(lower(type), lower(name));

CREATE TABLE IF NOT EXISTS thought_entities (
    thought_id TEXT NOT NULL REFERENCES thoughts(id) ON DELETE CASCADE,
    entity_id  INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (thought_id, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_thought_entities_entity
    ON thought_entities(entity_id);

CREATE TABLE IF NOT EXISTS thought_categories (
    thought_id TEXT NOT NULL REFERENCES thoughts(id) ON DELETE CASCADE,
    name       TEXT NOT NULL,
    confidence REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (thought_id, name)
);

CREATE INDEX IF NOT EXISTS idx_thought_categories_name
    ON thought_categories(name);

CREATE TABLE IF NOT EXISTS actions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    thought_id  TEXT NOT NULL REFERENCES thoughts(id) ON DELETE CASCADE,
    description TEXT NOT NULL,
    urgency     INTEGER NOT NULL DEFAULT 3,
    status      TEXT NOT NULL DEFAULT 'pending',
    deadline    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS nudges (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    thought_id  TEXT NOT NULL REFERENCES thoughts(id) ON DELETE CASCADE,
    person_name TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    suggestion  TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS conversation_messages (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    thought_id TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS person_profiles (
    name         TEXT PRIMARY KEY,
    summary      TEXT NOT NULL DEFAULT '',
    last_contact TEXT NOT NULL DEFAULT '',
    open_loops   TEXT NOT NULL DEFAULT '[]',
    updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS project_profiles (
    name       TEXT PRIMARY KEY,
    status     TEXT NOT NULL DEFAULT '',
    blockers   TEXT NOT NULL DEFAULT '[]',
    next_steps TEXT NOT NULL DEFAULT '[]',
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS embeddings (
    id       TEXT PRIMARY KEY,
    text     TEXT NOT NULL,
    vector   TEXT NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}'
);

CREATE VIRTUAL TABLE IF NOT EXISTS thoughts_fts USING fts5(
    content,
    thought_id UNINDEXED
);

CREATE TRIGGER IF NOT EXISTS thoughts_fts_insert AFTER INSERT ON thoughts BEGIN
    INSERT INTO thoughts_fts(content, thought_id) VALUES (new.content, new.id);
END;

CREATE TRIGGER IF NOT EXISTS thoughts_fts_delete AFTER DELETE ON thoughts BEGIN
    DELETE FROM thoughts_fts WHERE thought_id = old.id;
END;

CREATE TRIGGER IF NOT EXISTS thoughts_fts_update AFTER UPDATE OF content ON thoughts BEGIN
    DELETE FROM thoughts_fts WHERE thought_id = old.id;
    INSERT INTO thoughts_fts(content, thought_id) VALUES (new.content, new.id);
END;
`
