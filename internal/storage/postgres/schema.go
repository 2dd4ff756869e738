package postgres

// Schema is the embedded PostgreSQL schema. All statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS thoughts (
    id               TEXT PRIMARY KEY,
    content          TEXT NOT NULL,
    summary          TEXT NOT NULL DEFAULT '',
    timestamp        TIMESTAMPTZ NOT NULL,
    is_blocker       BOOLEAN NOT NULL DEFAULT FALSE,
    affected_project TEXT NOT NULL DEFAULT '',
    para_bucket      TEXT NOT NULL DEFAULT '',
    salience         DOUBLE PRECISION NOT NULL DEFAULT 0,
    review_count     INTEGER NOT NULL DEFAULT 0,
    last_reviewed    TIMESTAMPTZ,
    ease_factor      DOUBLE PRECISION NOT NULL DEFAULT 2.5
);

CREATE TABLE IF NOT EXISTS entities (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT NOT NULL,
    type        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_identity
    ON entities (lower(type), lower(name));

CREATE TABLE IF NOT EXISTS thought_entities (
    thought_id TEXT NOT NULL REFERENCES thoughts(id) ON DELETE CASCADE,
    entity_id  BIGINT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (thought_id, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_thought_entities_entity
    ON thought_entities (entity_id);

CREATE TABLE IF NOT EXISTS thought_categories (
    thought_id TEXT NOT NULL REFERENCES thoughts(id) ON DELETE CASCADE,
    name       TEXT NOT NULL,
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (thought_id, name)
);

CREATE TABLE IF NOT EXISTS actions (
    id          BIGSERIAL PRIMARY KEY,
    thought_id  TEXT NOT NULL REFERENCES thoughts(id) ON DELETE CASCADE,
    description TEXT NOT NULL,
    urgency     INTEGER NOT NULL DEFAULT 3,
    status      TEXT NOT NULL DEFAULT 'pending',
    deadline    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS nudges (
    id          BIGSERIAL PRIMARY KEY,
    thought_id  TEXT NOT NULL REFERENCES thoughts(id) ON DELETE CASCADE,
    person_name TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    suggestion  TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS conversation_messages (
    id         BIGSERIAL PRIMARY KEY,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    thought_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS person_profiles (
    name         TEXT PRIMARY KEY,
    summary      TEXT NOT NULL DEFAULT '',
    last_contact TEXT NOT NULL DEFAULT '',
    open_loops   JSONB NOT NULL DEFAULT '[]',
    updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS project_profiles (
    name       TEXT PRIMARY KEY,
    status     TEXT NOT NULL DEFAULT '',
    blockers   JSONB NOT NULL DEFAULT '[]',
    next_steps JSONB NOT NULL DEFAULT '[]',
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS embeddings (
    id       TEXT PRIMARY KEY,
    text     TEXT NOT NULL,
    metadata JSONB NOT NULL DEFAULT '{}'
);
`

// MigrationPgvector adds the vector column once the extension is confirmed
// available. Dimension 768 matches the default embedding model.
const MigrationPgvector = `
ALTER TABLE embeddings ADD COLUMN IF NOT EXISTS embedding vector(768);
CREATE INDEX IF NOT EXISTS idx_embeddings_vec
    ON embeddings USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`
