package db

// Schema is the DDL for the run history database.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    started_at  TEXT NOT NULL,
    roster      TEXT NOT NULL,
    source      TEXT NOT NULL,
    output      TEXT,
    messages    INTEGER NOT NULL DEFAULT 0,
    employees   INTEGER NOT NULL DEFAULT 0,
    matched     INTEGER NOT NULL DEFAULT 0,
    unresolved  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS results (
    run_id        TEXT NOT NULL,
    row           INTEGER NOT NULL,
    name          TEXT,
    employee_id   TEXT,
    raw           TEXT,
    matched       INTEGER NOT NULL DEFAULT 0,
    message_ref   TEXT,
    message_date  TEXT,
    scenario      TEXT,
    source        TEXT,
    snippet       TEXT,
    PRIMARY KEY (run_id, row),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS escalations (
    run_id      TEXT NOT NULL,
    row         INTEGER NOT NULL,
    bead_id     TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    PRIMARY KEY (run_id, row),
    FOREIGN KEY (run_id, row) REFERENCES results(run_id, row) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_results_matched ON results(run_id, matched);
`
