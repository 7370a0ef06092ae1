package timescaledb

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS pv_runs (
    id uuid PRIMARY KEY,
    scenario text NOT NULL,
    mode text NOT NULL,
    start_year integer NOT NULL,
    created_at timestamp WITH TIME ZONE NOT NULL
);`

const createOutputTableSQL = `
CREATE TABLE IF NOT EXISTS pv_output (
    time timestamp WITH TIME ZONE NOT NULL,
    run_id uuid NOT NULL REFERENCES pv_runs(id) ON DELETE CASCADE,
    value double precision NOT NULL
);`

const createOutputIndexSQL = `CREATE INDEX IF NOT EXISTS pv_output_run_id_time_idx ON pv_output (run_id, time DESC);`

const createYearlyTableSQL = `
CREATE TABLE IF NOT EXISTS pv_yearly (
    run_id uuid NOT NULL REFERENCES pv_runs(id) ON DELETE CASCADE,
    year integer NOT NULL,
    samples integer NOT NULL,
    total double precision NOT NULL,
    mean double precision NOT NULL,
    peak double precision NOT NULL,
    PRIMARY KEY (run_id, year)
);`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createHypertableSQL = `SELECT create_hypertable('pv_output', 'time', if_not_exists => true);`

const create1dViewSQL = `CREATE MATERIALIZED VIEW IF NOT EXISTS pv_output_1d
WITH (timescaledb.continuous, timescaledb.materialized_only = false)
AS SELECT
    time_bucket('1 day', time) AS bucket,
    run_id,
    sum(value) AS total,
    avg(value) AS mean,
    max(value) AS peak
FROM pv_output
GROUP BY bucket, run_id
WITH NO DATA;`
