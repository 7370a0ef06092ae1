package config

import (
	"database/sql"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"
)

// DefaultScenario is the scenario loaded when none is named
const DefaultScenario = "default"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scenarios (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	start_year INTEGER NOT NULL,
	airmass_model TEXT,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	altitude REAL NOT NULL DEFAULT 0,
	timezone TEXT,
	degradation_mode TEXT NOT NULL,
	degradation_years INTEGER NOT NULL DEFAULT 0,
	weather_source TEXT NOT NULL,
	weather_path TEXT,
	weather_coerce_year INTEGER,
	weather_year INTEGER,
	weather_step_minutes INTEGER,
	weather_linke_turbidity REAL,
	weather_temp_air REAL,
	weather_wind_speed REAL,
	sqlite_path TEXT,
	timescaledb_connection TEXT,
	parquet_path TEXT,
	msgpack_path TEXT,
	rest_listen_addr TEXT,
	rest_port INTEGER,
	log_file TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS system_parameters (
	scenario_id INTEGER NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (scenario_id, name)
);

CREATE TABLE IF NOT EXISTS degradation_rates (
	scenario_id INTEGER NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
	year_index INTEGER NOT NULL,
	parameter TEXT,
	rate REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_degradation_rates_scenario ON degradation_rates(scenario_id, year_index);
`

// SQLiteProvider implements ConfigProvider for scenarios stored in a SQLite database
type SQLiteProvider struct {
	db       *sql.DB
	dbPath   string
	scenario string
}

// NewSQLiteProvider opens (and if needed initializes) a SQLite scenario
// database. LoadConfig returns the named scenario, or DefaultScenario when
// scenario is empty.
func NewSQLiteProvider(dbPath, scenario string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize SQLite schema: %w", err)
	}

	if scenario == "" {
		scenario = DefaultScenario
	}

	return &SQLiteProvider{
		db:       db,
		dbPath:   dbPath,
		scenario: scenario,
	}, nil
}

// LoadConfig loads the selected scenario from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config, id, yearCount, err := s.getScenario(s.scenario)
	if err != nil {
		return nil, err
	}

	system, err := s.getSystemParameters(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load system parameters: %w", err)
	}
	config.System = system

	if err := s.getDegradationRates(id, yearCount, &config.Degradation); err != nil {
		return nil, fmt.Errorf("failed to load degradation rates: %w", err)
	}

	return config, nil
}

// ListScenarios returns the names of all stored scenarios
func (s *SQLiteProvider) ListScenarios() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM scenarios ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteProvider) getScenario(name string) (*ConfigData, int64, int, error) {
	query := `
		SELECT id, name, start_year, airmass_model, latitude, longitude, altitude, timezone,
		       degradation_mode, degradation_years,
		       weather_source, weather_path, weather_coerce_year, weather_year,
		       weather_step_minutes, weather_linke_turbidity, weather_temp_air, weather_wind_speed,
		       sqlite_path, timescaledb_connection, parquet_path, msgpack_path,
		       rest_listen_addr, rest_port, log_file
		FROM scenarios
		WHERE name = ?
	`

	var (
		id             int64
		yearCount      int
		airmassModel   sql.NullString
		timezone       sql.NullString
		weatherPath    sql.NullString
		coerceYear     sql.NullInt64
		weatherYear    sql.NullInt64
		stepMinutes    sql.NullInt64
		linkeTurbidity sql.NullFloat64
		tempAir        sql.NullFloat64
		windSpeed      sql.NullFloat64
		sqlitePath     sql.NullString
		timescaleConn  sql.NullString
		parquetPath    sql.NullString
		msgpackPath    sql.NullString
		restListenAddr sql.NullString
		restPort       sql.NullInt64
		logFile        sql.NullString
		config         = &ConfigData{}
	)

	err := s.db.QueryRow(query, name).Scan(
		&id, &config.Name, &config.StartYear, &airmassModel,
		&config.Site.Latitude, &config.Site.Longitude, &config.Site.Altitude, &timezone,
		&config.Degradation.Mode, &yearCount,
		&config.Weather.Source, &weatherPath, &coerceYear, &weatherYear,
		&stepMinutes, &linkeTurbidity, &tempAir, &windSpeed,
		&sqlitePath, &timescaleConn, &parquetPath, &msgpackPath,
		&restListenAddr, &restPort, &logFile,
	)
	if err == sql.ErrNoRows {
		return nil, 0, 0, fmt.Errorf("scenario %q not found", name)
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to query scenario %q: %w", name, err)
	}

	config.AirmassModel = airmassModel.String
	config.Site.Timezone = timezone.String
	config.Weather.Path = weatherPath.String
	config.Weather.CoerceYear = int(coerceYear.Int64)
	config.Weather.Year = int(weatherYear.Int64)
	config.Weather.StepMinutes = int(stepMinutes.Int64)
	config.Weather.LinkeTurbidity = linkeTurbidity.Float64
	config.Weather.TempAir = tempAir.Float64
	config.Weather.WindSpeed = windSpeed.Float64
	config.LogFile = logFile.String

	if sqlitePath.Valid {
		config.Storage.SQLite = &SQLiteData{Path: sqlitePath.String}
	}
	if timescaleConn.Valid {
		config.Storage.TimescaleDB = &TimescaleDBData{ConnectionString: timescaleConn.String}
	}
	if parquetPath.Valid {
		config.Storage.Parquet = &FileData{Path: parquetPath.String}
	}
	if msgpackPath.Valid {
		config.Storage.Msgpack = &FileData{Path: msgpackPath.String}
	}
	if restListenAddr.Valid || restPort.Valid {
		config.REST = &RESTServerData{
			ListenAddr: restListenAddr.String,
			Port:       int(restPort.Int64),
		}
	}

	return config, id, yearCount, nil
}

func (s *SQLiteProvider) getSystemParameters(scenarioID int64) (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT name, value FROM system_parameters WHERE scenario_id = ?`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	params := make(map[string]float64)
	for rows.Next() {
		var (
			name  string
			value float64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		params[name] = value
	}
	return params, rows.Err()
}

// getDegradationRates fills d from the degradation_rates table. Rows with a
// NULL parameter are aggregate-mode scalar rates.
func (s *SQLiteProvider) getDegradationRates(scenarioID int64, yearCount int, d *DegradationData) error {
	rows, err := s.db.Query(`
		SELECT year_index, parameter, rate
		FROM degradation_rates
		WHERE scenario_id = ?
		ORDER BY year_index, parameter
	`, scenarioID)
	if err != nil {
		return err
	}
	defer rows.Close()

	switch d.Mode {
	case ModeAggregate:
		d.Rates = make([]float64, yearCount)
	default:
		d.Years = make([]map[string]float64, yearCount)
		for i := range d.Years {
			d.Years[i] = map[string]float64{}
		}
	}

	for rows.Next() {
		var (
			index     int
			parameter sql.NullString
			rate      float64
		)
		if err := rows.Scan(&index, &parameter, &rate); err != nil {
			return err
		}
		if index < 0 || index >= yearCount {
			return fmt.Errorf("year index %d outside stored profile of %d years", index, yearCount)
		}
		if d.Mode == ModeAggregate {
			if parameter.Valid {
				return fmt.Errorf("year index %d: parameter rate %q stored for aggregate scenario", index, parameter.String)
			}
			d.Rates[index] = rate
			continue
		}
		if !parameter.Valid {
			return fmt.Errorf("year index %d: scalar rate stored for parameter scenario", index)
		}
		d.Years[index][parameter.String] = rate
	}
	return rows.Err()
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig stores configData under its Name (or the provider's scenario
// name when Name is empty), replacing any scenario of the same name. Column
// and uniform degradation profiles are stored expanded to one record per year.
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	name := configData.Name
	if name == "" {
		name = s.scenario
	}

	mode := configData.Degradation.Mode
	if mode == "" {
		mode = ModeParameters
	}

	var years [][]rateRow
	if mode == ModeAggregate {
		years = aggregateRows(configData.Degradation.Rates)
	} else {
		records, err := configData.Degradation.YearRecords()
		if err != nil {
			return err
		}
		years = parameterRows(records)
	}

	// Start transaction
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM system_parameters WHERE scenario_id IN (SELECT id FROM scenarios WHERE name = ?)`, name); err != nil {
		return fmt.Errorf("failed to clear system parameters: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM degradation_rates WHERE scenario_id IN (SELECT id FROM scenarios WHERE name = ?)`, name); err != nil {
		return fmt.Errorf("failed to clear degradation rates: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM scenarios WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to clear scenario: %w", err)
	}

	scenarioID, err := s.insertScenario(tx, name, mode, len(years), configData)
	if err != nil {
		return fmt.Errorf("failed to insert scenario %s: %w", name, err)
	}

	for _, pname := range sortedKeys(configData.System) {
		if _, err := tx.Exec(`INSERT INTO system_parameters (scenario_id, name, value) VALUES (?, ?, ?)`,
			scenarioID, pname, configData.System[pname]); err != nil {
			return fmt.Errorf("failed to insert system parameter %s: %w", pname, err)
		}
	}

	for i, year := range years {
		for _, row := range year {
			if _, err := tx.Exec(`INSERT INTO degradation_rates (scenario_id, year_index, parameter, rate) VALUES (?, ?, ?, ?)`,
				scenarioID, i, row.parameter, row.rate); err != nil {
				return fmt.Errorf("failed to insert degradation rate for year index %d: %w", i, err)
			}
		}
	}

	// Commit transaction
	return tx.Commit()
}

func (s *SQLiteProvider) insertScenario(tx *sql.Tx, name, mode string, yearCount int, c *ConfigData) (int64, error) {
	query := `
		INSERT INTO scenarios (
			name, start_year, airmass_model, latitude, longitude, altitude, timezone,
			degradation_mode, degradation_years,
			weather_source, weather_path, weather_coerce_year, weather_year,
			weather_step_minutes, weather_linke_turbidity, weather_temp_air, weather_wind_speed,
			sqlite_path, timescaledb_connection, parquet_path, msgpack_path,
			rest_listen_addr, rest_port, log_file, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))
	`

	source := c.Weather.Source
	if source == "" {
		source = WeatherSourceClearSky
	}

	var sqlitePath, timescaleConn, parquetPath, msgpackPath sql.NullString
	if c.Storage.SQLite != nil {
		sqlitePath = sql.NullString{String: c.Storage.SQLite.Path, Valid: true}
	}
	if c.Storage.TimescaleDB != nil {
		timescaleConn = sql.NullString{String: c.Storage.TimescaleDB.ConnectionString, Valid: true}
	}
	if c.Storage.Parquet != nil {
		parquetPath = sql.NullString{String: c.Storage.Parquet.Path, Valid: true}
	}
	if c.Storage.Msgpack != nil {
		msgpackPath = sql.NullString{String: c.Storage.Msgpack.Path, Valid: true}
	}

	var restListenAddr sql.NullString
	var restPort sql.NullInt64
	if c.REST != nil {
		restListenAddr = sql.NullString{String: c.REST.ListenAddr, Valid: true}
		restPort = sql.NullInt64{Int64: int64(c.REST.Port), Valid: true}
	}

	result, err := tx.Exec(query,
		name, c.StartYear, nullString(c.AirmassModel),
		c.Site.Latitude, c.Site.Longitude, c.Site.Altitude, nullString(c.Site.Timezone),
		mode, yearCount,
		source, nullString(c.Weather.Path), nullInt64(c.Weather.CoerceYear), nullInt64(c.Weather.Year),
		nullInt64(c.Weather.StepMinutes), nullFloat64(c.Weather.LinkeTurbidity),
		nullFloat64(c.Weather.TempAir), nullFloat64(c.Weather.WindSpeed),
		sqlitePath, timescaleConn, parquetPath, msgpackPath,
		restListenAddr, restPort, nullString(c.LogFile),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

type rateRow struct {
	parameter sql.NullString
	rate      float64
}

func aggregateRows(rates []float64) [][]rateRow {
	years := make([][]rateRow, len(rates))
	for i, r := range rates {
		years[i] = []rateRow{{rate: r}}
	}
	return years
}

func parameterRows(records []map[string]float64) [][]rateRow {
	years := make([][]rateRow, len(records))
	for i, rec := range records {
		for _, name := range sortedKeys(rec) {
			years[i] = append(years[i], rateRow{
				parameter: sql.NullString{String: name, Valid: true},
				rate:      rec[name],
			})
		}
	}
	return years
}

// YearRecords returns the parameter-mode profile as one map per year,
// expanding column and uniform forms.
func (d DegradationData) YearRecords() ([]map[string]float64, error) {
	switch {
	case len(d.Years) > 0:
		return d.Years, nil
	case len(d.Columns) > 0:
		n := -1
		for name, col := range d.Columns {
			if n >= 0 && len(col) != n {
				return nil, fmt.Errorf("degradation column %q has %d entries, expected %d", name, len(col), n)
			}
			n = len(col)
		}
		records := make([]map[string]float64, n)
		for i := range records {
			records[i] = make(map[string]float64, len(d.Columns))
			for name, col := range d.Columns {
				records[i][name] = col[i]
			}
		}
		return records, nil
	case d.UniformYears > 0:
		records := make([]map[string]float64, d.UniformYears)
		for i := range records {
			records[i] = make(map[string]float64, len(d.Uniform))
			for name, rate := range d.Uniform {
				records[i][name] = rate
			}
		}
		return records, nil
	}
	return nil, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Helper functions for handling nullable fields
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat64(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func nullInt64(i int) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(i), Valid: true}
}
