package config

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// Degradation modes
const (
	ModeParameters = "parameters" // degrade system parameters and re-run the evaluator each year
	ModeAggregate  = "aggregate"  // scale the first year's output directly
)

// Weather sources
const (
	WeatherSourceCSV      = "csv"
	WeatherSourceClearSky = "clearsky"
)

// ConfigData represents a complete lifetime simulation scenario
type ConfigData struct {
	Name         string             `json:"name" yaml:"name"`
	Site         SiteData           `json:"site" yaml:"site"`
	System       map[string]float64 `json:"system" yaml:"system"`
	Degradation  DegradationData    `json:"degradation" yaml:"degradation"`
	StartYear    int                `json:"start_year" yaml:"start_year"`
	AirmassModel string             `json:"airmass_model,omitempty" yaml:"airmass_model,omitempty"`
	Weather      WeatherData        `json:"weather" yaml:"weather"`
	Storage      StorageData        `json:"storage,omitempty" yaml:"storage,omitempty"`
	REST         *RESTServerData    `json:"rest,omitempty" yaml:"rest,omitempty"`
	LogFile      string             `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

// SiteData holds the PV system location
type SiteData struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Altitude  float64 `json:"altitude" yaml:"altitude"`
	Timezone  string  `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// DegradationData describes the yearly degradation profile. In parameters
// mode the profile comes from Years, or from Columns, or from Uniform repeated
// UniformYears times. In aggregate mode Rates holds one scalar rate per year.
type DegradationData struct {
	Mode         string               `json:"mode" yaml:"mode"`
	Years        []map[string]float64 `json:"years,omitempty" yaml:"years,omitempty"`
	Columns      map[string][]float64 `json:"columns,omitempty" yaml:"columns,omitempty"`
	Uniform      map[string]float64   `json:"uniform,omitempty" yaml:"uniform,omitempty"`
	UniformYears int                  `json:"uniform_years,omitempty" yaml:"uniform_years,omitempty"`
	Rates        []float64            `json:"rates,omitempty" yaml:"rates,omitempty"`
}

// WeatherData selects the reference-year weather
type WeatherData struct {
	Source         string  `json:"source" yaml:"source"`
	Path           string  `json:"path,omitempty" yaml:"path,omitempty"`
	CoerceYear     int     `json:"coerce_year,omitempty" yaml:"coerce_year,omitempty"`
	Year           int     `json:"year,omitempty" yaml:"year,omitempty"`
	StepMinutes    int     `json:"step_minutes,omitempty" yaml:"step_minutes,omitempty"`
	LinkeTurbidity float64 `json:"linke_turbidity,omitempty" yaml:"linke_turbidity,omitempty"`
	TempAir        float64 `json:"temp_air,omitempty" yaml:"temp_air,omitempty"`
	WindSpeed      float64 `json:"wind_speed,omitempty" yaml:"wind_speed,omitempty"`
}

// StorageData holds the configuration for the result sinks
type StorageData struct {
	SQLite      *SQLiteData      `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
	Parquet     *FileData        `json:"parquet,omitempty" yaml:"parquet,omitempty"`
	Msgpack     *FileData        `json:"msgpack,omitempty" yaml:"msgpack,omitempty"`
}

type SQLiteData struct {
	Path string `json:"path" yaml:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
}

type FileData struct {
	Path string `json:"path" yaml:"path"`
}

// RESTServerData configures the HTTP API
type RESTServerData struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
}

// Validate reports every problem that would stop a simulation from running
func (c *ConfigData) Validate() error {
	var errs []string

	if c.StartYear <= 0 {
		errs = append(errs, "start_year must be set")
	}
	if c.Site.Latitude < -90 || c.Site.Latitude > 90 {
		errs = append(errs, fmt.Sprintf("site.latitude %v out of range", c.Site.Latitude))
	}
	if c.Site.Longitude < -180 || c.Site.Longitude > 180 {
		errs = append(errs, fmt.Sprintf("site.longitude %v out of range", c.Site.Longitude))
	}

	switch c.Degradation.Mode {
	case ModeParameters, "":
		if _, ok := c.System["pdc0"]; !ok {
			errs = append(errs, "system.pdc0 is required")
		}
		sources := 0
		if len(c.Degradation.Years) > 0 {
			sources++
		}
		if len(c.Degradation.Columns) > 0 {
			sources++
		}
		if c.Degradation.UniformYears > 0 {
			sources++
		}
		if sources > 1 {
			errs = append(errs, "degradation: use only one of years, columns or uniform")
		}
	case ModeAggregate:
		if _, ok := c.System["pdc0"]; !ok {
			errs = append(errs, "system.pdc0 is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("degradation.mode %q is not %q or %q", c.Degradation.Mode, ModeParameters, ModeAggregate))
	}

	switch c.Weather.Source {
	case WeatherSourceCSV:
		if c.Weather.Path == "" {
			errs = append(errs, "weather.path is required for csv weather")
		}
	case WeatherSourceClearSky, "":
	default:
		errs = append(errs, fmt.Sprintf("weather.source %q is not %q or %q", c.Weather.Source, WeatherSourceCSV, WeatherSourceClearSky))
	}

	if len(errs) > 0 {
		return errors.New("invalid configuration: " + strings.Join(errs, "; "))
	}
	return nil
}
