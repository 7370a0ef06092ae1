package restserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/chrissnell/pvlifetime/internal/degradation"
	"github.com/chrissnell/pvlifetime/internal/storage"
	"github.com/chrissnell/pvlifetime/internal/weather"
	"github.com/chrissnell/pvlifetime/pkg/airmass"
	"github.com/chrissnell/pvlifetime/pkg/config"
	"github.com/chrissnell/pvlifetime/pkg/responseformat"
)

const (
	maxZeniths       = 10000
	maxSimulateYears = 100
	minStepMinutes   = 15
	maxBodyBytes     = 1 << 20
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetAirmass computes airmass for one or more zenith angles. Zenith angles
// come from repeated or comma-separated zenith parameters. An optional
// pressure (Pa) or altitude (m) adds pressure-corrected absolute airmass.
func (h *Handlers) GetAirmass(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	zeniths, err := parseFloats(q["zenith"])
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, fmt.Sprintf("invalid zenith: %v", err))
		return
	}
	if len(zeniths) == 0 {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "at least one zenith is required")
		return
	}
	if len(zeniths) > maxZeniths {
		h.formatter.WriteError(w, req, http.StatusBadRequest, fmt.Sprintf("at most %d zenith angles per request", maxZeniths))
		return
	}

	var pressure float64
	switch {
	case q.Get("pressure") != "":
		pressure, err = strconv.ParseFloat(q.Get("pressure"), 64)
		if err != nil {
			h.formatter.WriteError(w, req, http.StatusBadRequest, "invalid pressure")
			return
		}
	case q.Get("altitude") != "":
		alt, err := strconv.ParseFloat(q.Get("altitude"), 64)
		if err != nil {
			h.formatter.WriteError(w, req, http.StatusBadRequest, "invalid altitude")
			return
		}
		pressure = airmass.PressureFromAltitude(alt)
	}

	model := airmass.ParseModel(q.Get("model"), h.controller.logger)
	relative := airmass.RelativeSlice(zeniths, model)

	resp := AirmassResponse{
		Model:  model.String(),
		Values: make([]AirmassValue, len(zeniths)),
	}
	for i, z := range zeniths {
		v := AirmassValue{Zenith: z, Airmass: finite(relative[i])}
		if pressure > 0 {
			v.Absolute = finite(airmass.Absolute(relative[i], pressure))
		}
		resp.Values[i] = v
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, resp)
}

// GetModels lists the supported airmass models
func (h *Handlers) GetModels(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, http.StatusOK, ModelsResponse{
		Models:  airmass.Models(),
		Default: airmass.DefaultModel.String(),
	})
}

// PostSimulate runs a lifetime simulation for the scenario in the request
// body. Only clear-sky weather is accepted over HTTP. Pass series=true to
// include the full output series in the response.
func (h *Handlers) PostSimulate(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)

	cfg := &config.ConfigData{}
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, fmt.Sprintf("invalid scenario: %v", err))
		return
	}

	if cfg.Weather.Source == "" {
		cfg.Weather.Source = config.WeatherSourceClearSky
	}
	if cfg.Degradation.Mode == "" {
		cfg.Degradation.Mode = config.ModeParameters
	}
	if err := validateRequest(cfg); err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.controller.runner.Run(req.Context(), cfg)
	if err != nil {
		h.controller.logger.Warnw("simulation failed", "scenario", cfg.Name, "error", err)
		h.formatter.WriteError(w, req, simulateErrorStatus(err), err.Error())
		return
	}

	resp := SimulateResponse{
		Scenario:       cfg.Name,
		Mode:           cfg.Degradation.Mode,
		StartYear:      cfg.StartYear,
		Samples:        len(result.Output),
		DroppedLeapDay: result.DroppedLeapDay,
		Years:          result.Years,
		Yearly:         result.Yearly(),
	}
	if req.URL.Query().Get("series") == "true" {
		resp.Output = result.Output
	}

	if h.controller.store != nil {
		run := storage.NewRun(cfg.Name, cfg.Degradation.Mode, cfg.StartYear, result.Output)
		resp.RunID = run.ID.String()
		if err := h.controller.store.StoreRun(req.Context(), run); err != nil {
			h.controller.logger.Errorw("could not store simulation run", "run", run.ID, "error", err)
		} else {
			resp.Stored = true
		}
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, resp)
}

// GetHealth reports the status of the storage sinks
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{Status: storage.StatusHealthy}
	if h.controller.health != nil {
		resp.Sinks = h.controller.health.GetAllHealth()
		for _, s := range resp.Sinks {
			if s.Status != storage.StatusHealthy {
				resp.Status = storage.StatusUnhealthy
			}
		}
	}
	h.formatter.WriteResponse(w, req, http.StatusOK, resp)
}

func validateRequest(cfg *config.ConfigData) error {
	if cfg.Weather.Source != config.WeatherSourceClearSky {
		return errors.New("only clearsky weather is supported over HTTP")
	}
	if cfg.Weather.StepMinutes != 0 && cfg.Weather.StepMinutes < minStepMinutes {
		return fmt.Errorf("weather.step_minutes must be at least %d", minStepMinutes)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	years := len(cfg.Degradation.Rates)
	if cfg.Degradation.Mode == config.ModeParameters {
		records, err := cfg.Degradation.YearRecords()
		if err != nil {
			return err
		}
		years = len(records)
	}
	if years > maxSimulateYears {
		return fmt.Errorf("at most %d simulated years per request", maxSimulateYears)
	}
	return nil
}

func simulateErrorStatus(err error) int {
	switch {
	case errors.Is(err, degradation.ErrInvalidRate),
		errors.Is(err, degradation.ErrRaggedColumns),
		errors.Is(err, weather.ErrEmpty):
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

// parseFloats accepts repeated values and comma-separated lists
func parseFloats(raw []string) ([]float64, error) {
	var out []float64
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}
