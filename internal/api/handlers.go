package api

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/kashacker/satellite-tracker-orbitx/internal/catalog"
	"github.com/kashacker/satellite-tracker-orbitx/internal/httputil"
	"github.com/kashacker/satellite-tracker-orbitx/internal/observability"
	"github.com/kashacker/satellite-tracker-orbitx/internal/orbit"
	"github.com/kashacker/satellite-tracker-orbitx/internal/service"
)

const (
	apiName    = "OrbitX API"
	apiVersion = "1.0.0"
	sourceName = "Celestrak"
)

type info struct {
	SatName           string `json:"satname"`
	SatID             int    `json:"satid"`
	TransactionsCount int    `json:"transactionscount"`
}

type positionResponse struct {
	Info      info             `json:"info"`
	Positions []orbit.Position `json:"positions"`
}

type elementSetResponse struct {
	Info info   `json:"info"`
	TLE  string `json:"tle"`
}

type listResponse struct {
	Satellites []catalog.Entry `json:"satellites"`
	Total      int             `json:"total"`
	Source     string          `json:"source"`
}

type searchResponse struct {
	Satellites []catalog.Entry `json:"satellites"`
	Total      int             `json:"total"`
	Query      string          `json:"query"`
}

type categoryResponse struct {
	Satellites []catalog.Entry `json:"satellites"`
	Total      int             `json:"total"`
	Category   string          `json:"category"`
}

type healthResponse struct {
	Status            string `json:"status"`
	Name              string `json:"name"`
	Version           string `json:"version"`
	CatalogSize       int    `json:"catalogSize"`
	CachedElementSets int    `json:"cachedElementSets"`
	Source            string `json:"source"`
}

type handlers struct {
	svc    Service
	logger *slog.Logger
}

func (h *handlers) position(w http.ResponseWriter, r *http.Request) {
	catnr, ok := catalogNumberParam(w, r)
	if !ok {
		return
	}
	observer, err := observerParams(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), service.KindValidation)
		return
	}

	set, pos, err := h.svc.ResolvePosition(r.Context(), catnr, observer)
	if err != nil {
		h.fail(w, r, "Failed to fetch satellite position", catnr, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, positionResponse{
		Info:      info{SatName: set.Name, SatID: set.CatalogNumber},
		Positions: []orbit.Position{pos},
	})
}

func (h *handlers) elementSet(w http.ResponseWriter, r *http.Request) {
	catnr, ok := catalogNumberParam(w, r)
	if !ok {
		return
	}

	set, err := h.svc.ElementSet(r.Context(), catnr)
	if err != nil {
		h.fail(w, r, "Failed to fetch TLE data", catnr, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, elementSetResponse{
		Info: info{SatName: set.Name, SatID: set.CatalogNumber},
		TLE:  set.Text(),
	})
}

func (h *handlers) satellites(w http.ResponseWriter, r *http.Request) {
	entries := nonNil(h.svc.ListSatellites(r.Context()))
	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Satellites: entries,
		Total:      len(entries),
		Source:     sourceName,
	})
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	res := h.svc.SearchSatellites(r.Context(), q)
	httputil.WriteJSON(w, http.StatusOK, searchResponse{
		Satellites: nonNil(res.Entries),
		Total:      res.Total,
		Query:      q,
	})
}

func (h *handlers) category(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	entries := nonNil(h.svc.SatellitesByCategory(r.Context(), category))
	httputil.WriteJSON(w, http.StatusOK, categoryResponse{
		Satellites: entries,
		Total:      len(entries),
		Category:   category,
	})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	hs := h.svc.Health()
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:            "ok",
		Name:              apiName,
		Version:           apiVersion,
		CatalogSize:       hs.CatalogSize,
		CachedElementSets: hs.CachedElementSets,
		Source:            sourceName,
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, http.StatusNotFound, "Not found", "")
}

// fail logs err and answers 500 with its kind. Positions are never
// fabricated on failure.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, msg string, catnr int, err error) {
	kind := service.ErrorKind(err)
	h.logger.Warn("request failed",
		"path", r.URL.Path,
		"catalog_number", catnr,
		"kind", kind,
		"request_id", observability.RequestIDFromContext(r.Context()),
		"error", err,
	)
	httputil.WriteError(w, http.StatusInternalServerError, msg, kind)
}

func catalogNumberParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("catnr")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		httputil.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid catalog number %q: must be a positive integer", raw), service.KindValidation)
		return 0, false
	}
	return n, true
}

func observerParams(r *http.Request) (orbit.Observer, error) {
	lat, err := finiteParam(r, "lat")
	if err != nil {
		return orbit.Observer{}, err
	}
	lng, err := finiteParam(r, "lng")
	if err != nil {
		return orbit.Observer{}, err
	}
	alt, err := finiteParam(r, "alt")
	if err != nil {
		return orbit.Observer{}, err
	}
	if lat < -90 || lat > 90 {
		return orbit.Observer{}, fmt.Errorf("latitude %v outside [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return orbit.Observer{}, fmt.Errorf("longitude %v outside [-180, 180]", lng)
	}
	return orbit.Observer{LatitudeDeg: lat, LongitudeDeg: lng, AltitudeMeters: alt}, nil
}

func finiteParam(r *http.Request, name string) (float64, error) {
	raw := r.PathValue(name)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q: must be a finite number", name, raw)
	}
	return v, nil
}

func nonNil(entries []catalog.Entry) []catalog.Entry {
	if entries == nil {
		return []catalog.Entry{}
	}
	return entries
}
