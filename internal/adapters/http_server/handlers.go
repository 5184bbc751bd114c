package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"island_catalog/internal/app"
	"island_catalog/internal/domain"
)

type Handlers struct{ C *app.Catalog }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/v1/locations", h.listLocations)

	s.mux.Get("/v1/hotels", h.listHotels)
	s.mux.Get("/v1/hotels/{id}", h.getHotel)

	s.mux.Get("/v1/excursions/private", h.listPrivateExcursions)
	s.mux.Get("/v1/excursions/group", h.listGroupExcursions)
	s.mux.Get("/v1/excursions/companions", h.listCompanions)
	s.mux.Get("/v1/excursions/companions/{event_id}", h.getCompanion)
	s.mux.Get("/v1/excursions/islands", h.listIslands)
	s.mux.Get("/v1/excursions/{id}", h.getExcursion)

	s.mux.Get("/v1/transfers", h.listTransfers)
	s.mux.Get("/v1/transfers/{id}", h.getTransfer)

	s.mux.Get("/v1/packages", h.listPackages)
	s.mux.Get("/v1/packages/{id}", h.getPackage)

	s.mux.Get("/v1/search", h.search)

	s.mux.Get("/v1/cache/stats", h.cacheStats)
	s.mux.Delete("/v1/cache", h.purgeCache)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal", "response marshalling failed")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func intQ(r *http.Request, name string, def int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func int64Param(r *http.Request, name string) (int64, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return n, err == nil && n > 0
}

func (h *Handlers) listLocations(w http.ResponseWriter, r *http.Request) {
	locs, _ := h.C.Locations(r.Context())
	if locs == nil {
		locs = []domain.Location{}
	}
	writeJSON(w, r, locs)
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := q.Get("location")
	stars, ok1 := intQ(r, "stars", 0)
	page, ok2 := intQ(r, "page", 0)
	perPage, ok3 := intQ(r, "per_page", 10)
	if !ok1 || !ok2 || !ok3 {
		writeProblem(w, http.StatusBadRequest, "Invalid query", "stars, page and per_page must be integers")
		return
	}
	checkIn, checkOut := q.Get("check_in"), q.Get("check_out")

	out := h.C.ListHotels(r.Context(), location, stars, page, perPage, checkIn, checkOut)

	// warm the page the user is most likely to flip to
	if page+1 < out.TotalPages {
		h.C.PreloadHotels(location, stars, page+1, perPage, checkIn, checkOut)
	}
	writeJSON(w, r, out)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	q := r.URL.Query()
	vm, err := h.C.HotelDetail(r.Context(), id, q.Get("location"), q.Get("check_in"), q.Get("check_out"))
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	writeJSON(w, r, vm)
}

func (h *Handlers) listPrivateExcursions(w http.ResponseWriter, r *http.Request) {
	if s := r.URL.Query().Get("location_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid query", "location_id must be a positive number")
			return
		}
		writeJSON(w, r, h.C.PrivateExcursionsByIsland(r.Context(), id))
		return
	}
	writeJSON(w, r, h.C.AllPrivateExcursions(r.Context()))
}

func (h *Handlers) listGroupExcursions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := q.Get("location")
	if location == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid query", "location is required")
		return
	}
	date := time.Now()
	if s := q.Get("date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid query", "date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	writeJSON(w, r, h.C.GroupExcursions(r.Context(), location, date))
}

func companionQuery(r *http.Request) (int64, int, time.Month, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, 0, false
	}
	now := time.Now()
	year, ok1 := intQ(r, "year", now.Year())
	month, ok2 := intQ(r, "month", int(now.Month()))
	if !ok1 || !ok2 || month < 1 || month > 12 {
		return 0, 0, 0, false
	}
	return id, year, time.Month(month), true
}

func (h *Handlers) listCompanions(w http.ResponseWriter, r *http.Request) {
	id, year, month, ok := companionQuery(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid query", "location_id, year and month must be valid")
		return
	}
	writeJSON(w, r, h.C.CompanionsByMonth(r.Context(), id, year, month))
}

func (h *Handlers) getCompanion(w http.ResponseWriter, r *http.Request) {
	eventID, ok := int64Param(r, "event_id")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "event_id must be a positive number")
		return
	}
	id, year, month, ok := companionQuery(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid query", "location_id, year and month must be valid")
		return
	}
	vm, err := h.C.CompanionByID(r.Context(), id, year, month, eventID)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "companion event not found")
		return
	}
	writeJSON(w, r, vm)
}

func (h *Handlers) listIslands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.C.IslandsWithCount(r.Context()))
}

func (h *Handlers) getExcursion(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	vm, err := h.C.ExcursionByID(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "excursion not found")
		return
	}
	writeJSON(w, r, vm)
}

func (h *Handlers) listTransfers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.C.Transfers(r.Context(), r.URL.Query().Get("island")))
}

func (h *Handlers) getTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	vm, err := h.C.TransferWithPrices(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "transfer not found")
		return
	}
	writeJSON(w, r, vm)
}

func (h *Handlers) listPackages(w http.ResponseWriter, r *http.Request) {
	target := time.Now()
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid query", "date must be YYYY-MM-DD")
			return
		}
		target = d
	}
	writeJSON(w, r, h.C.PackagesNear(r.Context(), target))
}

func (h *Handlers) getPackage(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	vm, err := h.C.PackageByID(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "package not found")
		return
	}
	writeJSON(w, r, vm)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid query", "q is required")
		return
	}
	limit, ok := intQ(r, "limit", 20)
	if !ok || limit < 0 || limit > 100 {
		writeProblem(w, http.StatusBadRequest, "Invalid query", "limit must be an integer between 0 and 100")
		return
	}
	writeJSON(w, r, h.C.Search(r.Context(), q, r.URL.Query().Get("scope"), limit))
}

func (h *Handlers) cacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.C.CacheStats(r.Context()))
}

func (h *Handlers) purgeCache(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}
	purged := h.C.Purge(r.Context(), pattern)
	writeJSON(w, r, map[string]any{"pattern": pattern, "purged": purged})
}
