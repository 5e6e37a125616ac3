package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"spot_explorer/internal/app"
	"spot_explorer/internal/domain"
)

type Handlers struct {
	Nearby *app.NearbyService
	Q      *app.QueryService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type audioGuideResponse struct {
	Name     string           `json:"name"`
	Language string           `json:"language"`
	Duration app.DurationTier `json:"duration"`
	Script   string           `json:"script"`
}

type encyclopediaResponse struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1/spots", func(r chi.Router) {
		r.Get("/nearby", h.nearby)
		r.Get("/profile", h.profile)
		r.Get("/audio-guide", h.audioGuide)
		r.Get("/encyclopedia", h.encyclopedia)
		r.Get("/{id}", h.spot)
	})
}

// selectLang picks the response language: the lang parameter, else
// Accept-Language, else English.
func selectLang(r *http.Request, param string) string {
	if param != "" {
		return domain.NormalizeLanguage(param)
	}
	al := strings.ToLower(r.Header.Get("Accept-Language"))
	if strings.HasPrefix(al, "ja") {
		return domain.LangJa
	}
	return domain.LangEn
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeProblem(w, http.StatusBadRequest, "Invalid query", validationDetail(err))
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

// writeJSON sends v with a weak ETag and answers 304 when the client has it.
func writeJSON(w http.ResponseWriter, r *http.Request, lang string, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	if lang != "" {
		w.Header().Set("Content-Language", lang)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func (h *Handlers) nearby(w http.ResponseWriter, r *http.Request) {
	p, err := parseNearby(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	lang := selectLang(r, p.Lang)
	out, err := h.Nearby.Nearby(r.Context(), domain.NearbyQuery{
		Lat:          *p.Lat,
		Lng:          *p.Lng,
		RadiusMeters: p.Radius,
		Language:     lang,
		Limit:        p.Limit,
	})
	if err != nil {
		log.Error().Err(err).Msg("nearby search failed")
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", "no spot source answered")
		return
	}
	writeJSON(w, r, lang, out)
}

func (p profileParams) query(r *http.Request) app.ProfileQuery {
	q := app.ProfileQuery{Name: p.Name, Lang: selectLang(r, p.Lang)}
	if p.Lat != nil && p.Lng != nil {
		q.Coords = &domain.LatLng{Lat: *p.Lat, Lng: *p.Lng}
	}
	return q
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	p, err := parseProfile(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	q := p.query(r)
	resp, err := h.Q.GetProfile(r.Context(), q)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	writeJSON(w, r, resp.Language, resp)
}

func (h *Handlers) audioGuide(w http.ResponseWriter, r *http.Request) {
	p, err := parseProfile(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	tier, err := app.ParseDurationTier(p.Duration)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	q := p.query(r)
	script, err := h.Q.AudioGuide(r.Context(), q, tier)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	writeJSON(w, r, q.Lang, audioGuideResponse{Name: q.Name, Language: q.Lang, Duration: tier, Script: script})
}

func (h *Handlers) encyclopedia(w http.ResponseWriter, r *http.Request) {
	p, err := parseProfile(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	lang := selectLang(r, p.Lang)
	text, ok := h.Q.EncyclopediaText(r.Context(), p.Name, lang)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "no encyclopedia article for "+p.Name)
		return
	}
	writeJSON(w, r, lang, encyclopediaResponse{Name: p.Name, Language: lang, Text: text})
}

func (h *Handlers) spot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.Nearby.Spot(r.Context(), id, selectLang(r, r.URL.Query().Get("lang")))
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "spot not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("get spot failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	writeJSON(w, r, "", s)
}
