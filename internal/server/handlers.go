package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/cachekit/internal/cache"
	"github.com/example/cachekit/internal/cacheerr"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	cacheerr.WriteJSON(w, err, RequestIDFrom(r.Context()))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, cacheerr.Wrap(err, cacheerr.KindInvalidArgument, "invalid request body"))
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"store":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type filterCreateRequest struct {
	ErrorRate  float64 `json:"error_rate"`
	Capacity   int64   `json:"capacity"`
	TTLSeconds int64   `json:"ttl_seconds"`
}

func (s *Server) handleFilterCreate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req filterCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ErrorRate == 0 {
		req.ErrorRate = s.cfg.DefaultErrorRate
	}
	if req.Capacity == 0 {
		req.Capacity = s.cfg.DefaultCapacity
	}
	name := ps.ByName("name")

	err := s.filters.Create(r.Context(), name, req.ErrorRate, req.Capacity,
		time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

type filterItemsRequest struct {
	Items      []string `json:"items"`
	TTLSeconds int64    `json:"ttl_seconds"`
}

type filterResultsResponse struct {
	Results []bool `json:"results"`
}

func (s *Server) handleFilterAdd(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req filterItemsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := ps.ByName("name")

	results, err := s.filters.AddMany(r.Context(), name, req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.TTLSeconds > 0 {
		if err := s.filters.ExpireFilter(r.Context(), name, time.Duration(req.TTLSeconds)*time.Second); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, filterResultsResponse{Results: results})
}

func (s *Server) handleFilterCheck(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req filterItemsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	results, err := s.filters.CheckMany(r.Context(), ps.ByName("name"), req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filterResultsResponse{Results: results})
}

type cacheSetRequest struct {
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value"`
	TTLSeconds int64           `json:"ttl_seconds"`
}

func (s *Server) handleCacheSet(w http.ResponseWriter, r *http.Request) {
	var req cacheSetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var err error
	if req.TTLSeconds > 0 {
		err = s.cache.SetWithTTL(r.Context(), req.Key, []byte(req.Value),
			time.Duration(req.TTLSeconds)*time.Second)
	} else {
		// No TTL given: fall back to the sliding-window policy.
		err = s.cache.SetSliding(r.Context(), req.Key, []byte(req.Value))
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": req.Key})
}

type cacheBatchRequest struct {
	Entries []cacheSetRequest `json:"entries"`
}

func (s *Server) handleCacheBatch(w http.ResponseWriter, r *http.Request) {
	var req cacheBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entries := make([]cache.Entry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = cache.Entry{
			Key:   e.Key,
			Value: []byte(e.Value),
			TTL:   time.Duration(e.TTLSeconds) * time.Second,
		}
	}
	if err := s.cache.SetBatch(r.Context(), entries); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"written": len(entries)})
}

type cacheGetResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleCacheGet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	key := ps.ByName("key")
	if key == "stats" {
		writeJSON(w, http.StatusOK, s.stats.Report(r.Context()))
		return
	}

	var refresh time.Duration
	if raw := r.URL.Query().Get("refreshTTL"); raw != "" {
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || secs < 0 {
			writeError(w, r, cacheerr.Newf(cacheerr.KindInvalidArgument, "invalid refreshTTL %q", raw))
			return
		}
		refresh = time.Duration(secs) * time.Second
	}

	value, found, err := s.cache.GetWithRefresh(r.Context(), key, refresh)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, cacheerr.Newf(cacheerr.KindNotFound, "key %q not found", key))
		return
	}

	body := cacheGetResponse{Key: key}
	if json.Valid(value) {
		body.Value = value
	} else {
		quoted, _ := json.Marshal(string(value))
		body.Value = quoted
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleCacheDeletePattern(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	deleted, err := s.cache.DeletePattern(r.Context(), ps.ByName("pattern"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
