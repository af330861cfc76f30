package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"price-tracker/internal/domain"
	"price-tracker/internal/infrastructure/config"
	"price-tracker/internal/infrastructure/filestore"
	"price-tracker/internal/infrastructure/logx"
)

// Server answers from the files the tracker writes; it never scrapes.
type Server struct {
	snapshotPath string
	historyPath  string
}

func NewServer(snapshotPath, historyPath string) *Server {
	return &Server{snapshotPath: snapshotPath, historyPath: historyPath}
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type historyResponse struct {
	Site  domain.SiteID          `json:"site,omitempty"`
	Count int                    `json:"count"`
	Rows  []filestore.HistoryRow `json:"rows"`
}

func (s *Server) ready() error {
	_, err := filestore.ReadSnapshot(s.snapshotPath)
	return err
}

func (s *Server) GetPrices(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadSnapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) GetSitePrice(w http.ResponseWriter, r *http.Request) {
	site, err := domain.ParseSiteID(chi.URLParam(r, "site"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, ok := s.loadSnapshot(w)
	if !ok {
		return
	}
	entry, found := doc.Prices[site]
	if !found {
		writeError(w, http.StatusNotFound, "no reading for site "+string(site))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var site domain.SiteID
	if v := q.Get("site"); v != "" {
		parsed, err := domain.ParseSiteID(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		site = parsed
	}

	limit := config.DefaultHistoryLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > config.MaxHistoryLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(config.MaxHistoryLimit))
			return
		}
		limit = n
	}

	rows, err := filestore.ReadHistory(s.historyPath, site, limit)
	if err != nil {
		logx.L().Error("history read failed", zap.Error(err))
		internalError(w)
		return
	}
	if rows == nil {
		rows = []filestore.HistoryRow{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Site: site, Count: len(rows), Rows: rows})
}

func (s *Server) loadSnapshot(w http.ResponseWriter) (filestore.Snapshot, bool) {
	doc, err := filestore.ReadSnapshot(s.snapshotPath)
	if errors.Is(err, filestore.ErrNoSnapshot) {
		writeError(w, http.StatusNotFound, "no snapshot yet")
		return filestore.Snapshot{}, false
	}
	if err != nil {
		logx.L().Error("snapshot read failed", zap.Error(err))
		internalError(w)
		return filestore.Snapshot{}, false
	}
	return doc, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
