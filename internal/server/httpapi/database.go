package httpapi

import (
	"net/http"
	"strconv"
)

// Handlers for the database-browser tab: raw table listing, schemas,
// paginated rows and per-record repair edits.

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.database.Tables(r.Context())
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) handleTableSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.database.Schema(r.Context(), r.PathValue("table"))
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schema": schema})
}

func (s *Server) handleTableData(w http.ResponseWriter, r *http.Request) {
	page := intQueryParam(r, "page", 1)
	limit := intQueryParam(r, "limit", 10)

	rows, total, err := s.database.Rows(r.Context(), r.PathValue("table"), page, limit)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": rows,
		"pagination": map[string]any{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": (total + limit - 1) / limit,
		},
	})
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var updates map[string]any
	if err := decodeJSON(r, &updates); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := s.database.UpdateRecord(r.Context(),
		r.PathValue("table"), r.PathValue("id"), updates)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": record})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	err := s.database.DeleteRecord(r.Context(), r.PathValue("table"), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func intQueryParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
