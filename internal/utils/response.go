package utils

import (
	"encoding/json"
	"net/http"
)

// Every endpoint answers either a resource envelope (e.g. {"guest": ...}) or
// {"error": "..."} with a non-2xx status.

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// Pagination is the list-endpoint envelope: page is 1-based.
type Pagination struct {
	Page       int `json:"page"`
	PageCount  int `json:"pageCount"`
	TotalCount int `json:"totalCount"`
}

func NewPagination(page, limit, totalCount int) Pagination {
	pageCount := 0
	if limit > 0 {
		pageCount = (totalCount + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		PageCount:  pageCount,
		TotalCount: totalCount,
	}
}
