package httpapi

import (
	"encoding/json"
	"net/http"
)

type response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, code int, status bool, message string, data, errs any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response{
		Status:  status,
		Message: message,
		Data:    data,
		Errors:  errs,
	})
}

func respondSuccess(w http.ResponseWriter, message string, data any) {
	respondJSON(w, http.StatusOK, true, message, data, nil)
}

func respondBadRequest(w http.ResponseWriter, message string, errs any) {
	respondJSON(w, http.StatusBadRequest, false, message, nil, errs)
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusUnauthorized, false, message, nil, nil)
}

func respondNotFound(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusNotFound, false, message, nil, nil)
}

func respondTooManyRequests(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusTooManyRequests, false, message, nil, nil)
}

func respondInternalError(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusInternalServerError, false, message, nil, nil)
}
