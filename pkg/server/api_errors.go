package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	kterrors "github.com/matzehuels/kintree/pkg/errors"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// StatusFor maps an error code to an HTTP status: 400 for invalid input,
// 404 for missing trees and persons, 500 for everything else.
func StatusFor(err error) int {
	switch {
	case kterrors.IsInvalid(err):
		return http.StatusBadRequest
	case kterrors.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err in the error envelope. Uncoded and internal errors
// are logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	code := kterrors.GetCode(err)
	detail := kterrors.UserMessage(err)
	if code == "" || code == kterrors.ErrCodeInternal {
		s.logger.Error("request failed", "id", GetRequestID(r.Context()), "path", r.URL.Path, "error", err)
		code, detail = kterrors.ErrCodeInternal, "internal error"
	}
	WriteAPIError(w, status, string(code), detail)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
