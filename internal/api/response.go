package api

import (
	"encoding/json"
	"net/http"

	perrors "github.com/agb-planner/planner/internal/errors"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Count   *int     `json:"count,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Code    string   `json:"code,omitempty"`
}

// JSONResponse writes a successful envelope around data.
func JSONResponse(w http.ResponseWriter, data any) {
	JSONResponseStatus(w, Envelope{Success: true, Data: data}, http.StatusOK)
}

// JSONList writes a successful envelope carrying a list and its length.
func JSONList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	JSONResponseStatus(w, Envelope{Success: true, Count: &n, Data: items}, http.StatusOK)
}

// JSONCreated writes a 201 envelope.
func JSONCreated(w http.ResponseWriter, message string, data any) {
	JSONResponseStatus(w, Envelope{Success: true, Message: message, Data: data}, http.StatusCreated)
}

// JSONMessage writes a successful envelope with only a message.
func JSONMessage(w http.ResponseWriter, message string) {
	JSONResponseStatus(w, Envelope{Success: true, Message: message}, http.StatusOK)
}

// JSONError writes a failed envelope.
func JSONError(w http.ResponseWriter, message string, status int) {
	JSONResponseStatus(w, Envelope{Success: false, Message: message}, status)
}

// JSONResponseStatus writes v as JSON with a specific status code.
func JSONResponseStatus(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// internalMessage replaces the text of errors that carry no user-facing
// description. The detail is left to the server log.
const internalMessage = "Internal server error"

// HandleError maps err to a status code and writes a failed envelope.
// Validation failures list every violated field in errors.
func HandleError(w http.ResponseWriter, err error) {
	pe := perrors.AsPlannerError(err)
	if pe == nil {
		JSONResponseStatus(w, Envelope{
			Success: false,
			Message: internalMessage,
			Code:    string(perrors.CodeInternal),
		}, http.StatusInternalServerError)
		return
	}
	JSONResponseStatus(w, Envelope{
		Success: false,
		Message: pe.What,
		Errors:  pe.FieldMessages(),
		Code:    string(pe.Code),
	}, statusOf(pe))
}

// statusOf is the error's HTTP status, except that an unavailable backend
// is reported as a plain server error.
func statusOf(err error) int {
	pe := perrors.AsPlannerError(err)
	if pe == nil || pe.Category() == perrors.CategoryUnavailable {
		return http.StatusInternalServerError
	}
	return pe.HTTPStatus()
}
