package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
)

// APIError is the standard error response format.
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSONResponse writes a successful JSON response.
func JSONResponse(w http.ResponseWriter, data any) {
	JSONResponseStatus(w, data, http.StatusOK)
}

// JSONResponseStatus writes a JSON response with a specific status code.
func JSONResponseStatus(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// JSONError writes a simple error response.
func JSONError(w http.ResponseWriter, message string, status int) {
	JSONResponseStatus(w, APIError{Error: message}, status)
}

// HandleError inspects the error type and writes the matching response.
// TrackrErrors map to their category status; anything else is a 500.
func HandleError(w http.ResponseWriter, err error) {
	var te *trackrerrors.TrackrError
	if errors.As(err, &te) {
		msg := te.What
		if te.Why != "" {
			msg += ": " + te.Why
		}
		JSONResponseStatus(w, APIError{Error: msg, Code: string(te.Code)}, te.HTTPStatus())
		return
	}
	JSONError(w, err.Error(), http.StatusInternalServerError)
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return trackrerrors.ErrInvalidInput("body", fmt.Sprintf("malformed JSON: %v", err))
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, trackrerrors.ErrInvalidInput("id", fmt.Sprintf("%q is not a valid id", raw))
	}
	return id, nil
}

// queryInt64 parses an optional positive integer query parameter; absent is 0.
func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, trackrerrors.ErrInvalidInput(name, fmt.Sprintf("%q is not a valid id", raw))
	}
	return v, nil
}

// requireQueryID is queryInt64 for parameters that must be present.
func requireQueryID(r *http.Request, name string) (int64, error) {
	v, err := queryInt64(r, name)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, trackrerrors.ErrRequired(name)
	}
	return v, nil
}
