package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON object from the body into dst. Fields absent
// from the body keep the value dst already holds, which is how PATCH
// applies a partial update onto the loaded entity.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		case errors.Is(err, core.ErrValidation):
			return err
		default:
			return badRequest(fmt.Sprintf("malformed JSON: %v", err))
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", log.FieldError, err)
	}
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, badRequest(fmt.Sprintf("query parameter %s must be an integer", name))
	}
	return n, true, nil
}

// yearMonth reads ?year&month, defaulting each to the current one.
func yearMonth(r *http.Request, now time.Time) (int, int, error) {
	year, ok, err := queryInt(r, "year")
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		year = now.Year()
	}
	month, ok, err := queryInt(r, "month")
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		month = int(now.Month())
	}
	return year, month, nil
}

// monthFilter reads an optional ?year&month listing filter; both or neither
// must be given.
func monthFilter(r *http.Request) (storage.MonthFilter, error) {
	year, hasYear, err := queryInt(r, "year")
	if err != nil {
		return storage.MonthFilter{}, err
	}
	month, hasMonth, err := queryInt(r, "month")
	if err != nil {
		return storage.MonthFilter{}, err
	}
	if hasYear != hasMonth {
		return storage.MonthFilter{}, badRequest("year and month must be given together")
	}
	if !hasYear {
		return storage.MonthFilter{}, nil
	}
	if err := core.ValidateMonth(year, month); err != nil {
		return storage.MonthFilter{}, err
	}
	return storage.MonthFilter{Year: year, Month: month}, nil
}

func categoryKind(r *http.Request) (core.CategoryKind, error) {
	switch r.PathValue("kind") {
	case "expenses":
		return core.KindExpense, nil
	case "incomes":
		return core.KindIncome, nil
	default:
		return "", errNotFoundRoute
	}
}
