package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Spok95/stock-ledger/internal/domain/errs"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeProblem(w http.ResponseWriter, status int, msg string, details any) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

// writeError переводит доменную ошибку в HTTP-статус:
// валидация -> 400, ссылка -> 404, всё остальное -> 500.
func writeError(w http.ResponseWriter, log *slog.Logger, r *http.Request, err error) {
	var (
		ve *errs.ValidationError
		re *errs.ReferenceError
	)
	switch {
	case errors.As(err, &ve):
		writeProblem(w, http.StatusBadRequest, "validation_failed", ve.Fields)
	case errors.As(err, &re):
		writeProblem(w, http.StatusNotFound, "not_found", map[string]any{"entity": re.Entity, "id": re.ID})
	default:
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeProblem(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.Invalid("decode body", errs.Violations{"body": "malformed_json"})
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Invalid("parse path", errs.Violations{"id": "invalid"})
	}
	return id, nil
}
