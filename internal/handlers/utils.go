// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jason-s-yu/cah/internal/game"
	"github.com/sirupsen/logrus"
)

const (
	tokenParam  = "authToken"
	tokenCookie = "auth_token"

	internalErrorMessage = "InternalError"
)

// tokenFromRequest reads the player credential from the query string, falling back to the
// auth_token cookie.
func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get(tokenParam); token != "" {
		return token
	}
	if c, err := r.Cookie(tokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to write response")
	}
}

// actionResult is the body of every action route.
type actionResult struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	GameID       string `json:"gameId,omitempty"`
}

// statusFor maps an error to an HTTP status and a message that is safe to show. Rule
// violations and lookup failures carry their kind; everything else is opaque.
func statusFor(err error) (int, string) {
	switch {
	case game.IsRuleError(err),
		errors.Is(err, game.ErrInvalidPlayerName),
		errors.Is(err, game.ErrTooManyPlayerIDs):
		return http.StatusBadRequest, rootMessage(err)
	case errors.Is(err, game.ErrPlayerNotFound):
		return http.StatusNotFound, game.ErrPlayerNotFound.Error()
	case errors.Is(err, game.ErrGameNotFound):
		return http.StatusNotFound, game.ErrGameNotFound.Error()
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

// rootMessage returns the kind of a known error even when it is wrapped.
func rootMessage(err error) string {
	for _, known := range []error{game.ErrInvalidPlayerName, game.ErrTooManyPlayerIDs} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if game.IsRuleError(e) && errors.Unwrap(e) == nil {
			return e.Error()
		}
	}
	return err.Error()
}

// writeError answers a query route.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	http.Error(w, msg, status)
}

// writeAction answers an action route. Rule violations are a normal outcome and keep status 200.
func writeAction(w http.ResponseWriter, r *http.Request, err error, result actionResult) {
	if err == nil {
		result.Success = true
		writeJSON(w, http.StatusOK, result)
		return
	}
	status, msg := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		logrus.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	case http.StatusBadRequest:
		status = http.StatusOK
	}
	writeJSON(w, status, actionResult{ErrorMessage: msg})
}
