// internal/handlers/player.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cah/internal/game"
)

// CreatePlayerHandler registers a player and answers with their credential as plain text.
func CreatePlayerHandler(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := svc.CreatePlayer(r.Context(), r.URL.Query().Get("name"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     tokenCookie,
			Value:    token,
			HttpOnly: true,
			Path:     "/",
		})
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(token))
	}
}

// GetPlayersHandler answers the public views of a comma separated list of player ids.
func GetPlayersHandler(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ids []uuid.UUID
		for _, raw := range strings.Split(r.URL.Query().Get("ids"), ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "InvalidPlayerId", http.StatusBadRequest)
				return
			}
			ids = append(ids, id)
		}

		views, err := svc.GetPlayers(r.Context(), ids)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// GetMeHandler answers the caller's own view, hand included.
func GetMeHandler(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.GetPlayer(r.Context(), tokenFromRequest(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
