// internal/handlers/game.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cah/internal/game"
)

// CreateGameHandler seats the caller as host of a new game and answers its id.
func CreateGameHandler(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := svc.CreateGame(r.Context(), tokenFromRequest(r))
		result := actionResult{}
		if err == nil {
			result.GameID = id.String()
		}
		writeAction(w, r, err, result)
	}
}

// GetGameHandler answers the game snapshot as seen by the caller.
func GetGameHandler(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, r, game.ErrGameNotFound)
			return
		}
		view, err := svc.GetGame(r.Context(), id, tokenFromRequest(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func JoinGameHandler(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			writeAction(w, r, game.ErrGameNotFound, actionResult{})
			return
		}
		writeAction(w, r, svc.JoinGame(r.Context(), tokenFromRequest(r), id), actionResult{})
	}
}

func StartGameHandler(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeAction(w, r, svc.StartGame(r.Context(), tokenFromRequest(r)), actionResult{})
	}
}

// PlayCardHandler plays a white card, or judges one when the caller is the czar.
func PlayCardHandler(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			writeAction(w, r, game.ErrCardDoesNotExist, actionResult{})
			return
		}
		writeAction(w, r, svc.PlayCard(r.Context(), tokenFromRequest(r), id), actionResult{})
	}
}

func LeaveGameHandler(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeAction(w, r, svc.LeaveGame(r.Context(), tokenFromRequest(r)), actionResult{})
	}
}
