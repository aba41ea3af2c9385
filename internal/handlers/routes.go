// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/cah/internal/game"
	"github.com/jason-s-yu/cah/internal/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the mux serving every player and game route, wrapped in request logging.
func NewRouter(svc *game.Service, logger *logrus.Logger) http.Handler {
	mux := http.NewServeMux()

	// player endpoints
	mux.HandleFunc("/players/add", CreatePlayerHandler(svc))
	mux.HandleFunc("/players/getByIds", GetPlayersHandler(svc))
	mux.HandleFunc("/players/getMe", GetMeHandler(svc))

	// game endpoints
	mux.HandleFunc("/games/create", CreateGameHandler(svc))
	mux.HandleFunc("/games/get", GetGameHandler(svc))
	mux.HandleFunc("/games/join", JoinGameHandler(svc))
	mux.HandleFunc("/games/start", StartGameHandler(svc))
	mux.HandleFunc("/games/playCard", PlayCardHandler(svc))
	mux.HandleFunc("/games/leave", LeaveGameHandler(svc))

	return middleware.LogMiddleware(logger)(mux)
}
