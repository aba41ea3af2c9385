// internal/game/errors.go
package game

import "errors"

// Rule violations. The message of each error is its kind and is safe to show to players.
var (
	ErrGameIsFull             = errors.New("GameIsFull")
	ErrGameFinished           = errors.New("GameFinished")
	ErrGameNotStarted         = errors.New("GameNotStarted")
	ErrNotEnoughPlayers       = errors.New("NotEnoughPlayers")
	ErrPlayerNotInGame        = errors.New("PlayerNotInGame")
	ErrPermissionDenied       = errors.New("PermissionDenied")
	ErrNotEnoughCards         = errors.New("NotEnoughCards")
	ErrCardNotInDeque         = errors.New("CardNotInDeque")
	ErrCardDoesNotExist       = errors.New("CardDoesNotExist")
	ErrCardIsNotOnTable       = errors.New("CardIsNotOnTable")
	ErrPlayerDoesNotHaveCard  = errors.New("PlayerDoesNotHaveCard")
	ErrPlayerHasAlreadyPlayed = errors.New("PlayerHasAlreadyPlayed")
)

// Lookup failures raised by the Service before the engine is reached.
var (
	ErrPlayerNotFound    = errors.New("PlayerNotFound")
	ErrGameNotFound      = errors.New("GameNotFound")
	ErrInvalidPlayerName = errors.New("InvalidPlayerName")
	ErrTooManyPlayerIDs  = errors.New("TooManyPlayerIds")
)

var ruleErrors = []error{
	ErrGameIsFull,
	ErrGameFinished,
	ErrGameNotStarted,
	ErrNotEnoughPlayers,
	ErrPlayerNotInGame,
	ErrPermissionDenied,
	ErrNotEnoughCards,
	ErrCardNotInDeque,
	ErrCardDoesNotExist,
	ErrCardIsNotOnTable,
	ErrPlayerDoesNotHaveCard,
	ErrPlayerHasAlreadyPlayed,
}

// IsRuleError reports whether err is (or wraps) one of the game rule violations.
func IsRuleError(err error) bool {
	for _, re := range ruleErrors {
		if errors.Is(err, re) {
			return true
		}
	}
	return false
}
