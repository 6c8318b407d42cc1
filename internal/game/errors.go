package game

import (
	"errors"
)

var (
	ErrNotInRoom              = errors.New("not in a room")
	ErrInvalidTransition      = errors.New("invalid phase for action")
	ErrNotAuthorized          = errors.New("not authorized")
	ErrInvalidTarget          = errors.New("invalid target")
	ErrAlreadyActed           = errors.New("already acted this phase")
	ErrRoomFull               = errors.New("room is full")
	ErrNameTaken              = errors.New("name already taken")
	ErrInvalidName            = errors.New("invalid name")
	ErrInvalidRoomCode        = errors.New("invalid room code")
	ErrRoomNotFound           = errors.New("room not found")
	ErrGameAlreadyStarted     = errors.New("game already started")
	ErrInsufficientPlayers    = errors.New("not enough players")
	ErrSessionExpired         = errors.New("session expired")
	ErrInvalidConfiguration   = errors.New("invalid role configuration")
	ErrRoomClosed             = errors.New("room closed")
	ErrAlreadyInRoom          = errors.New("already in this room")
	errDuplicateRoomCode      = errors.New("duplicate room code")
	errRoomCodeSpaceExhausted = errors.New("could not generate unique room code")
)

// ErrorCode maps an error to the code sent to clients alongside the message.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInRoom):
		return "not_in_room"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, ErrAlreadyActed):
		return "already_acted"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrNameTaken):
		return "name_taken"
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, ErrInvalidRoomCode):
		return "invalid_room_code"
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrRoomClosed):
		return "room_not_found"
	case errors.Is(err, ErrGameAlreadyStarted):
		return "game_already_started"
	case errors.Is(err, ErrInsufficientPlayers):
		return "insufficient_players"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, ErrAlreadyInRoom):
		return "already_in_room"
	}
	return "internal"
}
