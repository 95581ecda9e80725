// internal/protocol/errors.go
package protocol

import "fmt"

// ServerError is a protocol-visible failure. Class 103 covers malformed
// input at the wire level, class 106 covers rejected commands. The wire
// payload is `<class>$<NAME>`, sent as `ERR:<class>$<NAME>`.
type ServerError struct {
	Class int
	Name  string
}

func (e ServerError) Error() string {
	return fmt.Sprintf("%d$%s", e.Class, e.Name)
}

// Line renders the full ERR reply line for this error.
func (e ServerError) Line() string {
	return Encode(CodeErr, e.Error())
}

var (
	ErrNullMessage       = ServerError{103, "NULL_MESSAGE_RECEIVED"}
	ErrUnknownCommand    = ServerError{103, "UNKNOWN_COMMAND"}
	ErrInvalidCommand    = ServerError{103, "INVALID_COMMAND"}
	ErrInvalidParameters = ServerError{106, "INVALID_PARAMETERS"}

	ErrPlayerAlreadyExists  = ServerError{106, "PLAYER_ALREADY_EXISTS"}
	ErrPlayerDoesNotExist   = ServerError{106, "PLAYER_DOES_NOT_EXIST"}
	ErrCannotWhisperToSelf  = ServerError{106, "CANNOT_WHISPER_TO_SELF"}
	ErrCannotStartGame      = ServerError{106, "CANNOT_START_GAME"}
	ErrNotInLobby           = ServerError{106, "NOT_IN_LOBBY"}
	ErrNotInGame            = ServerError{106, "NOT_IN_GAME"}
	ErrNotPlayerTurn        = ServerError{106, "NOT_PLAYER_TURN"}
	ErrJoinLobbyFailed      = ServerError{106, "JOIN_LOBBY_FAILED"}
	ErrLobbyCreationFailed  = ServerError{106, "LOBBY_CREATION_FAILED"}
	ErrGameCommandFailed    = ServerError{106, "GAME_COMMAND_FAILED"}
	ErrInsufficientFunds    = ServerError{106, "INSUFFICIENT_RESOURCES"}
	ErrInvalidTarget        = ServerError{106, "INVALID_TARGET"}
	ErrUnknownEntity        = ServerError{106, "UNKNOWN_ENTITY"}
	ErrCommandQueueFull     = ServerError{106, "COMMAND_QUEUE_FULL"}
	ErrGameAlreadyRunning   = ServerError{106, "GAME_ALREADY_RUNNING"}
	ErrInvalidReconnect     = ServerError{106, "INVALID_RECONNECT_TOKEN"}
)
