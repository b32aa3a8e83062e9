package errors

import "fmt"

var (
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrRoomNotFound       = fmt.Errorf("room not found")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Admission rejections for live connections.
	ErrUnauthenticated = fmt.Errorf("missing or invalid identity")
	ErrForbidden       = fmt.Errorf("not a member of this room")
	ErrBadRoomID       = fmt.Errorf("invalid chatroom id")

	ErrEmptyWordList = fmt.Errorf("no censored words have been found")

	// Session send failures.
	ErrSessionClosed  = fmt.Errorf("session closed")
	ErrSendBufferFull = fmt.Errorf("send buffer full")
)
