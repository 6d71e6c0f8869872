package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// Handshake
	ErrUnauthenticated   = fmt.Errorf("credential is missing")
	ErrInvalidCredential = fmt.Errorf("credential is malformed or expired")

	// Relay
	ErrUnauthorizedRoom       = fmt.Errorf("unauthorized room")
	ErrPersistenceFailure     = fmt.Errorf("message could not be persisted")
	ErrExternalServiceFailure = fmt.Errorf("external service failure")
	ErrReactorStopped         = fmt.Errorf("reactor is stopped")
	ErrSlowConnection         = fmt.Errorf("connection too slow to receive events")
	ErrConnectionClosed       = fmt.Errorf("connection is closed")

	// Wire
	ErrUnknownEvent   = fmt.Errorf("unknown event")
	ErrMalformedFrame = fmt.Errorf("malformed frame")

	// Accounts
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrUserAlreadyExists  = fmt.Errorf("username already taken")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet the requirements")
	ErrInvalidUsername    = fmt.Errorf("username does not meet the requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
