package game

import "errors"

// Command failure taxonomy. Controllers map these onto HTTP status
// codes; socket handlers emit them as error events. Guard failures are
// rejected outright, never retried.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid room state")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRoomFull     = errors.New("room is full")
)
