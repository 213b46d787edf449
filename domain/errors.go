package domain

import "errors"

var (
	ErrRoomNotFound      = errors.New("room-not-found")
	ErrRoomClosed        = errors.New("room-closed")
	ErrRoomFull          = errors.New("room-full")
	ErrDuplicateRoomCode = errors.New("duplicate-room-code")
	ErrImagesNotFound    = errors.New("images-not-found")
)

var UnexpectedDatabaseError = errors.New("database-error")
