package game

import "diffhunt/domain"

var (
	ErrRoomNotFound = domain.ErrRoomNotFound
	ErrRoomFull     = domain.ErrRoomFull
	ErrRoomClosed   = domain.ErrRoomClosed
)
