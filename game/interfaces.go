package game

import (
	"context"
	"time"

	"diffhunt/domain"
)

// NetworkConnection is the transport handle for one client connection.
// The real implementation wraps a gorilla websocket; tests mock it.
type NetworkConnection interface {
	Close()
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// Player is the connection-side actor. Identity (id/nickname/avatar) is
// stable across reconnects; the actor itself is replaced per connection.
type Player interface {
	ID() string
	Nickname() string
	Avatar() string
	Send(data []byte) error
	Ping() error
	SetRoom(r Room)
	CancelAndRelease()
}

// Room is the per-session actor. Everything it exposes is a channel send;
// all state mutation happens inside GameLoop.
type Room interface {
	Id() string
	Send(ctx context.Context, e ClientPacketEnvelope)
	RequestJoin(jreq RoomJoinRequest)
	RemoveMe(ctx context.Context, p Player)
	RequestClose()
	Tick(now time.Time)
	PingPlayers()
	GameLoop()
	CloseAndRelease()
	Description() RoomDescription
	SetParentLobby(l Lobby)
}

type Lobby interface {
	RequestAddAndRunRoom(ctx context.Context, r Room)
	ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq RoomJoinRequest)
	RequestCloseRoom(ctx context.Context, roomCode string)
	RequestUpdateDescription(desc RoomDescription)
	RemoveRoom(roomCode string)
	GetPublicGames(ctx context.Context) []RoomDescription
}

type UniqueCodeGenerator interface {
	Generate() string
	Dispose(code string)
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

// RoomStore is the persistence collaborator. Writes are best effort: the
// in-memory room never blocks on them and never rolls back when they fail.
type RoomStore interface {
	InsertRoom(ctx context.Context, rec domain.RoomRecord) error
	GetRoomByCode(ctx context.Context, code string) (domain.RoomRecord, error)
	UpdateRoom(ctx context.Context, code string, patch domain.RoomPatch) error
	DeleteRoom(ctx context.Context, id string) error
	UpsertPlayer(ctx context.Context, rec domain.PlayerRecord) error
	DeletePlayers(ctx context.Context, roomID string) error
}

type ImageStore interface {
	SelectImages(ctx context.Context, ids []string) ([]domain.Image, error)
}
