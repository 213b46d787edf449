package game

import (
	"context"
	"time"

	"diffhunt/logger"
)

type lobby struct {
	rooms                map[string]Room
	pubRoomsDescriptions map[string]RoomDescription

	addAndRunRoomChan chan Room
	removeRoomChan    chan string
	closeRoomChan     chan string
	pubGamesReq       chan chan []RoomDescription
	roomDescUpdate    chan RoomDescription
	roomJoinReqs      chan RoomJoinRequest

	codeGenerator UniqueCodeGenerator
	tickerCreator PeriodicTickerChannelCreator
}

func NewLobby(codegen UniqueCodeGenerator, tickerCreator PeriodicTickerChannelCreator) *lobby {
	return &lobby{
		rooms:                map[string]Room{},
		pubRoomsDescriptions: map[string]RoomDescription{},
		addAndRunRoomChan:    make(chan Room, 32),
		removeRoomChan:       make(chan string, 32),
		closeRoomChan:        make(chan string, 32),
		pubGamesReq:          make(chan chan []RoomDescription, 256),
		roomDescUpdate:       make(chan RoomDescription, 256),
		roomJoinReqs:         make(chan RoomJoinRequest, 256),
		codeGenerator:        codegen,
		tickerCreator:        tickerCreator,
	}
}

func (l *lobby) RequestUpdateDescription(desc RoomDescription) {
	select {
	case l.roomDescUpdate <- desc:
	default:
	}
}

func (l *lobby) RequestAddAndRunRoom(ctx context.Context, r Room) {
	select {
	case l.addAndRunRoomChan <- r:
	case <-ctx.Done():
	}
}

func (l *lobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq RoomJoinRequest) {
	select {
	case <-ctx.Done():
	case l.roomJoinReqs <- jreq:
	}
}

func (l *lobby) RequestCloseRoom(ctx context.Context, roomCode string) {
	select {
	case l.closeRoomChan <- roomCode:
	case <-ctx.Done():
	}
}

func (l *lobby) RemoveRoom(roomCode string) {
	l.removeRoomChan <- roomCode
}

func (l *lobby) GetPublicGames(ctx context.Context) []RoomDescription {
	respChan := make(chan []RoomDescription, 1)
	select {
	case l.pubGamesReq <- respChan:
		select {
		case resp := <-respChan:
			return resp
		case <-ctx.Done():
			return nil
		}
	case <-ctx.Done():
		return nil
	}
}

func (l *lobby) LobbyActor(started chan struct{}) {
	ticker := l.tickerCreator.Create(time.Second)
	pingTicker := l.tickerCreator.Create(time.Second * 30)

	close(started)

	for {
		select {
		case now := <-ticker:
			for _, r := range l.rooms {
				r.Tick(now)
			}
		case <-pingTicker:
			for _, r := range l.rooms {
				r.PingPlayers()
			}

		case room := <-l.addAndRunRoomChan:
			l.handleAddAndRunRoom(room)

		case roomCode := <-l.removeRoomChan:
			l.handleRemoveRoom(roomCode)

		case roomCode := <-l.closeRoomChan:
			l.handleCloseRoom(roomCode)

		case desc := <-l.roomDescUpdate:
			if _, ok := l.rooms[desc.Code]; ok {
				l.pubRoomsDescriptions[desc.Code] = desc
			}

		case pubGamesReq := <-l.pubGamesReq:
			l.handleGetPublicRoomsDescription(pubGamesReq)

		case joinReq := <-l.roomJoinReqs:
			l.handleJoinReq(joinReq)
		}
	}
}

func (l *lobby) handleAddAndRunRoom(r Room) {
	r.SetParentLobby(l)
	l.rooms[r.Id()] = r

	rDesc := r.Description()
	go r.GameLoop()
	logger.Infof("[Lobby] room %s added and running", r.Id())
	if rDesc.Private {
		return
	}
	l.pubRoomsDescriptions[r.Id()] = rDesc
}

func (l *lobby) handleRemoveRoom(toRemoveCode string) {
	room, ok := l.rooms[toRemoveCode]
	if !ok {
		return
	}
	delete(l.rooms, toRemoveCode)
	delete(l.pubRoomsDescriptions, toRemoveCode)
	room.CloseAndRelease()
	l.codeGenerator.Dispose(toRemoveCode)
	logger.Infof("[Lobby] room %s removed", toRemoveCode)
}

// handleCloseRoom forwards an external close to the room. Closing a room
// that is not registered (already closed) is a no-op.
func (l *lobby) handleCloseRoom(roomCode string) {
	room, ok := l.rooms[roomCode]
	if !ok {
		return
	}
	room.RequestClose()
}

func (l *lobby) handleGetPublicRoomsDescription(req chan []RoomDescription) {
	descs := make([]RoomDescription, 0, len(l.pubRoomsDescriptions))
	for _, description := range l.pubRoomsDescriptions {
		descs = append(descs, description)
	}
	req <- descs
}

func (l *lobby) handleJoinReq(joinReq RoomJoinRequest) {
	room, ok := l.rooms[joinReq.roomCode]
	if !ok {
		joinReq.errChan <- ErrRoomNotFound
		return
	}
	room.RequestJoin(joinReq)
}
