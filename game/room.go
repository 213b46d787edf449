package game

import (
	"context"
	"sync"
	"time"

	"diffhunt/domain"
	"diffhunt/logger"
)

type roomStatus int

const (
	STATUS_LOBBY roomStatus = iota
	STATUS_PLAYING
	STATUS_FINISHED
	STATUS_CLOSED
)

func (s roomStatus) label() domain.RoomStatus {
	switch s {
	case STATUS_LOBBY:
		return domain.StatusLobby
	case STATUS_PLAYING:
		return domain.StatusPlaying
	case STATUS_FINISHED:
		return domain.StatusFinished
	default:
		return domain.StatusClosed
	}
}

const pointsPerDifference = 10

type RoomSettings struct {
	TimerPerImage time.Duration
	MaxPlayers    int
}

type RoomDescription struct {
	Code         string `json:"code"`
	PlayersCount int    `json:"playersCount"`
	MaxPlayers   int    `json:"maxPlayers"`
	Started      bool   `json:"started"`
	Private      bool   `json:"-"`
}

type RoomJoinRequest struct {
	roomCode string
	player   Player
	errChan  chan error
}

func NewRoomJoinRequest(roomCode string, player Player) RoomJoinRequest {
	return RoomJoinRequest{roomCode: roomCode, player: player, errChan: make(chan error, 1)}
}

// playerState is the room-owned seat of one player. It survives the
// connection: on disconnect conn goes nil and online false, score stays.
type playerState struct {
	id       string
	nickname string
	avatar   string
	score    int
	online   bool
	conn     Player
}

type dataSendTask struct {
	to   Player
	data []byte
}

type pingSendTask struct {
	to Player
}

type closeReason int

const (
	closedExternally closeReason = iota
	closedAfterIdle
)

// room is the session actor: the single authority for its roster, ledger,
// image index and progression deadline. All mutation goes through GameLoop.
type room struct {
	id       string // room code
	recordID string // durable id
	private  bool

	status            roomStatus
	images            []domain.Image
	currentImageIndex int
	timerPerImage     time.Duration
	maxPlayers        int

	// Progression deadline. Zero means disarmed; arming overwrites, so at
	// most one live deadline exists per room.
	nextAdvance time.Time

	playerStates []*playerState
	ledger       *differenceLedger

	parentLobby Lobby
	store       RoomStore

	dataSendTasks []dataSendTask
	pingSendTasks []pingSendTask

	inbox       chan ClientPacketEnvelope
	ticks       chan time.Time
	pingPlayers chan struct{}
	joinReqs    chan RoomJoinRequest
	removeMe    chan Player
	closeReqs   chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

func NewRoom(code, recordID string, images []domain.Image, settings RoomSettings, private bool, store RoomStore) *room {
	return &room{
		id:            code,
		recordID:      recordID,
		private:       private,
		status:        STATUS_LOBBY,
		images:        images,
		timerPerImage: settings.TimerPerImage,
		maxPlayers:    settings.MaxPlayers,
		playerStates:  make([]*playerState, 0, settings.MaxPlayers),
		ledger:        newDifferenceLedger(),
		store:         store,
		dataSendTasks: make([]dataSendTask, 0),
		pingSendTasks: make([]pingSendTask, 0),
		inbox:         make(chan ClientPacketEnvelope, 1024),
		ticks:         make(chan time.Time, 24),
		pingPlayers:   make(chan struct{}, 4),
		joinReqs:      make(chan RoomJoinRequest),
		removeMe:      make(chan Player, 64),
		closeReqs:     make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
}

func (r *room) Id() string { return r.id }

func (r *room) SetParentLobby(l Lobby) { r.parentLobby = l }

func (r *room) Description() RoomDescription {
	return RoomDescription{
		Code:         r.id,
		PlayersCount: len(r.playerStates),
		MaxPlayers:   r.maxPlayers,
		Started:      r.status != STATUS_LOBBY,
		Private:      r.private,
	}
}

func (r *room) Send(ctx context.Context, e ClientPacketEnvelope) {
	select {
	case r.inbox <- e:
	case <-ctx.Done():
	case <-r.done:
	}
}

func (r *room) RequestJoin(jreq RoomJoinRequest) {
	select {
	case r.joinReqs <- jreq:
	case <-r.done:
		jreq.errChan <- ErrRoomClosed
	}
}

func (r *room) RemoveMe(ctx context.Context, p Player) {
	select {
	case r.removeMe <- p:
	case <-ctx.Done():
	case <-r.done:
	}
}

func (r *room) RequestClose() {
	select {
	case r.closeReqs <- struct{}{}:
	default:
	}
}

func (r *room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

func (r *room) PingPlayers() {
	select {
	case r.pingPlayers <- struct{}{}:
	default:
	}
}

// GameLoop serializes every mutation of this room. It is the only
// goroutine that touches room state after construction.
func (r *room) GameLoop() {
	for {
		select {
		case <-r.done:
			return
		case e, ok := <-r.inbox:
			if !ok {
				return
			}
			r.handlePacketEnvelope(e)
		case now, ok := <-r.ticks:
			if !ok {
				return
			}
			r.handleTick(now)
		case _, ok := <-r.pingPlayers:
			if !ok {
				return
			}
			r.handlePingPlayers()
		case jreq := <-r.joinReqs:
			r.handleJoinRequest(jreq)
		case p := <-r.removeMe:
			r.handleRemovePlayer(p)
		case <-r.closeReqs:
			r.handleCloseRoom(closedExternally)
		}
		r.flushSendTasks()
	}
}

// CloseAndRelease ends the game loop and closes the room's fan-in
// channels. Called by the lobby after the room left the registry.
func (r *room) CloseAndRelease() {
	r.closeOnce.Do(func() {
		close(r.done)
		close(r.ticks)
		close(r.pingPlayers)
	})
}

func (r *room) flushSendTasks() {
	for _, task := range r.dataSendTasks {
		if err := task.to.Send(task.data); err != nil {
			logger.Debugf("[Room %s] dropping send to %s: %v", r.id, task.to.ID(), err)
		}
	}
	for _, task := range r.pingSendTasks {
		task.to.Ping()
	}
	r.dataSendTasks = r.dataSendTasks[:0]
	r.pingSendTasks = r.pingSendTasks[:0]
}

func (r *room) broadcast(packet *ServerPacket) {
	data := marshalServerPacket(packet)
	for _, ps := range r.playerStates {
		if ps.conn == nil {
			continue
		}
		r.dataSendTasks = append(r.dataSendTasks, dataSendTask{to: ps.conn, data: data})
	}
}

func (r *room) unicast(to Player, packet *ServerPacket) {
	r.dataSendTasks = append(r.dataSendTasks, dataSendTask{to: to, data: marshalServerPacket(packet)})
}

func (r *room) onlineCount() int {
	count := 0
	for _, ps := range r.playerStates {
		if ps.online {
			count++
		}
	}
	return count
}

func (r *room) findStateByID(playerID string) *playerState {
	for _, ps := range r.playerStates {
		if ps.id == playerID {
			return ps
		}
	}
	return nil
}

func (r *room) findStateByConn(p Player) *playerState {
	for _, ps := range r.playerStates {
		if ps.conn == p {
			return ps
		}
	}
	return nil
}

func (r *room) updateDescription() {
	if r.private || r.parentLobby == nil {
		return
	}
	r.parentLobby.RequestUpdateDescription(r.Description())
}

// persistAsync mirrors a state change to storage without blocking the game
// loop. Failures are logged and never roll back in-memory state.
func (r *room) persistAsync(op string, fn func(ctx context.Context) error) {
	if r.store == nil {
		return
	}
	roomCode := r.id
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Warningf("[Room %s] persistence %s failed: %v", roomCode, op, err)
		}
	}()
}

func (r *room) persistRoomPatch(status roomStatus, imageIndex int) {
	label := status.label()
	index := imageIndex
	store, code := r.store, r.id
	r.persistAsync("update-room", func(ctx context.Context) error {
		return store.UpdateRoom(ctx, code, domain.RoomPatch{Status: &label, CurrentImageIndex: &index})
	})
}

func (r *room) persistPlayer(ps *playerState) {
	rec := domain.PlayerRecord{
		ID:       ps.id,
		RoomID:   r.recordID,
		Nickname: ps.nickname,
		Avatar:   ps.avatar,
		Score:    ps.score,
		IsOnline: ps.online,
	}
	store := r.store
	r.persistAsync("upsert-player", func(ctx context.Context) error {
		return store.UpsertPlayer(ctx, rec)
	})
}
