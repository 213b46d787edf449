package game

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"diffhunt/logger"
)

var errSendBufferFull = errors.New("player send buffer full")

// player is the connection actor. One is created per websocket connection;
// the room keeps score/identity, so a reconnecting client gets a fresh
// player carrying the same id.
type player struct {
	id       string
	nickname string
	avatar   string

	rateLimiter *rate.Limiter
	inbox       chan []byte
	pingChan    chan struct{}
	room        Room

	ctx       context.Context
	cancelCtx context.CancelFunc
}

func NewPlayer(id, nickname, avatar string) *player {
	ctx, cancel := context.WithCancel(context.Background())
	return &player{
		id:          id,
		nickname:    nickname,
		avatar:      avatar,
		rateLimiter: rate.NewLimiter(5, 10),
		inbox:       make(chan []byte, 256),
		pingChan:    make(chan struct{}, 1),
		ctx:         ctx,
		cancelCtx:   cancel,
	}
}

func (p *player) ID() string       { return p.id }
func (p *player) Nickname() string { return p.nickname }
func (p *player) Avatar() string   { return p.avatar }

func (p *player) SetRoom(r Room) {
	p.room = r
}

// Send queues data for the write pump. It never blocks the room actor: a
// full buffer means a stalled client, whose backlog we drop.
func (p *player) Send(data []byte) error {
	select {
	case p.inbox <- data:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	default:
		return errSendBufferFull
	}
}

func (p *player) Ping() error {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
	return nil
}

// CancelAndRelease stops both pumps. Safe to call more than once.
func (p *player) CancelAndRelease() {
	p.cancelCtx()
}

// ReadPump reads packets off the socket and forwards them to the room.
// On read error or cancellation it reports the disconnect and returns.
func (p *player) ReadPump(socket NetworkConnection) {
	defer socket.Close()
	defer func() {
		if p.room != nil {
			p.room.RemoveMe(p.ctx, p)
		}
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		data, err := socket.Read()
		if err != nil {
			return
		}

		packet, err := ParseClientPacket(data)
		if err != nil {
			logger.Debugf("[Player %s] dropping packet: %v", p.id, err)
			continue
		}

		if packet.Type == ClientPacketClaimDiff && !p.rateLimiter.Allow() {
			logger.Debugf("[Player %s] claim rate limit exceeded", p.id)
			continue
		}

		if p.room != nil {
			p.room.Send(p.ctx, ClientPacketEnvelope{packet: packet, from: p})
		}
	}
}

// WritePump drains the send buffer and ping requests onto the socket.
func (p *player) WritePump(socket NetworkConnection) {
	defer socket.Close()

	for {
		select {
		case data := <-p.inbox:
			if err := socket.Write(data); err != nil {
				return
			}
		case <-p.pingChan:
			if err := socket.Ping(); err != nil {
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}
