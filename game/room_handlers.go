package game

import (
	"context"
	"sort"
	"time"

	"diffhunt/domain"
	"diffhunt/logger"
)

func (r *room) handlePacketEnvelope(e ClientPacketEnvelope) {
	switch e.packet.Type {
	case ClientPacketStartMatch:
		r.handleStartMatch(e.from)
	case ClientPacketClaimDiff:
		r.handleClaim(e.from, e.packet.ImageID, e.packet.DifferenceID)
	default:
		// Parse already rejects unknown types; nothing to do.
	}
}

func (r *room) handleJoinRequest(jreq RoomJoinRequest) {
	if r.status == STATUS_CLOSED {
		jreq.errChan <- ErrRoomClosed
		return
	}

	existing := r.findStateByID(jreq.player.ID())
	if existing != nil {
		// Reconnect: same identity, fresh connection. Score and claim
		// history stay; any zombie connection is released first.
		if existing.conn != nil {
			logger.Infof("[Room %s] releasing zombie connection for %s", r.id, existing.id)
			existing.conn.CancelAndRelease()
		}
		existing.conn = jreq.player
		existing.online = true
	} else {
		if len(r.playerStates) >= r.maxPlayers {
			jreq.errChan <- ErrRoomFull
			return
		}
		r.playerStates = append(r.playerStates, &playerState{
			id:       jreq.player.ID(),
			nickname: jreq.player.Nickname(),
			avatar:   jreq.player.Avatar(),
			online:   true,
			conn:     jreq.player,
		})
		existing = r.playerStates[len(r.playerStates)-1]
	}

	jreq.player.SetRoom(r)
	jreq.errChan <- nil

	r.broadcast(MakePacketRoomState(r.playersSnapshot(), string(r.status.label()), r.images, r.currentImageIndex))
	r.persistPlayer(existing)
	r.updateDescription()
}

func (r *room) handleRemovePlayer(p Player) {
	ps := r.findStateByConn(p)
	if ps == nil {
		// Stale removal, e.g. a zombie connection that was already
		// replaced by a reconnect.
		return
	}

	p.CancelAndRelease()
	ps.conn = nil
	ps.online = false
	logger.Infof("[Room %s] player %s went offline", r.id, ps.id)

	r.broadcast(MakePacketRoomState(r.playersSnapshot(), string(r.status.label()), r.images, r.currentImageIndex))
	r.persistPlayer(ps)
	r.updateDescription()
}

func (r *room) handleStartMatch(from Player) {
	if r.status != STATUS_LOBBY {
		logger.Debugf("[Room %s] start_match ignored in status %s", r.id, r.status.label())
		return
	}
	if len(r.images) == 0 {
		logger.Criticalf("[Room %s] start_match with empty image queue", r.id)
		return
	}

	now := time.Now()
	r.status = STATUS_PLAYING
	r.currentImageIndex = 0
	r.ledger.Reset()

	r.broadcast(MakePacketGameStart(now.UnixMilli(), r.images[0], r.timerSeconds()))
	r.nextAdvance = now.Add(r.timerPerImage)

	r.persistRoomPatch(r.status, r.currentImageIndex)
	r.updateDescription()
	logger.Infof("[Room %s] match started by %s, %d images, %ds per image", r.id, from.ID(), len(r.images), r.timerSeconds())
}

func (r *room) handleClaim(from Player, imageID, differenceID string) {
	if r.status != STATUS_PLAYING {
		return
	}

	current := r.images[r.currentImageIndex]
	if imageID != current.ID {
		// Stale claim for an image the room already moved past.
		return
	}

	ps := r.findStateByID(from.ID())
	if ps == nil {
		return
	}

	if !differenceExists(current, differenceID) {
		logger.Debugf("[Room %s] claim for unknown difference %s on image %s", r.id, differenceID, imageID)
		return
	}

	if !r.ledger.Claim(imageID, differenceID, ps.id) {
		r.unicast(from, MakePacketDiffAlreadyFound(differenceID))
		return
	}

	ps.score += pointsPerDifference
	r.broadcast(MakePacketDiffFound(ps.id, ps.nickname, differenceID, ps.score, r.playersSnapshot()))
	r.persistPlayer(ps)

	if total := len(current.Differences); total > 0 && r.ledger.ClaimedCount(imageID) == total {
		r.advance(time.Now())
	}
}

// advance moves to the next image, or finishes the match when the queue is
// exhausted. The progression deadline is always released first, so a stale
// expiry can never fire against the new state.
func (r *room) advance(now time.Time) {
	r.nextAdvance = time.Time{}
	r.currentImageIndex++

	if r.currentImageIndex >= len(r.images) {
		r.finishMatch()
		return
	}

	r.broadcast(MakePacketImageChange(r.images[r.currentImageIndex], r.currentImageIndex, r.timerSeconds()))
	r.nextAdvance = now.Add(r.timerPerImage)
	r.persistRoomPatch(r.status, r.currentImageIndex)
}

func (r *room) finishMatch() {
	r.status = STATUS_FINISHED
	r.broadcast(MakePacketGameOver(r.finalScores()))
	r.persistRoomPatch(r.status, r.currentImageIndex)
	r.updateDescription()
	logger.Infof("[Room %s] match finished", r.id)
}

func (r *room) handleTick(now time.Time) {
	switch r.status {
	case STATUS_PLAYING:
		if !r.nextAdvance.IsZero() && !now.Before(r.nextAdvance) {
			logger.Infof("[Room %s] image timer expired, advancing", r.id)
			r.advance(now)
		}
	case STATUS_FINISHED:
		if r.onlineCount() == 0 {
			logger.Infof("[Room %s] finished and empty, reaping", r.id)
			r.handleCloseRoom(closedAfterIdle)
		}
	}
}

func (r *room) handlePingPlayers() {
	for _, ps := range r.playerStates {
		if ps.conn == nil {
			continue
		}
		r.pingSendTasks = append(r.pingSendTasks, pingSendTask{to: ps.conn})
	}
}

// handleCloseRoom is terminal and idempotent: a second close finds the
// room already CLOSED (or gone from the registry) and does nothing.
func (r *room) handleCloseRoom(reason closeReason) {
	if r.status == STATUS_CLOSED {
		return
	}

	r.status = STATUS_CLOSED
	r.nextAdvance = time.Time{}

	r.broadcast(MakePacketRoomClosed())
	r.flushSendTasks()

	for _, ps := range r.playerStates {
		if ps.conn != nil {
			ps.conn.CancelAndRelease()
			ps.conn = nil
			ps.online = false
		}
	}

	store, recordID := r.store, r.recordID
	switch reason {
	case closedAfterIdle:
		// Idle-reaped rooms are fully deleted from storage.
		r.persistAsync("delete-room", func(ctx context.Context) error {
			if err := store.DeletePlayers(ctx, recordID); err != nil {
				return err
			}
			return store.DeleteRoom(ctx, recordID)
		})
	default:
		r.persistRoomPatch(STATUS_CLOSED, r.currentImageIndex)
		r.persistAsync("delete-players", func(ctx context.Context) error {
			return store.DeletePlayers(ctx, recordID)
		})
	}

	if r.parentLobby != nil {
		r.parentLobby.RemoveRoom(r.id)
	}
	logger.Infof("[Room %s] closed", r.id)
}

func (r *room) timerSeconds() int {
	return int(r.timerPerImage / time.Second)
}

// playersSnapshot returns the roster in join order. Join order is also the
// stable tie-break for final scores.
func (r *room) playersSnapshot() []PlayerScore {
	scores := make([]PlayerScore, 0, len(r.playerStates))
	for _, ps := range r.playerStates {
		scores = append(scores, PlayerScore{
			PlayerID: ps.id,
			Nickname: ps.nickname,
			Score:    ps.score,
			IsOnline: ps.online,
		})
	}
	return scores
}

func (r *room) finalScores() []PlayerScore {
	scores := r.playersSnapshot()
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

func differenceExists(image domain.Image, differenceID string) bool {
	for _, diff := range image.Differences {
		if diff.ID == differenceID {
			return true
		}
	}
	return false
}
