package game

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"diffhunt/domain"
	"diffhunt/logger"
)

const joinHandshakeTimeout = time.Second * 2
const createRoomAttempts = 3

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type GameHandler struct {
	lobby      Lobby
	imageStore ImageStore
	roomStore  RoomStore
	codeGen    UniqueCodeGenerator
}

func NewGameHandler(lobby Lobby, imageStore ImageStore, roomStore RoomStore, codeGen UniqueCodeGenerator) *GameHandler {
	return &GameHandler{
		lobby:      lobby,
		imageStore: imageStore,
		roomStore:  roomStore,
		codeGen:    codeGen,
	}
}

type CreateRoomRequest struct {
	ImageIDs             []string `json:"imageIds"`
	TimerPerImageSeconds int      `json:"timerPerImageSeconds"`
	MaxPlayers           int      `json:"maxPlayers"`
	Private              bool     `json:"private"`
}

func (req *CreateRoomRequest) validate() string {
	if len(req.ImageIDs) < 1 {
		return "imageIds must contain at least 1 image"
	}
	if len(req.ImageIDs) > 50 {
		return "imageIds cannot exceed 50 images"
	}
	if req.TimerPerImageSeconds < 5 {
		return "timerPerImageSeconds must be at least 5 seconds"
	}
	if req.TimerPerImageSeconds > 600 {
		return "timerPerImageSeconds cannot exceed 600 seconds"
	}
	if req.MaxPlayers == 0 {
		req.MaxPlayers = 8
	}
	if req.MaxPlayers < 2 {
		return "maxPlayers must be at least 2"
	}
	if req.MaxPlayers > 20 {
		return "maxPlayers cannot exceed 20"
	}
	return ""
}

func (h *GameHandler) CreateRoomHandler(ctx *gin.Context) {
	req := CreateRoomRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}
	if msg := req.validate(); msg != "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	images, err := h.imageStore.SelectImages(ctx.Request.Context(), req.ImageIDs)
	if err != nil {
		if errors.Is(err, domain.ErrImagesNotFound) {
			ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "images-not-found"})
			return
		}
		logger.Criticalf("create room: selecting images failed: %v", err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	rec := domain.RoomRecord{Status: domain.StatusLobby}
	for attempt := 0; ; attempt++ {
		rec.ID = uuid.NewString()
		rec.Code = h.codeGen.Generate()
		err = h.roomStore.InsertRoom(ctx.Request.Context(), rec)
		if err == nil {
			break
		}
		h.codeGen.Dispose(rec.Code)
		if errors.Is(err, domain.ErrDuplicateRoomCode) && attempt < createRoomAttempts-1 {
			continue
		}
		logger.Criticalf("create room: inserting room failed: %v", err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	settings := RoomSettings{
		TimerPerImage: time.Duration(req.TimerPerImageSeconds) * time.Second,
		MaxPlayers:    req.MaxPlayers,
	}
	room := NewRoom(rec.Code, rec.ID, images, settings, req.Private, h.roomStore)
	h.lobby.RequestAddAndRunRoom(ctx.Request.Context(), room)

	ctx.JSON(http.StatusCreated, gin.H{"code": rec.Code, "id": rec.ID})
}

func (h *GameHandler) JoinRoomHandler(ctx *gin.Context) {
	roomCode := ctx.Param("code")
	nickname := ctx.Query("nickname")
	avatar := ctx.Query("avatar")
	playerID := ctx.Query("playerId")

	if nickname == "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "nickname-required"})
		return
	}
	if playerID == "" {
		playerID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Warningf("join room %s: websocket upgrade failed: %v", roomCode, err)
		return
	}
	socketConn := NewWebsocketConnection(conn)
	player := NewPlayer(playerID, nickname, avatar)

	// The request context dies once the connection is hijacked, so the
	// handshake runs on its own deadline.
	handshakeCtx, cancel := context.WithTimeout(context.Background(), joinHandshakeTimeout)
	defer cancel()

	jreq := NewRoomJoinRequest(roomCode, player)
	h.lobby.ForwardPlayerJoinRequestToRoom(handshakeCtx, jreq)

	select {
	case err := <-jreq.errChan:
		if err != nil {
			socketConn.CloseWithReason(err.Error())
			return
		}
	case <-handshakeCtx.Done():
		socketConn.CloseWithReason("join-timeout")
		return
	}

	go player.ReadPump(socketConn)
	go player.WritePump(socketConn)
}

// GetRoomHandler looks a room up by code from storage, so it also answers
// for rooms that finished after this process restarted.
func (h *GameHandler) GetRoomHandler(ctx *gin.Context) {
	roomCode := ctx.Param("code")
	rec, err := h.roomStore.GetRoomByCode(ctx.Request.Context(), roomCode)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "room-not-found"})
			return
		}
		logger.Criticalf("get room %s: %v", roomCode, err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":                rec.ID,
		"code":              rec.Code,
		"status":            string(rec.Status),
		"currentImageIndex": rec.CurrentImageIndex,
	})
}

func (h *GameHandler) GetPublicGamesHandler(ctx *gin.Context) {
	descs := h.lobby.GetPublicGames(ctx.Request.Context())
	ctx.JSON(http.StatusOK, gin.H{"rooms": descs})
}

func (h *GameHandler) CloseRoomHandler(ctx *gin.Context) {
	roomCode := ctx.Param("code")
	if roomCode == "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "room-code-required"})
		return
	}
	h.lobby.RequestCloseRoom(ctx.Request.Context(), roomCode)
	ctx.Status(http.StatusNoContent)
}
