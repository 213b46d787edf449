package game

import (
	"encoding/json"
	"fmt"

	"diffhunt/domain"
)

// Inbound packet types. Anything else is dropped at the boundary.
const (
	ClientPacketStartMatch = "start_match"
	ClientPacketClaimDiff  = "claim_diff"
)

// Outbound packet types.
const (
	ServerPacketRoomState        = "room_state"
	ServerPacketGameStart        = "game_start"
	ServerPacketDiffFound        = "diff_found"
	ServerPacketDiffAlreadyFound = "diff_already_found"
	ServerPacketImageChange      = "image_change"
	ServerPacketGameOver         = "game_over"
	ServerPacketRoomClosed       = "room_closed"
)

type ClientPacket struct {
	Type         string `json:"type"`
	ImageID      string `json:"imageId,omitempty"`
	DifferenceID string `json:"differenceId,omitempty"`
}

type ClientPacketEnvelope struct {
	packet ClientPacket
	from   Player
}

// ParseClientPacket validates raw bytes into the closed packet set.
// Malformed or unknown packets come back as errors and get dropped.
func ParseClientPacket(data []byte) (ClientPacket, error) {
	var packet ClientPacket
	if err := json.Unmarshal(data, &packet); err != nil {
		return ClientPacket{}, fmt.Errorf("malformed client packet: %w", err)
	}

	switch packet.Type {
	case ClientPacketStartMatch:
		return packet, nil
	case ClientPacketClaimDiff:
		if packet.ImageID == "" || packet.DifferenceID == "" {
			return ClientPacket{}, fmt.Errorf("claim_diff missing imageId or differenceId")
		}
		return packet, nil
	default:
		return ClientPacket{}, fmt.Errorf("unknown client packet type %q", packet.Type)
	}
}

type PlayerScore struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	IsOnline bool   `json:"isOnline"`
}

type RoomStatePayload struct {
	Players           []PlayerScore  `json:"players"`
	Status            string         `json:"status"`
	ImageQueue        []domain.Image `json:"imageQueue"`
	CurrentImageIndex int            `json:"currentImageIndex"`
}

type GameStartPayload struct {
	StartTime    int64        `json:"startTime"`
	CurrentImage domain.Image `json:"currentImage"`
	TimerSeconds int          `json:"timerSeconds"`
}

type DiffFoundPayload struct {
	PlayerID     string        `json:"playerId"`
	PlayerName   string        `json:"playerName"`
	DifferenceID string        `json:"differenceId"`
	NewScore     int           `json:"newScore"`
	AllScores    []PlayerScore `json:"allScores"`
}

type DiffAlreadyFoundPayload struct {
	DifferenceID string `json:"differenceId"`
}

type ImageChangePayload struct {
	CurrentImage domain.Image `json:"currentImage"`
	ImageIndex   int          `json:"imageIndex"`
	TimerSeconds int          `json:"timerSeconds"`
}

type GameOverPayload struct {
	FinalScores []PlayerScore `json:"finalScores"`
}

type ServerPacket struct {
	Type             string                   `json:"type"`
	RoomState        *RoomStatePayload        `json:"roomState,omitempty"`
	GameStart        *GameStartPayload        `json:"gameStart,omitempty"`
	DiffFound        *DiffFoundPayload        `json:"diffFound,omitempty"`
	DiffAlreadyFound *DiffAlreadyFoundPayload `json:"diffAlreadyFound,omitempty"`
	ImageChange      *ImageChangePayload      `json:"imageChange,omitempty"`
	GameOver         *GameOverPayload         `json:"gameOver,omitempty"`
}

func MakePacketRoomState(players []PlayerScore, status string, imageQueue []domain.Image, currentImageIndex int) *ServerPacket {
	return &ServerPacket{
		Type: ServerPacketRoomState,
		RoomState: &RoomStatePayload{
			Players:           players,
			Status:            status,
			ImageQueue:        imageQueue,
			CurrentImageIndex: currentImageIndex,
		},
	}
}

func MakePacketGameStart(startTime int64, currentImage domain.Image, timerSeconds int) *ServerPacket {
	return &ServerPacket{
		Type: ServerPacketGameStart,
		GameStart: &GameStartPayload{
			StartTime:    startTime,
			CurrentImage: currentImage,
			TimerSeconds: timerSeconds,
		},
	}
}

func MakePacketDiffFound(playerID, playerName, differenceID string, newScore int, allScores []PlayerScore) *ServerPacket {
	return &ServerPacket{
		Type: ServerPacketDiffFound,
		DiffFound: &DiffFoundPayload{
			PlayerID:     playerID,
			PlayerName:   playerName,
			DifferenceID: differenceID,
			NewScore:     newScore,
			AllScores:    allScores,
		},
	}
}

func MakePacketDiffAlreadyFound(differenceID string) *ServerPacket {
	return &ServerPacket{
		Type:             ServerPacketDiffAlreadyFound,
		DiffAlreadyFound: &DiffAlreadyFoundPayload{DifferenceID: differenceID},
	}
}

func MakePacketImageChange(currentImage domain.Image, imageIndex, timerSeconds int) *ServerPacket {
	return &ServerPacket{
		Type: ServerPacketImageChange,
		ImageChange: &ImageChangePayload{
			CurrentImage: currentImage,
			ImageIndex:   imageIndex,
			TimerSeconds: timerSeconds,
		},
	}
}

func MakePacketGameOver(finalScores []PlayerScore) *ServerPacket {
	return &ServerPacket{
		Type:     ServerPacketGameOver,
		GameOver: &GameOverPayload{FinalScores: finalScores},
	}
}

func MakePacketRoomClosed() *ServerPacket {
	return &ServerPacket{Type: ServerPacketRoomClosed}
}

func marshalServerPacket(packet *ServerPacket) []byte {
	bytes, err := json.Marshal(packet)
	if err != nil {
		// Server packets are built from our own types; this cannot
		// happen for valid constructors.
		return nil
	}
	return bytes
}
