package domain

// RoomStatus is the durable lifecycle state of a room.
type RoomStatus string

const (
	StatusLobby    RoomStatus = "LOBBY"
	StatusPlaying  RoomStatus = "PLAYING"
	StatusFinished RoomStatus = "FINISHED"
	StatusClosed   RoomStatus = "CLOSED"
)

// Difference is one annotated discrepancy between an image pair.
// The id is stable within its image.
type Difference struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Image is an original/modified pair with its annotated differences.
// Immutable once a room has been created with it.
type Image struct {
	ID          string       `json:"id"`
	OriginalURL string       `json:"originalUrl"`
	ModifiedURL string       `json:"modifiedUrl"`
	Differences []Difference `json:"differences"`
}

// RoomRecord is the durable mirror of a room. The in-memory room is
// authoritative for gameplay; this is what persistence sync writes.
type RoomRecord struct {
	ID                string
	Code              string
	Status            RoomStatus
	CurrentImageIndex int
}

// RoomPatch is a partial room update. Nil fields are left untouched.
type RoomPatch struct {
	Status            *RoomStatus
	CurrentImageIndex *int
}

type PlayerRecord struct {
	ID       string
	RoomID   string
	Nickname string
	Avatar   string
	Score    int
	IsOnline bool
}
