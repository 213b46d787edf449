package game

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"diffhunt/domain"
)

// --- NetworkConnection ---

type MockNetworkConnection struct {
	mock.Mock
}

func (m *MockNetworkConnection) Close() {
	m.Called()
}

func (m *MockNetworkConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockNetworkConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockNetworkConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- UniqueCodeGenerator ---

type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCodeGenerator) Dispose(code string) {
	m.Called(code)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- Player ---

type MockPlayer struct {
	mock.Mock
}

func (m *MockPlayer) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlayer) Nickname() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlayer) Avatar() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlayer) Send(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockPlayer) Ping() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockPlayer) SetRoom(r Room) {
	m.Called(r)
}

func (m *MockPlayer) CancelAndRelease() {
	m.Called()
}

// Identity stubs are optional: a reconnecting player keeps the seat's
// nickname/avatar, so those getters may never be called on the new handle.
func newMockPlayer(id, nickname string) *MockPlayer {
	p := &MockPlayer{}
	p.On("ID").Return(id).Maybe()
	p.On("Nickname").Return(nickname).Maybe()
	p.On("Avatar").Return("").Maybe()
	return p
}

// --- Room ---

type MockRoom struct {
	mock.Mock
}

func (m *MockRoom) Id() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRoom) Send(ctx context.Context, e ClientPacketEnvelope) {
	m.Called(ctx, e)
}

func (m *MockRoom) RequestJoin(jreq RoomJoinRequest) {
	m.Called(jreq)
}

func (m *MockRoom) RemoveMe(ctx context.Context, p Player) {
	m.Called(ctx, p)
}

func (m *MockRoom) RequestClose() {
	m.Called()
}

func (m *MockRoom) Tick(now time.Time) {
	m.Called(now)
}

func (m *MockRoom) PingPlayers() {
	m.Called()
}

func (m *MockRoom) GameLoop() {
	m.Called()
}

func (m *MockRoom) CloseAndRelease() {
	m.Called()
}

func (m *MockRoom) Description() RoomDescription {
	args := m.Called()
	return args.Get(0).(RoomDescription)
}

func (m *MockRoom) SetParentLobby(l Lobby) {
	m.Called(l)
}

// --- Lobby ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) RequestAddAndRunRoom(ctx context.Context, r Room) {
	m.Called(ctx, r)
}

func (m *MockLobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq RoomJoinRequest) {
	m.Called(ctx, jreq)
}

func (m *MockLobby) RequestCloseRoom(ctx context.Context, roomCode string) {
	m.Called(ctx, roomCode)
}

func (m *MockLobby) RequestUpdateDescription(desc RoomDescription) {
	m.Called(desc)
}

func (m *MockLobby) RemoveRoom(roomCode string) {
	m.Called(roomCode)
}

func (m *MockLobby) GetPublicGames(ctx context.Context) []RoomDescription {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]RoomDescription)
}

// --- ImageStore ---

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) SelectImages(ctx context.Context, ids []string) ([]domain.Image, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Image), args.Error(1)
}

// --- RoomStore ---

type MockRoomStore struct {
	mock.Mock
}

func (m *MockRoomStore) InsertRoom(ctx context.Context, rec domain.RoomRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRoomStore) GetRoomByCode(ctx context.Context, code string) (domain.RoomRecord, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.RoomRecord), args.Error(1)
}

func (m *MockRoomStore) UpdateRoom(ctx context.Context, code string, patch domain.RoomPatch) error {
	args := m.Called(ctx, code, patch)
	return args.Error(0)
}

func (m *MockRoomStore) DeleteRoom(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRoomStore) UpsertPlayer(ctx context.Context, rec domain.PlayerRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRoomStore) DeletePlayers(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// nopStore is a RoomStore for tests that don't care about persistence.
type nopStore struct{}

func (nopStore) InsertRoom(ctx context.Context, rec domain.RoomRecord) error              { return nil }
func (nopStore) GetRoomByCode(ctx context.Context, code string) (domain.RoomRecord, error) {
	return domain.RoomRecord{}, nil
}
func (nopStore) UpdateRoom(ctx context.Context, code string, patch domain.RoomPatch) error { return nil }
func (nopStore) DeleteRoom(ctx context.Context, id string) error                          { return nil }
func (nopStore) UpsertPlayer(ctx context.Context, rec domain.PlayerRecord) error          { return nil }
func (nopStore) DeletePlayers(ctx context.Context, roomID string) error                   { return nil }
