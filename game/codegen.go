package game

import (
	"math/rand/v2"
	"sync"
)

// Room codes are human-shareable: fixed length, no visually ambiguous
// characters (no 0/O, 1/I/l). Exactly 32 characters.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const roomCodeLength = 6

type codeGenerator struct {
	inUse  map[string]struct{}
	locker sync.Mutex
}

func NewCodeGenerator() *codeGenerator {
	return &codeGenerator{inUse: make(map[string]struct{})}
}

// Generate reserves and returns a code not currently in use. Collisions are
// handled by regeneration; the registry insert is the real uniqueness check.
func (g *codeGenerator) Generate() string {
	g.locker.Lock()
	defer g.locker.Unlock()

	for {
		code := randomCode()
		if _, taken := g.inUse[code]; taken {
			continue
		}
		g.inUse[code] = struct{}{}
		return code
	}
}

func (g *codeGenerator) Dispose(code string) {
	g.locker.Lock()
	defer g.locker.Unlock()
	delete(g.inUse, code)
}

func randomCode() string {
	buf := make([]byte, roomCodeLength)
	for i := range buf {
		buf[i] = roomCodeAlphabet[rand.IntN(len(roomCodeAlphabet))]
	}
	return string(buf)
}
