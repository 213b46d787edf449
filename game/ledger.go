package game

// differenceLedger records, per image, which differences have been claimed
// and by whom. First claimant wins; a recorded claim is immutable. It is
// only ever touched from the owning room's game loop, so it needs no lock.
type differenceLedger struct {
	claims map[string]map[string]string // imageID -> differenceID -> playerID
}

func newDifferenceLedger() *differenceLedger {
	return &differenceLedger{claims: make(map[string]map[string]string)}
}

// Claim records playerID as the claimant of (imageID, differenceID).
// Returns false when the pair was already claimed.
func (l *differenceLedger) Claim(imageID, differenceID, playerID string) bool {
	byDiff, ok := l.claims[imageID]
	if !ok {
		byDiff = make(map[string]string)
		l.claims[imageID] = byDiff
	}
	if _, claimed := byDiff[differenceID]; claimed {
		return false
	}
	byDiff[differenceID] = playerID
	return true
}

func (l *differenceLedger) Claimant(imageID, differenceID string) (string, bool) {
	playerID, ok := l.claims[imageID][differenceID]
	return playerID, ok
}

func (l *differenceLedger) ClaimedCount(imageID string) int {
	return len(l.claims[imageID])
}

func (l *differenceLedger) Reset() {
	l.claims = make(map[string]map[string]string)
}
