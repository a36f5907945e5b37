package game

import (
	"crypto/rand"
	"math/big"
)

// Random is injected into matches so that timeout-driven auto-moves are
// reproducible in tests.
type Random interface {
	// Intn returns a random int in [0, n).
	Intn(n int) int
}

type CryptoRandom struct{}

func (CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func randomMove(r Random) Move {
	return allMoves[r.Intn(len(allMoves))]
}
