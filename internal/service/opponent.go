package service

import (
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// OpponentService picks the computer's moves. It is deliberately weak: every
// legal cell is equally likely and threats are ignored.
type OpponentService interface {
	ChooseMove(board entity.Board) (int, error)
}

type randomOpponent struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewOpponentService returns the random-move opponent. A nil rng uses a randomly seeded source.
func NewOpponentService(rng *rand.Rand) OpponentService {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint: gosec // game move, not a secret
	}

	return &randomOpponent{
		rng: rng,
	}
}

func (that *randomOpponent) ChooseMove(board entity.Board) (int, error) {
	availableCells := board.LegalMoves()
	if len(availableCells) == 0 {
		return 0, ErrNoAvailableMoves
	}

	that.mu.Lock()
	chosen := that.rng.IntN(len(availableCells))
	that.mu.Unlock()

	return availableCells[chosen], nil
}
