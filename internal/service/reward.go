package service

import (
	"math/rand/v2"
	"strconv"
	"sync"
)

const (
	minRewardCode = 10000
	maxRewardCode = 99999
)

// RewardGenerator issues 5-digit promo codes. Codes are independent per win and
// are not checked for uniqueness.
type RewardGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRewardGenerator(rng *rand.Rand) *RewardGenerator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint: gosec // promo codes carry no anti-replay guarantee
	}

	return &RewardGenerator{rng: rng}
}

func (that *RewardGenerator) Generate() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return strconv.Itoa(minRewardCode + that.rng.IntN(maxRewardCode-minRewardCode+1))
}
