package compressor

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// NameGenerator yields collision-resistant file names for compressed output.
type NameGenerator interface {
	Next(ext string) string
}

// TimeRandNames produces "<token>-<random><ext>", where token is a
// millisecond timestamp forced to be strictly increasing within the
// generator and random is drawn from the generator's own source.
type TimeRandNames struct {
	mu   sync.Mutex
	now  func() time.Time
	rnd  *rand.Rand
	last int64
}

func NewTimeRandNames(now func() time.Time, rnd *rand.Rand) *TimeRandNames {
	if now == nil {
		now = time.Now
	}
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &TimeRandNames{now: now, rnd: rnd}
}

func (g *TimeRandNames) Next(ext string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	token := g.now().UnixMilli()
	if token <= g.last {
		token = g.last + 1
	}
	g.last = token

	return fmt.Sprintf("%d-%d%s", token, g.rnd.Int64N(1e9), ext)
}
