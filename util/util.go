package util

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// RandSource is the part of *rand.Rand the bidders draw from. Each owner
// keeps its own source.
type RandSource interface {
	Intn(n int) int
}

var guidTracker map[string]int
var lock *sync.Mutex

func init() {
	lock = &sync.Mutex{}
	ResetGuids()
}

func ResetGuids() {
	lock.Lock()
	guidTracker = map[string]int{}
	lock.Unlock()
}

func NewGuid(prefix string) string {
	lock.Lock()
	defer lock.Unlock()
	guidTracker[prefix] = guidTracker[prefix] + 1
	return fmt.Sprintf("%s-%d", prefix, guidTracker[prefix])
}

func NewRandSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewEntropySource seeds from the clock; offset keeps sources created in
// the same instant apart.
func NewEntropySource(offset int) *rand.Rand {
	return NewRandSource(time.Now().UnixNano() + int64(offset))
}

// RandomIntIn draws uniformly from [min, max].
func RandomIntIn(src RandSource, min, max int) int {
	if max <= min {
		return min
	}
	return src.Intn(max-min+1) + min
}
