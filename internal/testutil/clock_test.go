package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/deckmirror/internal/engine"
)

var (
	_ engine.SeqSource   = (*DeterministicClock)(nil)
	_ engine.IDGenerator = (*SequentialGenerator)(nil)
)

func TestDeterministicClock_NextAndReset(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())

	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())

	clock.Reset()
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Next()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), clock.Current())
}

func TestSequentialGenerator(t *testing.T) {
	gen := NewSequentialGenerator("")
	assert.Equal(t, "cid-0001", gen.Generate())
	assert.Equal(t, "cid-0002", gen.Generate())

	gen.Reset()
	assert.Equal(t, "cid-0001", gen.Generate())

	named := NewSequentialGenerator("stroke")
	assert.Equal(t, "stroke-0001", named.Generate())
}
