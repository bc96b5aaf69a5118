package state

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewManualClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(16 * time.Millisecond)
	c.Advance(time.Second)
	assert.Equal(t, 1016*time.Millisecond, c.Now().Sub(start))
}

func TestSessionSequence(t *testing.T) {
	s := NewSession()
	_, err := uuid.Parse(s.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, s.ID, NewSession().ID)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s.Next()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(800), s.Last())
	assert.Equal(t, uint64(801), s.Next())
}
