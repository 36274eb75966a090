package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocks_ReadersShareWritersExclude(t *testing.T) {
	l := NewLocks()

	r1 := l.RLock("s1")
	r2 := l.RLock("s1")
	require.Equal(t, 1, l.Len())

	acquired := make(chan struct{})
	go func() {
		unlock := l.Lock("s1")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("writer acquired while readers held the lock")
	case <-time.After(20 * time.Millisecond):
	}

	r1()
	r2()
	<-acquired

	require.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, time.Millisecond)
}

func TestLocks_SessionsIndependent(t *testing.T) {
	l := NewLocks()
	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}

func TestLocks_WritersSerialize(t *testing.T) {
	l := NewLocks()
	var inside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("s")
			defer unlock()
			assert.Equal(t, int32(1), atomic.AddInt32(&inside, 1))
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()
	require.Zero(t, l.Len())
}
