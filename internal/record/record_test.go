package record_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flourishbhp/truecopy/internal/record"
)

func TestUpload(t *testing.T) {
	t.Parallel()

	assert.False(t, record.Upload{}.HasFile())
	assert.True(t, record.Upload{Name: "uploads/photo.png"}.HasFile())
	assert.False(t, record.Upload{Name: "uploads/photo.png"}.Encrypted())
	assert.True(t, record.Upload{Name: "uploads/1234-0001_1.000000.zip"}.Encrypted())
}

func TestLockerSerializesSameRecord(t *testing.T) {
	t.Parallel()

	locker := record.NewLocker()

	var (
		wg      sync.WaitGroup
		active  atomic.Int32
		overlap atomic.Bool
	)

	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := locker.Lock(7)
			defer unlock()

			if active.Add(1) > 1 {
				overlap.Store(true)
			}

			active.Add(-1)
		}()
	}

	wg.Wait()

	assert.False(t, overlap.Load())
}

func TestLockerIndependentRecords(t *testing.T) {
	t.Parallel()

	locker := record.NewLocker()

	unlockA := locker.Lock(1)
	done := make(chan struct{})

	go func() {
		unlock := locker.Lock(2)
		unlock()
		close(done)
	}()

	<-done
	unlockA()
}
