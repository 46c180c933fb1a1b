package vulkan

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockPoolSerializesGroup(t *testing.T) {
	pool := NewVulkanLockPool()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			pool.SafeCall(PipelineManagement, func() error {
				counter++
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			pool.SafeQueueCall(0, func() error {
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestLockPoolReturnsCallbackError(t *testing.T) {
	pool := NewVulkanLockPool()
	want := errors.New("boom")

	assert.ErrorIs(t, pool.SafeCall(BufferManagement, func() error { return want }), want)
	assert.ErrorIs(t, pool.SafeQueueCall(3, func() error { return want }), want)

	// The lock is released after a failing call.
	assert.NoError(t, pool.SafeCall(BufferManagement, func() error { return nil }))
}
