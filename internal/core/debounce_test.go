package core

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var n atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { n.Add(1) })
	}
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, n.Load())
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(time.Hour)
	assert.False(t, d.Stop())

	var n atomic.Int32
	d.Trigger(func() { n.Add(1) })
	assert.True(t, d.Stop())
	assert.False(t, d.Stop())
	assert.EqualValues(t, 0, n.Load())
}

func TestNewDebouncer_DefaultDelay(t *testing.T) {
	assert.Equal(t, DefaultDebounce, NewDebouncer(0).delay)
}
