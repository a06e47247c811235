package reembed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func startedTracker(total, interval int) (*ProgressTracker, *bytes.Buffer) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, total, interval, "pieces")
	tracker.Start()
	return tracker, &buf
}

func TestProgressTracker_Reporting(t *testing.T) {
	t.Run("reports once the interval is reached", func(t *testing.T) {
		tracker, buf := startedTracker(1000, 100)

		tracker.Update(50)
		assert.Empty(t, buf.String())

		tracker.Update(150)
		assert.Contains(t, buf.String(), "150/1000 (15.0%)")
	})

	t.Run("increments accumulate", func(t *testing.T) {
		tracker, buf := startedTracker(100, 10)
		tracker.Increment(25)
		tracker.Increment(25)
		tracker.Increment(50)

		assert.Contains(t, buf.String(), "100/100 (100.0%)")
		assert.Greater(t, tracker.Elapsed(), time.Duration(0))
	})

	t.Run("progress is clamped to total", func(t *testing.T) {
		tracker, buf := startedTracker(100, 10)
		tracker.Increment(150)
		tracker.Update(500)

		assert.Contains(t, buf.String(), "100/100")
		assert.NotContains(t, buf.String(), "150/100")
		assert.NotContains(t, buf.String(), "500/100")
	})

	t.Run("every line rewrites in place", func(t *testing.T) {
		tracker, buf := startedTracker(30, 10)
		for i := 10; i <= 30; i += 10 {
			tracker.Update(i)
		}
		assert.Equal(t, 3, strings.Count(buf.String(), "\rProgress:"))
	})
}

func TestProgressTracker_Finish(t *testing.T) {
	tracker, buf := startedTracker(100, 1000)
	tracker.Update(75)
	assert.Empty(t, buf.String(), "below interval")

	time.Sleep(5 * time.Millisecond)
	tracker.Finish()

	out := buf.String()
	assert.Contains(t, out, "100/100 (100.0%)")
	assert.Contains(t, out, "pieces/s")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	tracker, buf := startedTracker(0, 10)
	tracker.Finish()
	assert.Contains(t, buf.String(), "0/0 (100.0%)")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 1, "pieces")

	tracker.Update(50)
	tracker.Increment(10)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_DefaultUnit(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 5, "")

	tracker.Start()
	tracker.Finish()

	assert.Contains(t, buf.String(), "items/s")
}
