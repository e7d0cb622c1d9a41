package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsClockTime(t *testing.T) {
	for _, ok := range []string{"00:00", "09:30", "23:59"} {
		assert.True(t, IsClockTime(ok), ok)
	}
	for _, bad := range []string{"", "9:30", "24:00", "12:60", "12-30", "12:30:00"} {
		assert.False(t, IsClockTime(bad), bad)
	}
}

func TestIsWeekday(t *testing.T) {
	assert.True(t, IsWeekday("Monday"))
	assert.True(t, IsWeekday("Sunday"))
	assert.False(t, IsWeekday("monday"))
	assert.False(t, IsWeekday("Mon"))
}
