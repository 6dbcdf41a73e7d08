package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatWait(t *testing.T) {
	assert.Equal(t, "0 min", FormatWait(0))
	assert.Equal(t, "0 min", FormatWait(-5*time.Minute))
	assert.Equal(t, "5 min", FormatWait(5*time.Minute))
	assert.Equal(t, "59 min", FormatWait(59*time.Minute+30*time.Second))
	assert.Equal(t, "1h 0m", FormatWait(time.Hour))
	assert.Equal(t, "1h 20m", FormatWait(80*time.Minute))
	assert.Equal(t, "2h 5m", FormatWait(125*time.Minute))
}
