package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateExponentialBackoffWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	max := 2 * time.Second

	assert.Zero(t, CalculateExponentialBackoffWithJitter(0, base, max))

	for attempt := 1; attempt <= 4; attempt++ {
		expected := base << (attempt - 1)
		d := CalculateExponentialBackoffWithJitter(attempt, base, max)
		assert.GreaterOrEqual(t, d, expected-expected/8, "attempt %d", attempt)
		assert.LessOrEqual(t, d, expected+expected/8, "attempt %d", attempt)
	}
}

func TestCalculateExponentialBackoffWithJitter_Capped(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := CalculateExponentialBackoffWithJitter(30, time.Second, 5*time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
	}
}
