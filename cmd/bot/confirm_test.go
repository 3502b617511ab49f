package main

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmations_Resolve(t *testing.T) {
	c := newConfirmations()

	id, answers, done := c.open()
	defer done()
	require.Equal(t, 1, c.count())

	require.True(t, c.resolve(id, true))
	assert.True(t, <-answers)

	// A prompt is answered once.
	assert.False(t, c.resolve(id, false))
	assert.Zero(t, c.count())
}

func TestConfirmations_Expired(t *testing.T) {
	c := newConfirmations()

	id, _, done := c.open()
	done()

	assert.False(t, c.resolve(id, true))
	assert.False(t, c.resolve("unknown", true))
}

func TestConfirmations_Concurrent(t *testing.T) {
	c := newConfirmations()

	var wg sync.WaitGroup
	for n := 0; n < 20; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			id, answers, done := c.open()
			defer done()

			go c.resolve(id, n%2 == 0)
			assert.Equal(t, n%2 == 0, <-answers)
		}(n)
	}
	wg.Wait()

	assert.Zero(t, c.count())
}

func TestConfirmButtonID_RoundTrip(t *testing.T) {
	for _, answer := range []bool{true, false} {
		customID := confirmButtonID("abc", answer)
		parts := strings.Split(customID, ":")
		require.Equal(t, confirmPrefix, parts[0])

		id, got, err := parseConfirmArgs(parts[1:])
		require.NoError(t, err)
		assert.Equal(t, "abc", id)
		assert.Equal(t, answer, got)
	}
}

func TestParseConfirmArgs_Invalid(t *testing.T) {
	tests := [][]string{
		nil,
		{"abc"},
		{"abc", "maybe"},
		{"abc", "yes", "extra"},
	}

	for _, args := range tests {
		_, _, err := parseConfirmArgs(args)
		require.Error(t, err, "args %v", args)
	}
}
