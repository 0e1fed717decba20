package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirecell/wct-core/internal/wireschema"
)

func TestLevelFromFlag(t *testing.T) {
	cases := []struct {
		in   int
		want wireschema.Level
	}{
		{1, wireschema.Loaded},
		{2, wireschema.Order},
		{3, wireschema.Direction},
		{4, wireschema.Pitch},
	}
	for _, c := range cases {
		got, err := levelFromFlag(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestLevelFromFlagRejectsOutOfRange(t *testing.T) {
	_, err := levelFromFlag(5)
	assert.Error(t, err)
	_, err = levelFromFlag(-1)
	assert.Error(t, err)
}
