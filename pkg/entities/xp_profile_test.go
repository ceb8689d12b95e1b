package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestXPProfile_NextLevelXP(t *testing.T) {
	p := &XPProfile{}
	require.Equal(t, 100, p.NextLevelXP())

	p.Level = 4
	require.Equal(t, 500, p.NextLevelXP())
}

func TestXPProfile_Award(t *testing.T) {
	p := &XPProfile{}

	require.False(t, p.Award(50))
	require.Equal(t, 50, p.XP)
	require.Equal(t, 0, p.Level)

	// Crossing the threshold levels up and rolls the residual over.
	require.True(t, p.Award(75))
	require.Equal(t, 25, p.XP)
	require.Equal(t, 1, p.Level)

	// The next level needs more experience than the previous one.
	require.False(t, p.Award(150))
	require.Equal(t, 175, p.XP)
	require.Equal(t, 1, p.Level)

	require.True(t, p.Award(25))
	require.Equal(t, 0, p.XP)
	require.Equal(t, 2, p.Level)
}
