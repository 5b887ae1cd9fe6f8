package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParticipantProgressPercent(t *testing.T) {
	cases := []struct {
		name     string
		answered int
		total    int
		want     int
	}{
		{"three quarters", 15, 20, 75},
		{"rounds half up", 1, 8, 13},
		{"rounds down", 1, 3, 33},
		{"complete", 20, 20, 100},
		{"nothing answered", 0, 20, 0},
		{"empty paper", 5, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Participant{AnsweredCount: tc.answered}
			require.Equal(t, tc.want, p.ProgressPercent(tc.total))
		})
	}
}

func TestParticipantLifecycleFlags(t *testing.T) {
	now := time.Now()

	p := &Participant{}
	require.False(t, p.HasStarted())
	require.False(t, p.IsCompleted())

	p.ExamStartedAt = &now
	require.True(t, p.HasStarted())
	require.False(t, p.IsCompleted())

	p.CompletedAt = &now
	require.True(t, p.IsCompleted())
}
