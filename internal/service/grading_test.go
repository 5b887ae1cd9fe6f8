package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrade(t *testing.T) {
	answerKey := map[string]string{
		"q1": "A",
		"q2": "B",
		"q3": "C",
		"q4": "D",
	}

	t.Run("mixed answers", func(t *testing.T) {
		answers := map[string]string{
			"q1": "A", // correct
			"q2": "C", // wrong
			"q3": "C", // correct
			// q4 blank
		}

		res := Grade(answerKey, answers)
		require.Equal(t, 2, res.CorrectCount)
		require.Equal(t, 1, res.WrongCount)
		require.Equal(t, 1, res.BlankCount)
		require.Equal(t, 50.0, res.Score)
	})

	t.Run("no answers means all blank", func(t *testing.T) {
		res := Grade(answerKey, map[string]string{})
		require.Equal(t, 4, res.BlankCount)
		require.Equal(t, 0.0, res.Score)
	})

	t.Run("empty answer counts as blank", func(t *testing.T) {
		res := Grade(answerKey, map[string]string{"q1": ""})
		require.Equal(t, 4, res.BlankCount)
		require.Equal(t, 0, res.WrongCount)
	})

	t.Run("answers outside the key are ignored", func(t *testing.T) {
		res := Grade(answerKey, map[string]string{
			"q1": "A", "q2": "B", "q3": "C", "q4": "D",
			"injected": "A",
		})
		require.Equal(t, 4, res.CorrectCount)
		require.Equal(t, 100.0, res.Score)
	})

	t.Run("score rounds to two decimals", func(t *testing.T) {
		key := map[string]string{"q1": "A", "q2": "B", "q3": "C"}
		res := Grade(key, map[string]string{"q1": "A"})
		require.Equal(t, 33.33, res.Score)
	})

	t.Run("empty key yields zero score", func(t *testing.T) {
		res := Grade(map[string]string{}, map[string]string{"q1": "A"})
		require.Equal(t, 0.0, res.Score)
		require.Equal(t, 0, res.CorrectCount)
	})
}
