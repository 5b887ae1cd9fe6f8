package service

import (
	"math"

	"github.com/aulalink/aula-backend/internal/model"
)

// Grade scores a set of autosaved answers against the answer key.
// Questions that were never answered count as blank, answered questions
// that miss the key count as wrong. The score is the correct percentage
// rounded to two decimals.
func Grade(answerKey map[string]string, answers map[string]string) model.Result {
	total := len(answerKey)
	result := model.Result{}

	for questionID, correct := range answerKey {
		given, ok := answers[questionID]
		switch {
		case !ok || given == "":
			result.BlankCount++
		case given == correct:
			result.CorrectCount++
		default:
			result.WrongCount++
		}
	}

	if total > 0 {
		result.Score = math.Round(float64(result.CorrectCount)/float64(total)*10000) / 100
	}
	return result
}
