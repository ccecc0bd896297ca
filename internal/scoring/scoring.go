// Package scoring computes marks for choice questions. The policy is
// all-or-nothing: a selection earns the question's full marks only when it
// matches the correct set exactly, otherwise zero. There is no partial
// credit for partially-correct multi-select answers.
package scoring

import "github.com/nexlearn/assess-go-api/internal/models"

// Score returns the marks awarded for the given selection. It is total over
// any input: out-of-range indices and descriptive questions simply score
// zero, never an error. Order and duplicates within the selection are
// irrelevant.
func Score(q models.Question, selected []int) int {
	if !q.IsChoice() {
		return 0
	}

	correct := indexSet(q.CorrectAnswer)
	chosen := indexSet(selected)

	if len(correct) == 0 || len(chosen) != len(correct) {
		return 0
	}
	for idx := range chosen {
		if _, ok := correct[idx]; !ok {
			return 0
		}
	}

	return q.Marks
}

func indexSet(indices []int) map[int]struct{} {
	set := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		set[idx] = struct{}{}
	}
	return set
}
