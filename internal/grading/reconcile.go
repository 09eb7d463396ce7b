package grading

import "github.com/Spok95/omr-grader/internal/models"

// Outcome — исход одной распознанной отметки, сопоставленной с ключом.
type Outcome struct {
	QuestionID     int64
	QuestionNumber int
	MarkedAnswer   string
	IsCorrect      bool
	Points         int
}

type Reconciliation struct {
	RawScore     int
	EarnedPoints int
	Outcomes     []Outcome

	// Skipped — отметки по вопросам, которых нет в ключе.
	Skipped int
	// Duplicates — повторные отметки одного вопроса, перекрытые последней.
	Duplicates int
}

// Reconcile сверяет отметки с ключом в порядке, в котором их вернул распознаватель.
//
// Отметка по вопросу вне ключа молча пропускается. Сравнение точное, с учётом регистра.
// Повторная отметка того же вопроса заменяет предыдущую на её месте (последняя побеждает),
// так что вопрос никогда не засчитывается дважды. Вопросы без отметок строк не дают.
func Reconcile(detections []models.Detection, key AnswerKey) Reconciliation {
	var r Reconciliation
	pos := make(map[int]int, len(detections))

	for _, d := range detections {
		entry, ok := key[d.QuestionNumber]
		if !ok {
			r.Skipped++
			continue
		}
		o := Outcome{
			QuestionID:     entry.QuestionID,
			QuestionNumber: d.QuestionNumber,
			MarkedAnswer:   d.MarkedAnswer,
			IsCorrect:      d.MarkedAnswer == entry.CorrectAnswer,
			Points:         entry.Points,
		}
		if i, seen := pos[d.QuestionNumber]; seen {
			r.Outcomes[i] = o
			r.Duplicates++
			continue
		}
		pos[d.QuestionNumber] = len(r.Outcomes)
		r.Outcomes = append(r.Outcomes, o)
	}

	for _, o := range r.Outcomes {
		if o.IsCorrect {
			r.RawScore++
			r.EarnedPoints += o.Points
		}
	}
	return r
}
