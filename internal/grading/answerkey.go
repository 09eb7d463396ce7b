package grading

import "github.com/Spok95/omr-grader/internal/models"

// KeyEntry — правильный ответ и вес одного вопроса.
type KeyEntry struct {
	QuestionID    int64
	CorrectAnswer string
	Points        int
}

// AnswerKey индексирует ключ экзамена по номеру вопроса (не по id строки).
type AnswerKey map[int]KeyEntry

// BuildIndex строит индекс по уже загруженным вопросам экзамена.
// Экзамен без вопросов даёт пустой индекс, это не ошибка.
func BuildIndex(exam *models.Exam) AnswerKey {
	if exam == nil {
		return AnswerKey{}
	}
	key := make(AnswerKey, len(exam.Questions))
	for _, q := range exam.Questions {
		key[q.QuestionNumber] = KeyEntry{
			QuestionID:    q.ID,
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
		}
	}
	return key
}
