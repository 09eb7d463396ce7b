package grading

import "github.com/Spok95/omr-grader/internal/models"

// TotalPossible — сумма баллов по всем вопросам ключа, а не только по распознанным.
func TotalPossible(questions []models.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// Percentage — процент от максимально возможного балла, в диапазоне [0, 100].
// При нулевом максимуме результат 0. Округление оставлено хранилищу (NUMERIC(5,2)).
func Percentage(earned int, questions []models.Question) float64 {
	total := TotalPossible(questions)
	if total <= 0 {
		return 0
	}
	p := float64(earned) / float64(total) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
