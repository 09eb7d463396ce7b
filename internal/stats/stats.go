// Package stats — сводка по результатам экзамена: распределение процентов и анализ вопросов.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Spok95/omr-grader/internal/db"
	"github.com/Spok95/omr-grader/internal/models"
)

type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	// Histogram — число результатов по десяткам процентов: [0,10), [10,20) ... [90,100].
	Histogram []int `json:"histogram"`
}

// Item — вопрос ключа с долей верных ответов и дискриминацией
// (корреляция верности ответа с итоговым процентом).
type Item struct {
	db.QuestionStat
	Discrimination float64 `json:"discrimination"`
}

type Report struct {
	ExamID  int64   `json:"exam_id"`
	Summary Summary `json:"summary"`
	Items   []Item  `json:"items"`
}

// Summarize считает описательную статистику по процентам результатов.
func Summarize(results []models.Result) Summary {
	s := Summary{Count: len(results), Histogram: make([]int, 10)}
	if len(results) == 0 {
		return s
	}
	xs := make([]float64, len(results))
	for i, r := range results {
		xs[i] = r.Percentage
	}
	sort.Float64s(xs)

	s.Mean = stat.Mean(xs, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, xs, nil)
	if len(xs) > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)

	dividers := make([]float64, 11)
	floats.Span(dividers, 0, 100)
	// правая граница включает 100%
	dividers[10] = math.Nextafter(100, math.Inf(1))
	bins := stat.Histogram(nil, dividers, clamp(xs), nil)
	for i, b := range bins {
		s.Histogram[i] = int(b)
	}
	return s
}

// Items дополняет счётчики по вопросам дискриминацией, посчитанной по ответам результатов.
func Items(qs []db.QuestionStat, results []models.Result) []Item {
	out := make([]Item, len(qs))
	pct := make([]float64, len(results))
	for i, r := range results {
		pct[i] = r.Percentage
	}

	for i, q := range qs {
		out[i] = Item{QuestionStat: q}
		if len(results) < 2 {
			continue
		}
		correct := make([]float64, len(results))
		for j, r := range results {
			for _, a := range r.Answers {
				if a.QuestionNumber == q.QuestionNumber && a.IsCorrect {
					correct[j] = 1
					break
				}
			}
		}
		// при нулевой дисперсии корреляция не определена
		if c := stat.Correlation(correct, pct, nil); !math.IsNaN(c) {
			out[i].Discrimination = c
		}
	}
	return out
}

func clamp(xs []float64) []float64 {
	for i, x := range xs {
		xs[i] = math.Max(0, math.Min(100, x))
	}
	return xs
}
