package recognizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/omr-grader/internal/models"
)

var (
	// ErrProcess — распознаватель не удалось запустить, он упал, превысил таймаут
	// или вернул то, что нельзя разобрать.
	ErrProcess = errors.New("OMR Processing Failed")
	// ErrLogic — распознаватель отработал и вернул {"error": ...}.
	ErrLogic = errors.New("OMR Logic Error")
)

// payload — ответ скрипта; success/message/detected_questions игнорируются.
type payload struct {
	Answers    *[]detection `json:"answers"`
	DebugImage string       `json:"debug_image"`
	Error      *string      `json:"error"`
}

type detection struct {
	QuestionNumber *int    `json:"question_number"`
	MarkedAnswer   *string `json:"marked_answer"`
}

// Parse разбирает вывод распознавателя.
func Parse(out []byte) (*models.Recognition, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrProcess)
	}
	var p payload
	if err := json.Unmarshal(out, &p); err != nil {
		return nil, fmt.Errorf("%w: unparseable output: %v", ErrProcess, err)
	}
	if p.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrLogic, strings.TrimSpace(*p.Error))
	}
	if p.Answers == nil {
		return nil, fmt.Errorf("%w: malformed payload: no answers", ErrProcess)
	}

	rec := &models.Recognition{
		Answers:    make([]models.Detection, 0, len(*p.Answers)),
		DebugImage: p.DebugImage,
	}
	for i, d := range *p.Answers {
		if d.QuestionNumber == nil || d.MarkedAnswer == nil {
			return nil, fmt.Errorf("%w: malformed detection #%d", ErrProcess, i)
		}
		rec.Answers = append(rec.Answers, models.Detection{
			QuestionNumber: *d.QuestionNumber,
			MarkedAnswer:   *d.MarkedAnswer,
		})
	}
	return rec, nil
}

// обрезаем диагностику, чтобы не тащить в ответ мегабайты traceback
func clip(s string) string {
	s = strings.TrimSpace(s)
	const max = 2000
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}
