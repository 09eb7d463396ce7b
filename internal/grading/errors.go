package grading

import (
	"errors"

	"github.com/Spok95/omr-grader/internal/db"
	"github.com/Spok95/omr-grader/internal/recognizer"
)

// Ошибки конвейера проверки. Автоматических повторов нет: пересдать скан решает клиент.
var (
	// ErrNotFound — экзамен/ученик не существует или принадлежит другому учителю.
	ErrNotFound = db.ErrNotFound
	// ErrValidation — неверная форма запроса, до начала обработки.
	ErrValidation = errors.New("validation failed")
	// ErrRecognitionProcess — распознаватель не запустился, упал или не уложился в таймаут.
	ErrRecognitionProcess = recognizer.ErrProcess
	// ErrRecognitionLogic — распознаватель отработал, но вернул {"error": ...}.
	ErrRecognitionLogic = recognizer.ErrLogic
	// ErrPersistence — запись результата не удалась, транзакция откатана целиком.
	ErrPersistence = errors.New("persist result")
)

// Outcome для метрик omr_scans_total.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRecognitionLogic):
		return "recognition_logic"
	case errors.Is(err, ErrRecognitionProcess):
		return "recognition_process"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	}
	return "other"
}
