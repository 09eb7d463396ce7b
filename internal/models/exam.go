package models

import "time"

// OMRCode — формат бланка (число позиций на листе), на расчёт баллов не влияет.
type OMRCode int

const (
	OMR20  OMRCode = 20
	OMR50  OMRCode = 50
	OMR100 OMRCode = 100
)

func (c OMRCode) Valid() bool {
	switch c {
	case OMR20, OMR50, OMR100:
		return true
	}
	return false
}

type Exam struct {
	ID        int64      `json:"id"`
	TeacherID int64      `json:"user_id"`
	Name      string     `json:"name"`
	Date      *time.Time `json:"date"`
	OMRCode   OMRCode    `json:"omr_code"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Questions []Question `json:"questions,omitempty"`
}

type Question struct {
	ID             int64  `json:"id"`
	ExamID         int64  `json:"exam_id"`
	QuestionNumber int    `json:"question_number"`
	CorrectAnswer  string `json:"correct_answer"`
	Points         int    `json:"points"`
}

// QuestionInput — элемент запроса на замену ключа ответов.
type QuestionInput struct {
	QuestionNumber int    `json:"question_number" validate:"required,gt=0"`
	CorrectAnswer  string `json:"correct_answer" validate:"required,len=1"`
	Points         *int   `json:"points" validate:"omitempty,gte=0"`
}
