package models

import "time"

type Result struct {
	ID             int64     `json:"id"`
	ExamID         int64     `json:"exam_id"`
	StudentID      *int64    `json:"student_id"`
	Percentage     float64   `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	RawScore       int       `json:"raw_score"`
	ScanImagePath  string    `json:"scan_image_path"`
	CreatedAt      time.Time `json:"created_at"`

	StudentName string          `json:"student_name,omitempty"`
	Exam        *Exam           `json:"exam,omitempty"`
	Answers     []StudentAnswer `json:"student_answers,omitempty"`
}

type StudentAnswer struct {
	ID         int64  `json:"id"`
	ResultID   int64  `json:"result_id"`
	QuestionID *int64 `json:"question_id"`
	// номер вопроса на момент проверки: ключ могут заменить позже
	QuestionNumber int    `json:"question_number"`
	MarkedAnswer   string `json:"marked_answer"`
	IsCorrect      bool   `json:"is_correct"`

	Question *Question `json:"question,omitempty"`
}
