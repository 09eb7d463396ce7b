package models

// Detection — одна распознанная отметка на бланке.
type Detection struct {
	QuestionNumber int    `json:"question_number"`
	MarkedAnswer   string `json:"marked_answer"`
}

// Recognition — успешный ответ распознавателя.
type Recognition struct {
	Answers    []Detection `json:"answers"`
	DebugImage string      `json:"debug_image,omitempty"`
}
