package models

import "time"

type Classroom struct {
	ID        int64     `json:"id"`
	TeacherID int64     `json:"user_id"`
	Name      string    `json:"name"`
	Section   *string   `json:"section"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Students []Student `json:"students,omitempty"`
}

type Student struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	ExternalID *string   `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Classrooms []Classroom `json:"classrooms,omitempty"`
}

func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.LastName + " " + s.FirstName
}
