//go:build testutil
// +build testutil

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/omr-grader/internal/models"
)

func TestClassroomsAndStudents(t *testing.T) {
	reset(t)
	section := "Б"
	c, err := CreateClassroom(testCtx, testDB, models.Classroom{TeacherID: teacherID, Name: "7", Section: &section})
	require.NoError(t, err)

	ext := "S-001"
	s, err := CreateStudent(testCtx, testDB, teacherID, c.ID, models.Student{FirstName: "Пётр", LastName: "Иванов", ExternalID: &ext})
	require.NoError(t, err)

	_, err = CreateStudent(testCtx, testDB, teacherID+1, c.ID, models.Student{FirstName: "X", LastName: "Y"})
	assert.ErrorIs(t, err, ErrNotFound, "чужой класс")

	got, err := GetClassroom(testCtx, testDB, teacherID, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Students, 1)
	assert.Equal(t, "Иванов", got.Students[0].LastName)

	ok, err := StudentOwnedBy(testCtx, testDB, teacherID, s.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = StudentOwnedBy(testCtx, testDB, teacherID+1, s.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	st, err := GetStudent(testCtx, testDB, teacherID, s.ID)
	require.NoError(t, err)
	require.Len(t, st.Classrooms, 1)
	assert.Equal(t, "S-001", *st.ExternalID)

	list, err := ListStudents(testCtx, testDB, teacherID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	c.Name = "8"
	upd, err := UpdateClassroom(testCtx, testDB, *c)
	require.NoError(t, err)
	assert.Equal(t, "8", upd.Name)

	cs, err := ListClassrooms(testCtx, testDB, teacherID)
	require.NoError(t, err)
	assert.Len(t, cs, 1)

	require.NoError(t, DeleteClassroom(testCtx, testDB, teacherID, c.ID))
	ok, err = StudentOwnedBy(testCtx, testDB, teacherID, s.ID)
	require.NoError(t, err)
	assert.False(t, ok, "после удаления класса ученик больше не принадлежит учителю")
}
