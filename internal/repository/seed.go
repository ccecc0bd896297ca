package repository

import (
	"context"
	"time"

	"github.com/nexlearn/assess-go-api/internal/models"
)

// SeedStore builds a memory store pre-loaded with the demo catalog. It
// backs the offline fallback so the authoring and grading workflow stays
// demonstrable without a reachable database.
func SeedStore() *MemoryStore {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, assessment := range seedAssessments() {
		a := assessment
		_ = store.Assessments().Create(ctx, &a)
	}

	return store
}

func seedAssessments() []models.Assessment {
	reactDate := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)
	jsDate := time.Date(2024, time.February, 18, 0, 0, 0, 0, time.UTC)
	todoDue := time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)
	apiDue := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)

	reactTest := models.Assessment{
		Kind:            models.AssessmentKindTest,
		Title:           "React Fundamentals Test",
		Description:     "Test on React basics and hooks",
		CourseID:        1,
		Date:            &reactDate,
		DurationMinutes: 60,
		TotalMarks:      30,
	}
	reactTest.SetQuestions([]models.Question{
		{
			Kind:          models.QuestionKindSingle,
			Text:          "What is JSX?",
			Marks:         10,
			Options:       []string{"JavaScript XML", "Java Syntax Extension", "JSON XML", "JavaScript Extension"},
			CorrectAnswer: []int{0},
		},
		{
			Kind:          models.QuestionKindSingle,
			Text:          "Which hook is used for side effects?",
			Marks:         10,
			Options:       []string{"useState", "useEffect", "useContext", "useReducer"},
			CorrectAnswer: []int{1},
		},
		{
			Kind:          models.QuestionKindSingle,
			Text:          "What does useState return?",
			Marks:         10,
			Options:       []string{"A value", "An array with state and setter", "An object", "A function"},
			CorrectAnswer: []int{1},
		},
	})

	jsTest := models.Assessment{
		Kind:            models.AssessmentKindTest,
		Title:           "JavaScript ES6 Quiz",
		Description:     "Modern JavaScript features",
		CourseID:        2,
		Date:            &jsDate,
		DurationMinutes: 45,
		TotalMarks:      20,
	}
	jsTest.SetQuestions([]models.Question{
		{
			Kind:          models.QuestionKindSingle,
			Text:          "What is arrow function syntax?",
			Marks:         10,
			Options:       []string{"function() {}", "() => {}", "func => {}", "arrow()"},
			CorrectAnswer: []int{1},
		},
		{
			Kind:          models.QuestionKindSingle,
			Text:          "What does spread operator do?",
			Marks:         10,
			Options:       []string{"Multiplies arrays", "Expands iterables", "Divides objects", "None"},
			CorrectAnswer: []int{1},
		},
	})

	todoAssignment := models.Assessment{
		Kind:        models.AssessmentKindAssignment,
		Title:       "React Hooks Todo App",
		Description: "Build a todo application using React hooks",
		CourseID:    1,
		DueDate:     &todoDue,
		TotalMarks:  100,
	}
	todoAssignment.SetQuestions([]models.Question{
		{Kind: models.QuestionKindDescriptive, Text: "Implement useState for managing todo list", Marks: 30},
		{Kind: models.QuestionKindDescriptive, Text: "Use useEffect for localStorage persistence", Marks: 30},
		{Kind: models.QuestionKindDescriptive, Text: "Add delete and edit functionality", Marks: 40},
	})

	apiAssignment := models.Assessment{
		Kind:        models.AssessmentKindAssignment,
		Title:       "REST API with Express",
		Description: "Build a REST API backend",
		CourseID:    3,
		DueDate:     &apiDue,
		TotalMarks:  100,
	}
	apiAssignment.SetQuestions([]models.Question{
		{Kind: models.QuestionKindDescriptive, Text: "Create CRUD endpoints for users", Marks: 40},
		{Kind: models.QuestionKindDescriptive, Text: "Implement authentication middleware", Marks: 30},
		{Kind: models.QuestionKindDescriptive, Text: "Add input validation", Marks: 30},
	})

	return []models.Assessment{reactTest, jsTest, todoAssignment, apiAssignment}
}
