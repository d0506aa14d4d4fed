package inmemdb

import (
	"sync"

	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/student"
)

// DB is a process local database. Its tables share one lock so cascades stay consistent.
type DB struct {
	mu         sync.RWMutex
	meals      map[string]meal.Meal
	students   map[string]student.Student
	selections map[string]map[string]meal.Type // {mealID: {studentID: type}}
}

func Open() *DB {
	return &DB{
		meals:      make(map[string]meal.Meal),
		students:   make(map[string]student.Student),
		selections: make(map[string]map[string]meal.Type),
	}
}
