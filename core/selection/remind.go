package selection

import (
	"context"
	"net/mail"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/student"
)

var ErrNoRecipients = errors.New("no staff email configured")

var unselectedTmpl = template.Must(template.New("unselected").Parse(
	`{{len .Students}} student(s) have not chosen a meal type for "{{.Meal.Name}}" yet.
Selection closes on {{.Meal.SelectionEnd.Format "2006-01-02 15:04 MST"}}.
{{range .Classes}}
{{.Name}}:
{{range .Students}}  - {{.FullName}}
{{end}}{{end}}`))

type (
	classGroup struct {
		Name     string
		Students []student.Student
	}

	unselectedData struct {
		Meal     meal.Meal
		Students []student.Student
		Classes  []classGroup
	}
)

// Reminder emails the canteen staff the students that still have to choose.
type Reminder struct {
	reporter *Reporter
	meals    MealFinder
	mailSvc  core.EmailService
	staff    []mail.Address
	nowFunc  func() time.Time
}

func NewReminder(reporter *Reporter, meals MealFinder, mailSvc core.EmailService, staff []mail.Address) *Reminder {
	return &Reminder{
		reporter: reporter,
		meals:    meals,
		mailSvc:  mailSvc,
		staff:    staff,
		nowFunc:  time.Now,
	}
}

// SetNowFunc overrides the clock used to check the meal's state.
func (r *Reminder) SetNowFunc(now func() time.Time) { r.nowFunc = now }

// NotifyUnselected mails the students without a selection for mealID, grouped by class.
// It only runs while the meal is selectable and returns the number of students listed;
// nothing is sent when everyone has chosen.
func (r *Reminder) NotifyUnselected(ctx context.Context, mealID string) (int, error) {
	if len(r.staff) == 0 {
		return 0, ErrNoRecipients
	}
	if mealID == "" {
		return 0, &PreconditionError{Field: "meal_id", Reason: "no meal selected"}
	}

	m, err := r.meals.GetByID(ctx, mealID)
	if err != nil {
		if errors.Is(err, meal.ErrNotFound) {
			return 0, &PreconditionError{Field: "meal_id", Reason: meal.ErrNotFound.Error()}
		}
		return 0, errors.Wrap(err, "finding meal")
	}
	if !meal.Selectable(m, r.nowFunc()) {
		return 0, ErrNotSelectable
	}

	students, err := r.reporter.Unselected(ctx, mealID)
	if err != nil {
		return 0, errors.Wrap(err, "listing unselected students")
	}
	if len(students) == 0 {
		return 0, nil
	}

	r.mailSvc.SendMessages(&core.EmailMessage{
		To:           r.staff,
		Subject:      "Students without a meal selection: " + m.Name,
		Template:     unselectedTmpl,
		TemplateData: unselectedData{Meal: m, Students: students, Classes: groupByClass(students)},
	})
	return len(students), nil
}

// groupByClass keeps the order of students, which is sorted by class.
func groupByClass(students []student.Student) []classGroup {
	var groups []classGroup
	for _, s := range students {
		if n := len(groups); n > 0 && groups[n-1].Name == s.ClassName {
			groups[n-1].Students = append(groups[n-1].Students, s)
			continue
		}
		groups = append(groups, classGroup{Name: s.ClassName, Students: []student.Student{s}})
	}
	return groups
}
