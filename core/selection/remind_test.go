package selection

import (
	"context"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cantine/core/meal"
)

var staff = []mail.Address{{Name: "Canteen", Address: "canteen@school.test"}}

func newTestReminder(now string, to []mail.Address) (*Reminder, *fakeStore, *mailRecorder) {
	store := newFakeStore(students()...)
	meals := newFakeMeals(lunch())
	mailer := new(mailRecorder)
	r := NewReminder(NewReporter(store, meals), meals, mailer, to)
	r.SetNowFunc(clock(now))
	return r, store, mailer
}

func TestReminder_NotifyUnselected(t *testing.T) {
	r, store, mailer := newTestReminder("2024-01-01T12:00", staff)
	store.set([]string{"101", "104"}, "lunch", meal.TypeA)

	n, err := r.NotifyUnselected(context.Background(), "lunch")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, staff, msg.To)
	assert.Contains(t, msg.Subject, "Lunch")
	assert.Contains(t, msg.TextContent, "2 student(s)")
	assert.Contains(t, msg.TextContent, "1A:\n  - Carol\n")
	assert.Contains(t, msg.TextContent, "1B:\n  - Bob\n")
	assert.NotContains(t, msg.TextContent, "Alice")
}

func TestReminder_NotifyUnselected_nobodyLeft(t *testing.T) {
	r, store, mailer := newTestReminder("2024-01-01T12:00", staff)
	store.set([]string{"101", "102", "103", "104"}, "lunch", meal.TypeB)

	n, err := r.NotifyUnselected(context.Background(), "lunch")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, mailer.sent)
}

func TestReminder_NotifyUnselected_errors(t *testing.T) {
	tests := []struct {
		name      string
		now       string
		to        []mail.Address
		mealID    string
		wantErr   error
		wantField string
	}{
		{name: "no recipients", now: "2024-01-01T12:00", mealID: "lunch", wantErr: ErrNoRecipients},
		{name: "not selectable", now: "2024-01-02T12:00", to: staff, mealID: "lunch", wantErr: ErrNotSelectable},
		{name: "no meal", now: "2024-01-01T12:00", to: staff, wantField: "meal_id"},
		{name: "unknown meal", now: "2024-01-01T12:00", to: staff, mealID: "dinner", wantField: "meal_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, mailer := newTestReminder(tt.now, tt.to)

			_, err := r.NotifyUnselected(context.Background(), tt.mealID)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				var pErr *PreconditionError
				require.ErrorAs(t, err, &pErr)
				assert.Equal(t, tt.wantField, pErr.Field)
			}
			assert.Empty(t, mailer.sent)
		})
	}
}
