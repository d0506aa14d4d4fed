package selection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
)

// Scheduler periodically runs the meal jobs enabled in core.SchedulerConfig:
//   - reminder: notify the staff once per meal when its selection window is about to close
//   - auto-select: randomly assign every unselected student once the selection window closed
//   - cleanup: delete meals that ended more than CleanupAfter ago
type Scheduler struct {
	conf     core.SchedulerConfig
	meals    Meals
	reporter *Reporter
	assigner *Assigner
	reminder *Reminder
	logger   core.Logger
	nowFunc  func() time.Time

	mu           sync.Mutex
	reminded     map[string]bool
	autoSelected map[string]bool
}

func NewScheduler(
	conf core.SchedulerConfig,
	meals Meals,
	reporter *Reporter,
	assigner *Assigner,
	reminder *Reminder,
	logger core.Logger,
) *Scheduler {
	return &Scheduler{
		conf:         conf,
		meals:        meals,
		reporter:     reporter,
		assigner:     assigner,
		reminder:     reminder,
		logger:       logger,
		nowFunc:      time.Now,
		reminded:     make(map[string]bool),
		autoSelected: make(map[string]bool),
	}
}

// SetNowFunc overrides the clock used to decide which jobs are due.
func (s *Scheduler) SetNowFunc(now func() time.Time) { s.nowFunc = now }

// Run ticks every conf.Interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.conf.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.logger.Error(fmt.Sprintf("scheduler tick: %v", err), err)
			}
		}
	}
}

// Tick runs every due job once. Failures of a job on one meal are logged and do not stop the others.
func (s *Scheduler) Tick(ctx context.Context) error {
	meals, err := s.meals.Query(ctx)
	if err != nil {
		return errors.Wrap(err, "querying meals")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	var expired []string
	for _, m := range meals {
		if s.conf.ReminderEnabled && s.reminderDue(m, now) {
			s.remind(ctx, m)
		}
		if s.conf.AutoSelectEnabled && s.autoSelectDue(m, now) {
			s.autoSelect(ctx, m)
		}
		if s.conf.CleanupEnabled && m.EffectiveEnd.Add(s.conf.CleanupAfter).Before(now) {
			expired = append(expired, m.ID)
		}
	}

	if len(expired) > 0 {
		if err = s.meals.Delete(ctx, expired...); err != nil {
			return errors.Wrap(err, "deleting expired meals")
		}
		for _, id := range expired {
			delete(s.reminded, id)
			delete(s.autoSelected, id)
		}
		s.logger.Info(fmt.Sprintf("scheduler: deleted %d expired meal(s)", len(expired)))
	}
	return nil
}

func (s *Scheduler) reminderDue(m meal.Meal, now time.Time) bool {
	return !s.reminded[m.ID] && meal.Selectable(m, now) && m.SelectionEnd.Sub(now) <= s.conf.ReminderBeforeEnd
}

// autoSelectDue is true once selection closed and until the meal expires.
func (s *Scheduler) autoSelectDue(m meal.Meal, now time.Time) bool {
	return !s.autoSelected[m.ID] && !now.Before(m.SelectionEnd) && now.Before(m.EffectiveEnd)
}

func (s *Scheduler) remind(ctx context.Context, m meal.Meal) {
	n, err := s.reminder.NotifyUnselected(ctx, m.ID)
	if errors.Is(err, ErrNoRecipients) {
		s.reminded[m.ID] = true
		s.logger.Warn(fmt.Sprintf("scheduler: skipping reminder of meal %s: %v", m.ID, err))
		return
	}
	if err != nil {
		s.logger.Error(fmt.Sprintf("scheduler: reminding meal %s: %v", m.ID, err), err)
		return
	}
	s.reminded[m.ID] = true
	s.logger.Info(fmt.Sprintf("scheduler: reminded staff of %d unselected student(s) for meal %s", n, m.ID))
}

func (s *Scheduler) autoSelect(ctx context.Context, m meal.Meal) {
	students, err := s.reporter.Unselected(ctx, m.ID)
	if err != nil {
		s.logger.Error(fmt.Sprintf("scheduler: listing unselected students of meal %s: %v", m.ID, err), err)
		return
	}
	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	if err = s.assigner.Assign(ctx, ids, m.ID, PolicyRandom); err != nil {
		// partial or not, the next tick retries the students still unselected
		s.logger.Error(fmt.Sprintf("scheduler: auto-selecting meal %s: %v", m.ID, err), err)
		return
	}
	s.autoSelected[m.ID] = true
	s.logger.Info(fmt.Sprintf("scheduler: auto-selected %d student(s) for meal %s", len(ids), m.ID))
}
