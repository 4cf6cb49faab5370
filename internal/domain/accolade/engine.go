package accolade

import (
	"context"

	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// Engine выдаёт награды по подтверждённой сумме часов студента.
// Вызывается внутри транзакции подтверждения, поэтому сам ничего не блокирует.
type Engine struct {
	milestones Milestones
	clock      shared.Clock
}

// NewEngine создаёт движок наград. Пустой набор порогов заменяется DefaultMilestones.
func NewEngine(milestones Milestones, clock shared.Clock) *Engine {
	if len(milestones) == 0 {
		milestones = DefaultMilestones
	}
	if clock == nil {
		clock = shared.SystemClock
	}
	return &Engine{milestones: milestones, clock: clock}
}

// Milestones возвращает настроенные пороги.
func (e *Engine) Milestones() Milestones {
	return e.milestones
}

// CheckAndAward создаёт недостающие награды для всех достигнутых порогов.
// Повторный вызов с той же суммой ничего не создаёт.
func (e *Engine) CheckAndAward(ctx context.Context, repo Repository, studentID string, totalHours int) ([]*Accolade, error) {
	var awarded []*Accolade

	for _, milestone := range e.milestones.Reached(totalHours) {
		exists, err := repo.Exists(ctx, studentID, milestone)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		a := New(studentID, milestone, e.clock())
		if err := repo.Create(ctx, a); err != nil {
			return nil, err
		}
		awarded = append(awarded, a)
	}

	return awarded, nil
}
