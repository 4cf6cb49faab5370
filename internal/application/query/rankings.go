// Package query contains read operations following CQRS pattern.
// Рейтинг - исключение: генерация перезаписывает кешированные суммы часов
// студентов значениями, пересчитанными из журнала.
package query

import (
	"context"
	"log/slog"
	"sync"

	"github.com/servicehours/hours-hub/internal/domain/account"
	"github.com/servicehours/hours-hub/internal/domain/leaderboard"
	"github.com/servicehours/hours-hub/internal/domain/shared"
	"github.com/servicehours/hours-hub/internal/domain/store"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING ENGINE
// Строит рейтинг студентов по подтверждённым часам.
// Последний сгенерированный рейтинг хранится в памяти и сбрасывается
// событием подтверждения часов.
// ══════════════════════════════════════════════════════════════════════════════

// Rankings - движок рейтинга.
type Rankings struct {
	store     store.Store
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *slog.Logger

	mu         sync.RWMutex
	cached     *leaderboard.Ranking
	generation uint64
}

// NewRankings создаёт движок рейтинга.
func NewRankings(st store.Store, publisher shared.EventPublisher, clock shared.Clock, logger *slog.Logger) *Rankings {
	if clock == nil {
		clock = shared.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rankings{
		store:     st,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With("handler", "rankings"),
	}
}

// GenerateRankings пересчитывает суммы из журнала, перезаписывает кешированные
// TotalHours и возвращает студентов по убыванию часов (при равенстве - по ID).
func (r *Rankings) GenerateRankings(ctx context.Context) ([]*account.Student, error) {
	ranking, err := r.generate(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.All(), nil
}

// TopAchievers возвращает первые n студентов кешированного рейтинга,
// генерируя его при отсутствии.
func (r *Rankings) TopAchievers(ctx context.Context, n int) ([]*account.Student, error) {
	ranking, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.Top(n), nil
}

// Standings возвращает строки лидерборда для отображения.
func (r *Rankings) Standings(ctx context.Context) ([]leaderboard.Standing, error) {
	ranking, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.Standings(), nil
}

// Snapshot генерирует свежий рейтинг и возвращает его снапшот для публикации.
func (r *Rankings) Snapshot(ctx context.Context) (*leaderboard.Snapshot, error) {
	ranking, err := r.generate(ctx)
	if err != nil {
		return nil, err
	}
	return leaderboard.NewSnapshot(ranking, r.clock()), nil
}

// Invalidate сбрасывает кешированный рейтинг.
func (r *Rankings) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
	r.generation++
}

// OnStandingsChanged - обработчик событий шины (подтверждение часов,
// регистрация студента): сбрасывает кеш.
func (r *Rankings) OnStandingsChanged(shared.Event) error {
	r.Invalidate()
	return nil
}

func (r *Rankings) current(ctx context.Context) (*leaderboard.Ranking, error) {
	r.mu.RLock()
	cached := r.cached
	r.mu.RUnlock()

	if cached != nil {
		return cached, nil
	}
	return r.generate(ctx)
}

func (r *Rankings) generate(ctx context.Context) (*leaderboard.Ranking, error) {
	r.mu.RLock()
	startGen := r.generation
	r.mu.RUnlock()

	var (
		ranking *leaderboard.Ranking
		updated int
	)
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		updated = 0

		// Блокировка студентов по возрастанию ID, как и у остальных писателей.
		students, err := tx.Students().LockAll(ctx)
		if err != nil {
			return err
		}
		totals, err := tx.Entries().ConfirmedTotals(ctx)
		if err != nil {
			return err
		}

		for _, s := range students {
			total := totals[s.ID]
			if s.TotalHours == total {
				continue
			}
			if err := tx.Students().UpdateTotalHours(ctx, s.ID, total); err != nil {
				return err
			}
			s.TotalHours = total
			updated++
		}

		ranking = leaderboard.NewRanking(students)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	// Подтверждение, пришедшее во время генерации, делает результат устаревшим.
	if r.generation == startGen {
		r.cached = ranking
	}
	r.mu.Unlock()

	if updated > 0 {
		r.logger.Warn("cached totals drifted from ledger", "students_updated", updated)
	}
	r.logger.Debug("rankings generated", "students", ranking.Count())

	if r.publisher != nil {
		top := 0
		if leaders := ranking.Top(1); len(leaders) == 1 {
			top = leaders[0].TotalHours
		}
		if err := r.publisher.Publish(shared.NewLeaderboardUpdatedEvent(ranking.Count(), top)); err != nil {
			r.logger.Warn("failed to publish event", "event_type", shared.EventLeaderboardUpdated, "error", err)
		}
	}

	return ranking, nil
}
