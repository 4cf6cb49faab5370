// Package accolade содержит награды за достижение порогов подтверждённых часов.
// Награда выдаётся не более одного раза на пару (студент, порог) и никогда не отзывается.
package accolade

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// DefaultMilestones - пороги наград по умолчанию.
var DefaultMilestones = Milestones{10, 25, 50}

// Milestones - упорядоченный по возрастанию набор порогов.
type Milestones []int

// NewMilestones проверяет пороги и сортирует их по возрастанию.
// Возвращает ErrInvalidMilestones для пустого набора, неположительных или повторяющихся значений.
func NewMilestones(values ...int) (Milestones, error) {
	if len(values) == 0 {
		return nil, shared.ErrInvalidMilestones
	}

	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	for i, v := range sorted {
		if v <= 0 || (i > 0 && sorted[i-1] == v) {
			return nil, shared.ErrInvalidMilestones
		}
	}

	return Milestones(sorted), nil
}

// ParseMilestones разбирает строку вида "10,25,50".
func ParseMilestones(raw string) (Milestones, error) {
	parts := strings.Split(raw, ",")
	values := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, shared.WrapError("accolade", "Configure", shared.ErrValidation,
				fmt.Sprintf("invalid milestone %q", p), err)
		}
		values = append(values, v)
	}
	return NewMilestones(values...)
}

// Reached возвращает пороги, которых достигает total.
func (m Milestones) Reached(total int) []int {
	var reached []int
	for _, v := range m {
		if total >= v {
			reached = append(reached, v)
		}
	}
	return reached
}

// String возвращает пороги через запятую.
func (m Milestones) String() string {
	parts := make([]string, len(m))
	for i, v := range m {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Label возвращает отображаемое название награды.
func Label(milestone int) string {
	switch milestone {
	case 10:
		return "Bronze Service Award"
	case 25:
		return "Silver Service Award"
	case 50:
		return "Gold Service Award"
	default:
		return fmt.Sprintf("%d Hour Award", milestone)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Accolade - награда студента за достижение порога.
type Accolade struct {
	ID        string
	StudentID string
	Milestone int
	Name      string
	AwardedAt time.Time
}

// New создаёт награду за порог milestone.
func New(studentID string, milestone int, now time.Time) *Accolade {
	return &Accolade{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Milestone: milestone,
		Name:      Label(milestone),
		AwardedAt: now.UTC(),
	}
}

// ToMap возвращает плоское представление награды.
func (a *Accolade) ToMap() map[string]any {
	return map[string]any{
		"accoladeID":  a.ID,
		"studentID":   a.StudentID,
		"milestone":   a.Milestone,
		"name":        Label(a.Milestone),
		"dateAwarded": shared.FormatTime(&a.AwardedAt),
	}
}

// MapAll сериализует список наград.
func MapAll(accolades []*Accolade) []map[string]any {
	result := make([]map[string]any, 0, len(accolades))
	for _, a := range accolades {
		result = append(result, a.ToMap())
	}
	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт хранилища наград.
type Repository interface {
	// Create сохраняет награду.
	Create(ctx context.Context, accolade *Accolade) error

	// Exists проверяет, есть ли у студента награда за порог.
	Exists(ctx context.Context, studentID string, milestone int) (bool, error)

	// ListByStudent возвращает награды студента по возрастанию порога.
	ListByStudent(ctx context.Context, studentID string) ([]*Accolade, error)
}
