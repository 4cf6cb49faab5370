// Package leaderboard содержит рейтинг студентов по подтверждённым часам.
// Порядок детерминирован: часы по убыванию, при равенстве - ID студента по возрастанию.
package leaderboard

import (
	"fmt"
	"sort"

	"github.com/servicehours/hours-hub/internal/domain/account"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию студента в лидерборде.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// ══════════════════════════════════════════════════════════════════════════════
// STANDING
// ══════════════════════════════════════════════════════════════════════════════

// Standing - строка лидерборда.
type Standing struct {
	Rank        Rank   `json:"rank"`
	StudentID   string `json:"studentID"`
	StudentName string `json:"studentName"`
	TotalHours  int    `json:"totalHours"`
}

// ToMap возвращает плоское представление строки лидерборда.
func (s Standing) ToMap() map[string]any {
	return map[string]any{
		"rank":        int(s.Rank),
		"studentID":   s.StudentID,
		"studentName": s.StudentName,
		"totalHours":  s.TotalHours,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (Ranked List)
// ══════════════════════════════════════════════════════════════════════════════

// Ranking - материализованный отсортированный список студентов.
type Ranking struct {
	students []*account.Student
}

// NewRanking сортирует студентов и возвращает рейтинг.
// Входной срез не изменяется.
func NewRanking(students []*account.Student) *Ranking {
	sorted := make([]*account.Student, len(students))
	copy(sorted, students)
	SortByHours(sorted)
	return &Ranking{students: sorted}
}

// SortByHours сортирует студентов по TotalHours (по убыванию), при равенстве - по ID.
func SortByHours(students []*account.Student) {
	sort.Slice(students, func(i, j int) bool {
		if students[i].TotalHours != students[j].TotalHours {
			return students[i].TotalHours > students[j].TotalHours
		}
		return students[i].ID < students[j].ID
	})
}

// All возвращает копию всего рейтинга.
func (r *Ranking) All() []*account.Student {
	result := make([]*account.Student, len(r.students))
	copy(result, r.students)
	return result
}

// Top возвращает первые n студентов. Для n <= 0 возвращает пустой срез.
func (r *Ranking) Top(n int) []*account.Student {
	if n <= 0 {
		return []*account.Student{}
	}
	if n > len(r.students) {
		n = len(r.students)
	}
	result := make([]*account.Student, n)
	copy(result, r.students[:n])
	return result
}

// Count возвращает количество студентов в рейтинге.
func (r *Ranking) Count() int {
	return len(r.students)
}

// Standings возвращает строки лидерборда; ранг - позиция в списке, начиная с 1.
func (r *Ranking) Standings() []Standing {
	result := make([]Standing, len(r.students))
	for i, s := range r.students {
		result[i] = Standing{
			Rank:        Rank(i + 1),
			StudentID:   s.ID,
			StudentName: s.Name,
			TotalHours:  s.TotalHours,
		}
	}
	return result
}
