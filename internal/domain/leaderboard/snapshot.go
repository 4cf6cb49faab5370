package leaderboard

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - состояние лидерборда на момент генерации.
// Используется для публикации во внешний кеш.
type Snapshot struct {
	// GeneratedAt - время генерации рейтинга.
	GeneratedAt time.Time

	// Standings - строки лидерборда в порядке рангов.
	Standings []Standing

	// byID - индекс для быстрого поиска по ID.
	byID map[string]Standing
}

// NewSnapshot создаёт снапшот из рейтинга.
func NewSnapshot(ranking *Ranking, at time.Time) *Snapshot {
	var standings []Standing
	if ranking != nil {
		standings = ranking.Standings()
	}

	byID := make(map[string]Standing, len(standings))
	for _, s := range standings {
		byID[s.StudentID] = s
	}

	return &Snapshot{
		GeneratedAt: at.UTC(),
		Standings:   standings,
		byID:        byID,
	}
}

// GetRank возвращает ранг студента по его ID.
// Возвращает 0, если студент не найден.
func (s *Snapshot) GetRank(studentID string) Rank {
	return s.byID[studentID].Rank
}

// Top возвращает первые n строк.
func (s *Snapshot) Top(n int) []Standing {
	if n <= 0 {
		return []Standing{}
	}
	if n > len(s.Standings) {
		n = len(s.Standings)
	}
	result := make([]Standing, n)
	copy(result, s.Standings[:n])
	return result
}

// Count возвращает количество строк.
func (s *Snapshot) Count() int {
	return len(s.Standings)
}

// TotalHours возвращает сумму часов всех студентов.
func (s *Snapshot) TotalHours() int {
	total := 0
	for _, st := range s.Standings {
		total += st.TotalHours
	}
	return total
}

// TopHours возвращает часы лидера или 0 для пустого рейтинга.
func (s *Snapshot) TopHours() int {
	if len(s.Standings) == 0 {
		return 0
	}
	return s.Standings[0].TotalHours
}

// Meta - сводка опубликованного лидерборда.
type Meta struct {
	GeneratedAt   time.Time `json:"generatedAt"`
	TotalStudents int       `json:"totalStudents"`
	TotalHours    int       `json:"totalHours"`
	TopHours      int       `json:"topHours"`
}

// Meta возвращает сводку снапшота.
func (s *Snapshot) Meta() Meta {
	return Meta{
		GeneratedAt:   s.GeneratedAt,
		TotalStudents: s.Count(),
		TotalHours:    s.TotalHours(),
		TopHours:      s.TopHours(),
	}
}

// String возвращает краткое описание снапшота.
func (s *Snapshot) String() string {
	return fmt.Sprintf("Snapshot{at=%s, students=%d}", s.GeneratedAt.Format(time.RFC3339), len(s.Standings))
}
