package leaderboard

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// PUBLISHING
// Реализации находятся в infrastructure/persistence/redis.
// ══════════════════════════════════════════════════════════════════════════════

// Publisher публикует сгенерированный лидерборд во внешнее хранилище для чтения.
type Publisher interface {
	// PublishSnapshot полностью заменяет опубликованный лидерборд.
	PublishSnapshot(ctx context.Context, snapshot *Snapshot) error
}

// Reader читает последний опубликованный лидерборд.
// Отсутствие публикации или студента в ней - shared.ErrNotFound.
type Reader interface {
	// GetTop возвращает первые count строк. count должен быть положительным.
	GetTop(ctx context.Context, count int) ([]Standing, error)

	// GetRank возвращает опубликованный ранг студента.
	GetRank(ctx context.Context, studentID string) (Rank, error)

	// GetMeta возвращает сводку последней публикации.
	GetMeta(ctx context.Context) (*Meta, error)
}
