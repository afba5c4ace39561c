package store

import (
	"context"
	"errors"
	"time"

	"github.com/deisterstuff/investment/internal/optimizer"
)

// ErrNotFound is returned when a run id is unknown
var ErrNotFound = errors.New("run not found")

// Repository stores optimization runs
// ⭐ SSOT: 실행 기록 저장/조회 계약
type Repository interface {
	Save(ctx context.Context, run *optimizer.Run) error
	Get(ctx context.Context, id string) (*optimizer.Run, error)
	ListRecent(ctx context.Context, limit int) ([]optimizer.Summary, error)
}

// DefaultListLimit is used when limit <= 0
const DefaultListLimit = 20

// Pruner deletes runs older than a cutoff
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
