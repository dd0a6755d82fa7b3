package chat

import (
	"context"
	"time"

	"collabhub/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, message *Message) error
	ListByProject(ctx context.Context, projectID int) ([]MessageView, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, message *Message) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(message).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "project_messages", time.Since(start), err)

	return err
}

// ListByProject returns the full transcript in chronological order; the id
// tiebreak keeps same-timestamp messages stable.
func (r *repository) ListByProject(ctx context.Context, projectID int) ([]MessageView, error) {
	start := time.Now()
	views := []MessageView{}
	err := r.db.NewSelect().
		Model((*Message)(nil)).
		ColumnExpr("m.id AS message_id").
		ColumnExpr("m.project_id, m.sender_id, m.message_text").
		ColumnExpr("m.created_at AS timestamp").
		ColumnExpr("s.first_name AS first_name").
		ColumnExpr("s.last_name AS last_name").
		Join("JOIN students AS s ON s.id = m.sender_id").
		Where("m.project_id = ?", projectID).
		OrderExpr("m.created_at ASC, m.id ASC").
		Scan(ctx, &views)

	r.metrics.Database.RecordQuery(ctx, "select", "project_messages", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return views, nil
}
