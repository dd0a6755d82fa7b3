package skill

import (
	"context"
	"time"

	"collabhub/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	GetAll(ctx context.Context) ([]Skill, error)
	GetStudentSkills(ctx context.Context, studentID int) ([]StudentSkillView, error)
	UpsertStudentSkill(ctx context.Context, skill *StudentSkill) error
	DeleteStudentSkill(ctx context.Context, studentID, skillID int) error
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

func (r *repository) GetAll(ctx context.Context) ([]Skill, error) {
	start := time.Now()
	var skills []Skill
	err := r.db.NewSelect().
		Model(&skills).
		Order("name ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "skills", time.Since(start), err)

	return skills, err
}

func (r *repository) GetStudentSkills(ctx context.Context, studentID int) ([]StudentSkillView, error) {
	start := time.Now()
	var skills []StudentSkillView
	err := r.db.NewSelect().
		Model((*StudentSkill)(nil)).
		ColumnExpr("sk.id AS skill_id").
		ColumnExpr("sk.name AS skill_name").
		ColumnExpr("ss.proficiency").
		ColumnExpr("ss.rating").
		Join("JOIN skills AS sk ON sk.id = ss.skill_id").
		Where("ss.student_id = ?", studentID).
		Scan(ctx, &skills)

	r.metrics.Database.RecordQuery(ctx, "select", "student_skills", time.Since(start), err)

	return skills, err
}

func (r *repository) UpsertStudentSkill(ctx context.Context, skill *StudentSkill) error {
	start := time.Now()
	_, err := r.db.NewInsert().
		Model(skill).
		On("CONFLICT (student_id, skill_id) DO UPDATE").
		Set("proficiency = EXCLUDED.proficiency").
		Set("rating = EXCLUDED.rating").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "student_skills", time.Since(start), err)

	return err
}

func (r *repository) DeleteStudentSkill(ctx context.Context, studentID, skillID int) error {
	start := time.Now()
	_, err := r.db.NewDelete().
		Model((*StudentSkill)(nil)).
		Where("student_id = ?", studentID).
		Where("skill_id = ?", skillID).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "student_skills", time.Since(start), err)

	return err
}
