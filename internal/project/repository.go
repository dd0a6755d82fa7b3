package project

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"collabhub/internal/metrics"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Repository interface {
	CreateWithSkills(ctx context.Context, project *Project, skills []RequiredSkill) error
	GetByID(ctx context.Context, id int) (*Detail, error)
	GetProject(ctx context.Context, id int) (*Project, error)
	Snapshot(ctx context.Context, id int) (Snapshot, error)
	ListAll(ctx context.Context) ([]Summary, error)
	ListActionable(ctx context.Context, studentID int) ([]Summary, error)
	ListCreatedBy(ctx context.Context, studentID int) ([]Summary, error)
	ListParticipating(ctx context.Context, studentID int) ([]Summary, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id int) error
	CreateApplication(ctx context.Context, application *Application) error
	GetApplication(ctx context.Context, id int) (*Application, error)
	ListApplications(ctx context.Context, projectID int) ([]ApplicationView, error)
	AcceptApplication(ctx context.Context, applicationID int, role string, ownerID int) (*Application, error)
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

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}

// CreateWithSkills writes the project row and its required skills as a
// single atomic unit; any failure rolls back both.
func (r *repository) CreateWithSkills(ctx context.Context, project *Project, skills []RequiredSkill) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(project).Returning("*").Exec(ctx); err != nil {
			return err
		}

		for i := range skills {
			skills[i].ProjectID = project.ID
		}
		if len(skills) > 0 {
			if _, err := tx.NewInsert().Model(&skills).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "insert", "projects", time.Since(start), err)

	return err
}

func (r *repository) GetProject(ctx context.Context, id int) (*Project, error) {
	start := time.Now()
	project := new(Project)
	err := r.db.NewSelect().Model(project).Where("p.id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "projects", time.Since(start), err)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Detail, error) {
	project, err := r.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{
		Project:        *project,
		RequiredSkills: []RequiredSkillView{},
		TeamMembers:    []TeamMemberView{},
	}

	start := time.Now()
	var owner struct {
		FirstName string `bun:"first_name"`
		LastName  string `bun:"last_name"`
	}
	err = r.db.NewSelect().
		Table("students").
		Column("first_name", "last_name").
		Where("id = ?", project.OwnerID).
		Scan(ctx, &owner)
	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	detail.CreatorFirstName = owner.FirstName
	detail.CreatorLastName = owner.LastName

	start = time.Now()
	err = r.db.NewSelect().
		Model((*RequiredSkill)(nil)).
		ColumnExpr("sk.id AS skill_id").
		ColumnExpr("sk.name AS skill_name").
		ColumnExpr("prs.required_proficiency").
		Join("JOIN skills AS sk ON sk.id = prs.skill_id").
		Where("prs.project_id = ?", id).
		Scan(ctx, &detail.RequiredSkills)
	r.metrics.Database.RecordQuery(ctx, "select", "project_required_skills", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	err = r.db.NewSelect().
		Model((*TeamMember)(nil)).
		ColumnExpr("s.id AS student_id").
		ColumnExpr("s.first_name AS first_name").
		ColumnExpr("s.last_name AS last_name").
		ColumnExpr("pt.role").
		Join("JOIN students AS s ON s.id = pt.student_id").
		Where("pt.project_id = ?", id).
		Scan(ctx, &detail.TeamMembers)
	r.metrics.Database.RecordQuery(ctx, "select", "project_team_members", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return detail, nil
}

// Snapshot loads the membership state used by the access checks.
func (r *repository) Snapshot(ctx context.Context, id int) (Snapshot, error) {
	project, err := r.GetProject(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}

	start := time.Now()
	var memberIDs []int
	err = r.db.NewSelect().
		Model((*TeamMember)(nil)).
		Column("student_id").
		Where("project_id = ?", id).
		Scan(ctx, &memberIDs)
	r.metrics.Database.RecordQuery(ctx, "select", "project_team_members", time.Since(start), err)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		ProjectID: project.ID,
		OwnerID:   project.OwnerID,
		MemberIDs: memberIDs,
	}, nil
}

func (r *repository) listQuery() *bun.SelectQuery {
	return r.db.NewSelect().
		Model((*Project)(nil)).
		ColumnExpr("p.id AS project_id").
		ColumnExpr("p.title").
		ColumnExpr("p.description").
		ColumnExpr("p.status").
		ColumnExpr("p.created_at").
		ColumnExpr("s.first_name AS creator_first_name").
		ColumnExpr("s.last_name AS creator_last_name").
		Join("JOIN students AS s ON s.id = p.owner_id").
		OrderExpr("p.created_at DESC")
}

func (r *repository) ListAll(ctx context.Context) ([]Summary, error) {
	start := time.Now()
	summaries := []Summary{}
	err := r.listQuery().Scan(ctx, &summaries)

	r.metrics.Database.RecordQuery(ctx, "select", "projects", time.Since(start), err)

	return summaries, err
}

// ListActionable excludes projects the student has already applied to or is
// already a member of. Visibility only; details stay fetchable by id.
func (r *repository) ListActionable(ctx context.Context, studentID int) ([]Summary, error) {
	start := time.Now()
	summaries := []Summary{}
	err := r.listQuery().
		Where("p.id NOT IN (SELECT project_id FROM project_applications WHERE student_id = ?)", studentID).
		Where("p.id NOT IN (SELECT project_id FROM project_team_members WHERE student_id = ?)", studentID).
		Scan(ctx, &summaries)

	r.metrics.Database.RecordQuery(ctx, "select", "projects", time.Since(start), err)

	return summaries, err
}

func (r *repository) ListCreatedBy(ctx context.Context, studentID int) ([]Summary, error) {
	start := time.Now()
	summaries := []Summary{}
	err := r.listQuery().
		Where("p.owner_id = ?", studentID).
		Scan(ctx, &summaries)

	r.metrics.Database.RecordQuery(ctx, "select", "projects", time.Since(start), err)

	return summaries, err
}

func (r *repository) ListParticipating(ctx context.Context, studentID int) ([]Summary, error) {
	start := time.Now()
	summaries := []Summary{}
	err := r.listQuery().
		Join("JOIN project_team_members AS pt ON pt.project_id = p.id").
		Where("pt.student_id = ?", studentID).
		Where("p.owner_id != ?", studentID).
		Scan(ctx, &summaries)

	r.metrics.Database.RecordQuery(ctx, "select", "projects", time.Since(start), err)

	return summaries, err
}

func (r *repository) Update(ctx context.Context, project *Project) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(project).
		Column("title", "description", "status").
		WherePK().
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "projects", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Delete removes the project and everything hanging off it (required skills,
// applications, memberships, chat log) in one transaction.
func (r *repository) Delete(ctx context.Context, id int) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		childTables := []string{
			"project_required_skills",
			"project_applications",
			"project_team_members",
			"project_messages",
		}
		for _, table := range childTables {
			if _, err := tx.NewDelete().
				Table(table).
				Where("project_id = ?", id).
				Exec(ctx); err != nil {
				return err
			}
		}

		result, err := tx.NewDelete().
			Model((*Project)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrProjectNotFound
		}
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "delete", "projects", time.Since(start), err)

	return err
}

func (r *repository) CreateApplication(ctx context.Context, application *Application) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(application).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "project_applications", time.Since(start), err)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateApplication
		}
		return err
	}
	return nil
}

func (r *repository) GetApplication(ctx context.Context, id int) (*Application, error) {
	start := time.Now()
	application := new(Application)
	err := r.db.NewSelect().Model(application).Where("pa.id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "project_applications", time.Since(start), err)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return application, nil
}

func (r *repository) ListApplications(ctx context.Context, projectID int) ([]ApplicationView, error) {
	start := time.Now()
	applications := []ApplicationView{}
	err := r.db.NewSelect().
		Model((*Application)(nil)).
		ColumnExpr("pa.id AS application_id").
		ColumnExpr("s.id AS student_id").
		ColumnExpr("s.first_name AS first_name").
		ColumnExpr("s.last_name AS last_name").
		ColumnExpr("s.email").
		ColumnExpr("pa.application_date").
		Join("JOIN students AS s ON s.id = pa.student_id").
		Where("pa.project_id = ?", projectID).
		Order("pa.application_date ASC").
		Scan(ctx, &applications)

	r.metrics.Database.RecordQuery(ctx, "select", "project_applications", time.Since(start), err)

	return applications, err
}

// AcceptApplication promotes the applicant to a team member. The ownership
// check runs again inside the transaction with the membership insert, so the
// accept cannot land on a project the caller no longer owns. The application
// row is kept as history.
func (r *repository) AcceptApplication(ctx context.Context, applicationID int, role string, ownerID int) (*Application, error) {
	start := time.Now()
	application := new(Application)
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(application).Where("pa.id = ?", applicationID).Scan(ctx)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrApplicationNotFound
			}
			return err
		}

		project := new(Project)
		err = tx.NewSelect().Model(project).Where("p.id = ?", application.ProjectID).Scan(ctx)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrProjectNotFound
			}
			return err
		}
		if project.OwnerID != ownerID {
			return ErrForbidden
		}

		member := &TeamMember{
			ProjectID: application.ProjectID,
			StudentID: application.StudentID,
			Role:      role,
		}
		if _, err := tx.NewInsert().Model(member).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyMember
			}
			return err
		}
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "insert", "project_team_members", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return application, nil
}
