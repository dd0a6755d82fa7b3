package project

import (
	"time"

	"github.com/uptrace/bun"
)

// Status is the closed set of project states.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusOnHold     Status = "on_hold"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

type Project struct {
	bun.BaseModel `bun:"table:projects,alias:p"`

	ID          int       `bun:"id,pk,autoincrement" json:"project_id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description,notnull" json:"description"`
	Status      Status    `bun:"status,notnull" json:"status"`
	OwnerID     int       `bun:"owner_id,notnull" json:"created_student_id"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// RequiredSkill rows are written only inside the project-create transaction.
type RequiredSkill struct {
	bun.BaseModel `bun:"table:project_required_skills,alias:prs"`

	ID                  int    `bun:"id,pk,autoincrement" json:"-"`
	ProjectID           int    `bun:"project_id,notnull,unique:project_skill" json:"-"`
	SkillID             int    `bun:"skill_id,notnull,unique:project_skill" json:"skill_id"`
	RequiredProficiency string `bun:"required_proficiency,notnull" json:"required_proficiency"`
}

// TeamMember is created exclusively by accepting an application. The
// (project_id, student_id) unique group makes a double accept fail at the
// storage layer instead of inserting a second membership.
type TeamMember struct {
	bun.BaseModel `bun:"table:project_team_members,alias:pt"`

	ID        int       `bun:"id,pk,autoincrement" json:"-"`
	ProjectID int       `bun:"project_id,notnull,unique:project_member" json:"project_id"`
	StudentID int       `bun:"student_id,notnull,unique:project_member" json:"student_id"`
	Role      string    `bun:"role,notnull" json:"role"`
	JoinedAt  time.Time `bun:"joined_at,notnull,default:current_timestamp" json:"joined_at"`
}

// Application's (project_id, student_id) unique group resolves concurrent
// duplicate submissions; there is no check-then-insert path.
type Application struct {
	bun.BaseModel `bun:"table:project_applications,alias:pa"`

	ID              int       `bun:"id,pk,autoincrement" json:"application_id"`
	ProjectID       int       `bun:"project_id,notnull,unique:project_applicant" json:"project_id"`
	StudentID       int       `bun:"student_id,notnull,unique:project_applicant" json:"student_id"`
	ApplicationDate time.Time `bun:"application_date,notnull,default:current_timestamp" json:"application_date"`
}

// Summary is a project list row with the owner's name resolved.
type Summary struct {
	ProjectID        int       `json:"project_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	CreatorFirstName string    `json:"creator_fname"`
	CreatorLastName  string    `json:"creator_lname"`
}

type RequiredSkillView struct {
	SkillID             int    `json:"skill_id"`
	SkillName           string `json:"skill_name"`
	RequiredProficiency string `json:"required_proficiency"`
}

type TeamMemberView struct {
	StudentID int    `json:"student_id"`
	FirstName string `json:"f_name"`
	LastName  string `json:"l_name"`
	Role      string `json:"role"`
}

// Detail is the full project view returned by GET /projects/{id}.
type Detail struct {
	Project

	CreatorFirstName string              `json:"creator_fname"`
	CreatorLastName  string              `json:"creator_lname"`
	RequiredSkills   []RequiredSkillView `json:"requiredSkills"`
	TeamMembers      []TeamMemberView    `json:"teamMembers"`
}

// ApplicationView is an application joined with the applicant's identity.
type ApplicationView struct {
	ApplicationID   int       `json:"application_id"`
	StudentID       int       `json:"student_id"`
	FirstName       string    `json:"f_name"`
	LastName        string    `json:"l_name"`
	Email           string    `json:"email"`
	ApplicationDate time.Time `json:"application_date"`
}

type RequiredSkillInput struct {
	SkillID             int    `json:"skill_id" validate:"required"`
	RequiredProficiency string `json:"required_proficiency" validate:"required"`
}

type CreateRequest struct {
	Title          string               `json:"title" validate:"required"`
	Description    string               `json:"description" validate:"required"`
	Status         Status               `json:"status" validate:"required"`
	// required rejects a missing requiredSkills key but accepts an explicit
	// empty list; validator only fails nil slices.
	RequiredSkills []RequiredSkillInput `json:"requiredSkills" validate:"required,dive"`
}

type UpdateRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Status      Status `json:"status" validate:"required"`
}

type AcceptRequest struct {
	ApplicationID int    `json:"application_id" validate:"required"`
	Role          string `json:"role" validate:"required"`
}
