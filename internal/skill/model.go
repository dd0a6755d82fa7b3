package skill

import (
	"github.com/uptrace/bun"
)

// Skill is the master list entry students and projects reference.
type Skill struct {
	bun.BaseModel `bun:"table:skills,alias:sk"`

	ID   int    `bun:"id,pk,autoincrement" json:"skill_id"`
	Name string `bun:"name,unique,notnull" json:"skill_name" validate:"required"`
}

// StudentSkill links a student to a skill with a self-assessed level.
// One row per (student, skill); adding an existing skill updates it.
type StudentSkill struct {
	bun.BaseModel `bun:"table:student_skills,alias:ss"`

	ID          int    `bun:"id,pk,autoincrement" json:"-"`
	StudentID   int    `bun:"student_id,notnull,unique:student_skill" json:"student_id"`
	SkillID     int    `bun:"skill_id,notnull,unique:student_skill" json:"skill_id"`
	Proficiency string `bun:"proficiency,notnull" json:"proficiency"`
	Rating      int    `bun:"rating,notnull" json:"rating"`
}

// StudentSkillView is a student skill joined with its master-list name.
type StudentSkillView struct {
	SkillID     int    `json:"skill_id"`
	SkillName   string `json:"skill_name"`
	Proficiency string `json:"proficiency"`
	Rating      int    `json:"rating"`
}

type AddSkillRequest struct {
	SkillID     int    `json:"skill_id" validate:"required"`
	Proficiency string `json:"proficiency" validate:"required"`
	Rating      *int   `json:"rating" validate:"required,min=0,max=5"`
}
