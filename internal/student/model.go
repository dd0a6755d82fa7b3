package student

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID        int       `bun:"id,pk,autoincrement" json:"student_id"`
	FirstName string    `bun:"first_name,notnull" json:"firstName" validate:"required"`
	LastName  string    `bun:"last_name,notnull" json:"lastName" validate:"required"`
	Email     string    `bun:"email,unique,notnull" json:"email" validate:"required,email"`
	Password  string    `bun:"password,notnull" json:"-"`
	Role      string    `bun:"role,notnull,default:'student'" json:"role"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
