package student

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/course"
)

type Student struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	CourseID     null.Int    `json:"course_id"`
	CourseName   null.String `json:"course_name"`
	PasswordHash []byte      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
}

// MarshalJSON renders the public projection, which repeats the course name under "course".
func (s Student) MarshalJSON() ([]byte, error) {
	type student Student
	return json.Marshal(struct {
		student
		Course null.String `json:"course"`
	}{student(s), s.CourseName})
}

func (s *Student) SetPassword(pwd string, cost int) error {
	hash, err := HashPassword(pwd, cost)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Student) CheckPassword(pwd string) bool {
	return CheckPassword(s.PasswordHash, pwd)
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name     string `json:"name" validate:"required,max=150,singleline"`
	Email    string `json:"email" validate:"required,email,max=180"`
	Password string `json:"password" validate:"required,max=72"`
	Course   string `json:"course" validate:"required,max=150,singleline"`
}

// Clean normalizes the fields the way they are stored and compared.
func (ns *NewStudent) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Course = course.NormalizeName(ns.Course)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// Credentials are what a student logs in with.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Credentials) Validate() error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	if c.Email == "" || c.Password == "" {
		return ErrCredentialsRequired
	}
	return nil
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Absent and null fields are left unchanged.
type UpdateStudent struct {
	Name   null.String `json:"name"`
	Email  null.String `json:"email"`
	Course null.String `json:"course"`
}

func (uu *UpdateStudent) IsEmpty() bool {
	return !(uu.Name.Valid || uu.Email.Valid || uu.Course.Valid)
}

// Validate normalizes the provided fields. A provided blank field is an error, not a no-op.
func (uu *UpdateStudent) Validate(validate *validator.Validate) error {
	var flds []core.FieldError
	check := func(fld *null.String, name, tag string, clean func(string) string) {
		if !fld.Valid {
			return
		}
		fld.String = clean(fld.String)
		if fld.String == "" {
			flds = append(flds, core.FieldError{Field: name, Error: name + " cannot be blank"})
			return
		}
		if err := validate.Var(fld.String, tag); err != nil {
			flds = append(flds, core.FieldError{Field: name, Error: name + " is invalid"})
		}
	}

	check(&uu.Name, "name", "max=150,singleline", func(s string) string { return core.CleanString(s) })
	check(&uu.Email, "email", "email,max=180", func(s string) string { return core.CleanString(s, true /* lower */) })
	check(&uu.Course, "course", "max=150,singleline", course.NormalizeName)

	if len(flds) > 0 {
		return core.NewValidationError(errors.New(flds[0].Error), flds...)
	}
	return nil
}

// Changes are the column updates applied by Repository.UpdateStudent. Invalid fields are left untouched.
type Changes struct {
	Name     null.String
	Email    null.String
	CourseID null.Int
}

func (ch Changes) IsEmpty() bool {
	return !(ch.Name.Valid || ch.Email.Valid || ch.CourseID.Valid)
}

// Registration is the outcome of a successful registration.
type Registration struct {
	Student Student
	Token   string
}

// Login is the outcome of a successful login.
type Login struct {
	Student      Student
	Token        string
	AttendanceID int
}
