package dto

// SeedUser is a directory user loaded by the seeding tools.
type SeedUser struct {
	ID    uint   `json:"id" validate:"required,gt=0"`
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=100"`
	Role  string `json:"role" validate:"required,oneof=student instructor admin"`
}

// SeedCourse is a course loaded by the seeding tools.
type SeedCourse struct {
	ID           uint   `json:"id" validate:"required,gt=0"`
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description"`
	InstructorID *uint  `json:"instructor_id"`
}

// SeedEnrollment links a seeded user to a seeded course.
type SeedEnrollment struct {
	UserID   uint `json:"user_id" validate:"required,gt=0"`
	CourseID uint `json:"course_id" validate:"required,gt=0"`
}

// DirectorySeedRequest loads users, courses and enrollments in one call.
type DirectorySeedRequest struct {
	Users       []SeedUser       `json:"users" validate:"dive"`
	Courses     []SeedCourse     `json:"courses" validate:"dive"`
	Enrollments []SeedEnrollment `json:"enrollments" validate:"dive"`
}

// DirectorySeedResult reports the rows written per table.
type DirectorySeedResult struct {
	Users       int64 `json:"users"`
	Courses     int64 `json:"courses"`
	Enrollments int64 `json:"enrollments"`
}
