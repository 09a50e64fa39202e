package models

// All lists every model managed by the assessment API, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Enrollment{},
		&Assessment{},
		&Question{},
		&Submission{},
		&Answer{},
		&SubmissionGradeHistory{},
		&ActivityLog{},
	}
}
