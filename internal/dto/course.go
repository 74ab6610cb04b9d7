package dto

// ScheduleCourseResponse reports the outcome of materializing one course's
// session schedule.
type ScheduleCourseResponse struct {
	CourseID        string  `json:"course_id"`
	SessionsCreated int     `json:"sessions_created"`
	TargetSessions  int     `json:"target_sessions"`
	Complete        bool    `json:"complete"`
	EndDate         *string `json:"end_date,omitempty"`
}

// RescheduleResult summarises a holiday-change cascade across affected courses.
type RescheduleResult struct {
	CoursesProcessed int      `json:"courses_processed"`
	SessionsCreated  int      `json:"sessions_created"`
	PartialCourseIDs []string `json:"partial_course_ids,omitempty"`
	Granularity      string   `json:"granularity"`
}
