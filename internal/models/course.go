package models

import (
	"time"

	"github.com/lib/pq"
)

// Course represents a recurring tutoring course. EndDate is derived from the
// last generated session and recomputed on every reschedule.
type Course struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	StartDate     *time.Time     `db:"start_date" json:"start_date,omitempty"`
	EndDate       *time.Time     `db:"end_date" json:"end_date,omitempty"`
	StartTime     string         `db:"start_time" json:"start_time"`
	EndTime       string         `db:"end_time" json:"end_time"`
	DaysOfWeek    pq.StringArray `db:"days_of_week" json:"days_of_week"`
	TotalSessions int            `db:"total_sessions" json:"total_sessions"`
	RoomID        string         `db:"room_id" json:"room_id"`
	TeacherID     string         `db:"teacher_id" json:"teacher_id"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}
