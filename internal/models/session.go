package models

import "time"

// ClassSession is one concrete meeting of a course. Sessions are owned by the
// course and are deleted and regenerated as a unit; ids derive deterministically
// from course id, date and sequence so regeneration is idempotent.
type ClassSession struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Date        time.Time `db:"session_date" json:"date"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time `db:"ends_at" json:"ends_at"`
	Sequence    int       `db:"sequence" json:"sequence"`
	RoomName    string    `db:"room_name" json:"room_name"`
	TeacherName string    `db:"teacher_name" json:"teacher_name"`
	Note        *string   `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
