package dto

// DashboardHoliday is the trimmed holiday shape shown on the dashboard.
type DashboardHoliday struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Color     string `json:"color,omitempty"`
}

// DashboardSummary aggregates the landing-page counters.
type DashboardSummary struct {
	ActiveCourses     int                `json:"active_courses"`
	SessionsToday     int                `json:"sessions_today"`
	SessionsNext7Days int                `json:"sessions_next_7_days"`
	HolidaysThisMonth []DashboardHoliday `json:"holidays_this_month"`
	GeneratedAt       string             `json:"generated_at"`
}
