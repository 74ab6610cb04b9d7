package dto

// CreateHolidayRequest carries the admin payload for declaring a holiday.
// Dates are inclusive YYYY-MM-DD strings.
type CreateHolidayRequest struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Color     string `json:"color"`
}

// HolidayMutationResponse reports a holiday change and the reschedule cascade
// it triggered.
type HolidayMutationResponse struct {
	HolidayID  string            `json:"holiday_id,omitempty"`
	Reschedule *RescheduleResult `json:"reschedule,omitempty"`
}
