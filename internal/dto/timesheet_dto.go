package dto

// TimesheetQuery is bound from GET /v1/workers/:id/timesheet.
type TimesheetQuery struct {
	Month string `form:"month" validate:"omitempty,datetime=2006-01"` // YYYY-MM; empty = current month
}

type TimesheetEntry struct {
	ID       string `json:"id"`
	Date     string `json:"data"`
	ClockIn  string `json:"entrada"`
	ClockOut string `json:"saida"`
	Total    string `json:"total"`
	Open     bool   `json:"em_andamento"`
}

type TimesheetResponse struct {
	WorkerID   string           `json:"worker_id"`
	Month      string           `json:"month"`
	Period     string           `json:"periodo"`
	TotalHours string           `json:"totalHoras"`
	Entries    []TimesheetEntry `json:"pontos"`
}
