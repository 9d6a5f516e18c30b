package service

import (
	"context"
	"fmt"
	"time"

	"pdvinova/internal/dto"
	"pdvinova/internal/infra"
	"pdvinova/internal/repository"

	"github.com/google/uuid"
)

const openPunchLabel = "Em andamento"

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

type TimesheetService interface {
	// Month lists the punches that started in the given month, store time.
	Month(ctx context.Context, workerID uuid.UUID, year int, month time.Month) (*dto.TimesheetResponse, error)
	// MonthXLSX is Month rendered as a spreadsheet.
	MonthXLSX(ctx context.Context, workerID uuid.UUID, year int, month time.Month) ([]byte, error)
}

type timesheetService struct {
	punches repository.TimeClockRepository
	loc     *time.Location
}

func NewTimesheetService(punches repository.TimeClockRepository, loc *time.Location) TimesheetService {
	if loc == nil {
		loc = time.UTC
	}
	return &timesheetService{punches: punches, loc: loc}
}

func (s *timesheetService) Month(ctx context.Context, workerID uuid.UUID, year int, month time.Month) (*dto.TimesheetResponse, error) {
	if month < time.January || month > time.December {
		return nil, newValidation("month", "mês inválido")
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	punches, err := s.punches.ListBetween(ctx, workerID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	resp := &dto.TimesheetResponse{
		WorkerID: workerID.String(),
		Month:    from.Format("2006-01"),
		Period:   fmt.Sprintf("%s de %d", monthNames[month-1], year),
		Entries:  make([]dto.TimesheetEntry, 0, len(punches)),
	}
	var total time.Duration
	for _, p := range punches {
		in := p.ClockIn.In(s.loc)
		e := dto.TimesheetEntry{
			ID:       p.ID.String(),
			Date:     in.Format(dateLayout),
			ClockIn:  in.Format(timeLayout),
			ClockOut: openPunchLabel,
			Total:    openPunchLabel,
			Open:     p.IsOpen(),
		}
		if !p.IsOpen() {
			d := p.ClockOut.Sub(p.ClockIn)
			total += d.Truncate(time.Minute)
			e.ClockOut = p.ClockOut.In(s.loc).Format(timeLayout)
			e.Total = FormatDuration(d)
		}
		resp.Entries = append(resp.Entries, e)
	}
	resp.TotalHours = FormatDuration(total)
	return resp, nil
}

func (s *timesheetService) MonthXLSX(ctx context.Context, workerID uuid.UUID, year int, month time.Month) ([]byte, error) {
	ts, err := s.Month(ctx, workerID, year, month)
	if err != nil {
		return nil, err
	}
	table := infra.SheetTable{
		Sheet:   "Pontos",
		Title:   "Registro de Ponto - " + ts.Period,
		Columns: []string{"Data", "Entrada", "Saída", "Total"},
		Rows:    make([][]string, 0, len(ts.Entries)),
		Totals:  []string{"Total do mês", "", "", ts.TotalHours},
	}
	for _, e := range ts.Entries {
		table.Rows = append(table.Rows, []string{e.Date, e.ClockIn, e.ClockOut, e.Total})
	}
	return infra.WriteXLSX(table)
}
