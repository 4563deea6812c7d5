// Package calendar lays events out on month and day views.
package calendar

import (
	"time"

	"safetycal/internal/model"
)

// Cell is one day of a month grid.
type Cell struct {
	Date         model.Date `json:"date"`
	IsOtherMonth bool       `json:"isOtherMonth"`
}

// BuildMonthGrid returns the days shown for anchor's month: from the Monday
// on or before the 1st to the Sunday on or after the last day. The result is
// always a whole number of weeks (28, 35 or 42 cells).
func BuildMonthGrid(anchor time.Time) []Cell {
	y, m, _ := anchor.Date()
	first := model.Date{Year: y, Month: m, Day: 1}
	last := first.AddDays(daysIn(y, m) - 1)

	start := first.AddDays(-(isoWeekday(first) - 1))
	end := last.AddDays(7 - isoWeekday(last))

	cells := make([]Cell, 0, 42)
	for d := start; !d.After(end); d = d.AddDays(1) {
		cells = append(cells, Cell{
			Date:         d,
			IsOtherMonth: d.Year != y || d.Month != m,
		})
	}
	return cells
}

// isoWeekday numbers Monday=1 .. Sunday=7.
func isoWeekday(d model.Date) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// BinByDate groups events by calendar date, preserving input order within a
// date. Undated events are skipped.
func BinByDate(events []model.CalendarEvent) map[model.Date][]model.CalendarEvent {
	bins := make(map[model.Date][]model.CalendarEvent)
	for _, ev := range events {
		if !ev.HasDate() {
			continue
		}
		bins[ev.Date] = append(bins[ev.Date], ev)
	}
	return bins
}

// Day returns the events whose date is exactly d, in input order.
func Day(d model.Date, events []model.CalendarEvent) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0)
	for _, ev := range events {
		if ev.HasDate() && ev.Date == d {
			out = append(out, ev)
		}
	}
	return out
}

// GridDay is a grid cell with its events.
type GridDay struct {
	Cell
	Events []model.CalendarEvent `json:"events"`
}

// Month is a month grid chunked into Monday-first weeks.
type Month struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	First model.Date  `json:"first"`
	Last  model.Date  `json:"last"`
	Weeks [][]GridDay `json:"weeks"`
}

// BuildMonth builds anchor's grid and binds events to its cells.
func BuildMonth(anchor time.Time, events []model.CalendarEvent) Month {
	cells := BuildMonthGrid(anchor)
	bins := BinByDate(events)

	y, m, _ := anchor.Date()
	out := Month{
		Year:  y,
		Month: m,
		First: cells[0].Date,
		Last:  cells[len(cells)-1].Date,
		Weeks: make([][]GridDay, 0, len(cells)/7),
	}
	for i := 0; i < len(cells); i += 7 {
		week := make([]GridDay, 0, 7)
		for _, c := range cells[i : i+7] {
			evs := bins[c.Date]
			if evs == nil {
				evs = []model.CalendarEvent{}
			}
			week = append(week, GridDay{Cell: c, Events: evs})
		}
		out.Weeks = append(out.Weeks, week)
	}
	return out
}
