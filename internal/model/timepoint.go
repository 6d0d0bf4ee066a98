package model

import "time"

// HoursPerYear is the default number of hours one investment period represents.
const HoursPerYear = 8760

// TimestampAssignment maps one hourly timestamp to a timepoint.
type TimestampAssignment struct {
	Timestamp time.Time
	Timepoint int
}

// TimepointRecord is one row of timepoint metadata.
//
// Timestamp is the representative hour used by sample aggregation; when zero the
// earliest backing timestamp is used. Weight is optional: when non-zero it must
// equal the number of timestamps assigned to the timepoint.
type TimepointRecord struct {
	ID           int
	Timestamp    time.Time
	Timeseries   string
	Period       int
	DurationOfTP float64
	Weight       float64
}

// InvestmentPeriod describes one optimizer investment period.
type InvestmentPeriod struct {
	Year             int
	Start            int
	End              int
	RepresentedHours float64
}

// LengthYears is the inclusive number of calendar years in the period.
func (p InvestmentPeriod) LengthYears() int {
	return p.End - p.Start + 1
}
