package export

import (
	"strconv"

	"gymnasier-export/internal/ednia"
	"gymnasier-export/internal/maybe"
)

// Columns is the header of the exported table, in output order.
var Columns = []string{
	"school_name",
	"school_location",
	"program",
	"averageGrade",
	"flowthroughRate",
	"femaleRatio",
	"studyPath_name",
	"compareNumber",
	"min",
	"median",
	"admitted",
	"travel_time_minutes",
}

// Row is one study path of one program at one school. Stat fields hold
// what the school directory sent, empty when it sent none.
type Row struct {
	SchoolName      string
	SchoolLocation  string
	Program         string
	AverageGrade    ednia.Stat
	FlowthroughRate ednia.Stat
	FemaleRatio     ednia.Stat
	StudyPathName   string
	CompareNumber   ednia.Stat
	Min             ednia.Stat
	Median          ednia.Stat
	Admitted        ednia.Stat
	TravelTime      maybe.Value[int]
}

// Record renders the row in Columns order, absent values are empty fields.
func (r Row) Record() []string {
	travelTime := ""
	if minutes, ok := r.TravelTime.Get(); ok {
		travelTime = strconv.Itoa(minutes)
	}
	return []string{
		r.SchoolName,
		r.SchoolLocation,
		r.Program,
		r.AverageGrade.String(),
		r.FlowthroughRate.String(),
		r.FemaleRatio.String(),
		r.StudyPathName,
		r.CompareNumber.String(),
		r.Min.String(),
		r.Median.String(),
		r.Admitted.String(),
		travelTime,
	}
}
