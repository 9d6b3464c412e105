package export

import (
	"context"
	"errors"
	"fmt"

	"gymnasier-export/internal/assert"
	"gymnasier-export/internal/ednia"
	"gymnasier-export/internal/maybe"
	"gymnasier-export/internal/resrobot"
	"gymnasier-export/internal/stopfinder"
	"gymnasier-export/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("export")

var ErrOriginNotFound = errors.New("origin stop not found")

// TransportAPI is the part of *resrobot.Client the exporter uses.
type TransportAPI interface {
	stopfinder.StopLookup
	TravelTime(ctx context.Context, originId, destId string) maybe.Value[int]
}

// SchoolsAPI is the part of *ednia.Client the exporter uses.
type SchoolsAPI interface {
	GetSchools(ctx context.Context, municipality string, take int) ([]ednia.School, error)
	GetProgramPage(ctx context.Context, schoolId, programCode, municipality string) maybe.Value[ednia.ProgramPage]
}

type Options struct {
	// Origin is the place travel times are computed from.
	Origin       string
	Municipality string
	Take         int
	// SchoolLimit keeps only the first n schools of the listing, 0 keeps all.
	SchoolLimit int
}

// SchoolSummary is what happened to a single school during a run.
type SchoolSummary struct {
	School ednia.School
	Travel Travel
	Rows   int
}

type Result struct {
	Origin  resrobot.Stop
	Schools []SchoolSummary
	Rows    []Row
}

type Exporter struct {
	transport TransportAPI
	schools   SchoolsAPI
	opts      Options
	tel       telemetry.API
}

func NewExporter(transport TransportAPI, schools SchoolsAPI, opts Options, tel telemetry.API) *Exporter {
	assert.NotNil(transport, "transport")
	assert.NotNil(schools, "schools")
	assert.NotNil(tel, "tel")
	assert.NotEmptyStr(opts.Origin, "origin")

	if opts.Municipality == "" {
		opts.Municipality = ednia.DefaultMunicipality
	}
	if opts.Take <= 0 {
		opts.Take = ednia.DefaultTake
	}
	return &Exporter{
		transport: transport,
		schools:   schools,
		opts:      opts,
		tel:       tel,
	}
}

// Run resolves the origin, lists the schools and flattens every study path
// of every school into rows. Only a missing origin or a failed school
// listing stop the run, every other upstream failure leaves the affected
// fields empty.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	origin, err := e.resolveOrigin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	schools, err := e.fetchSchools(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	summaries, rows := e.collectRows(ctx, origin, schools)
	telemetry.CountRows(len(rows))
	span.SetAttributes(
		attribute.Int("schools", len(schools)),
		attribute.Int("rows", len(rows)),
	)

	return Result{
		Origin:  origin,
		Schools: summaries,
		Rows:    rows,
	}, nil
}

func (e *Exporter) resolveOrigin(ctx context.Context) (resrobot.Stop, error) {
	ctx, span := tracer.Start(ctx, "resolveOrigin")
	defer span.End()

	e.tel.ReportProgress("[Phase 1] Resolving origin stop...")
	origin, ok := e.transport.LookupStop(ctx, e.opts.Origin).Get()
	if !ok {
		return resrobot.Stop{}, fmt.Errorf("%w: '%s'", ErrOriginNotFound, e.opts.Origin)
	}
	span.SetAttributes(attribute.String("origin_id", origin.ExtId))
	e.tel.ReportProgress(fmt.Sprintf("Origin: %s (ID: %s)", origin.Name, origin.ExtId))
	return origin, nil
}

func (e *Exporter) fetchSchools(ctx context.Context) ([]ednia.School, error) {
	ctx, span := tracer.Start(ctx, "fetchSchools")
	defer span.End()

	e.tel.ReportProgress("[Phase 2] Fetching schools from Ednia...")
	schools, err := e.schools.GetSchools(ctx, e.opts.Municipality, e.opts.Take)
	if err != nil {
		return nil, fmt.Errorf("fetch schools: %w", err)
	}
	if e.opts.SchoolLimit > 0 && len(schools) > e.opts.SchoolLimit {
		schools = schools[:e.opts.SchoolLimit]
	}
	span.SetAttributes(attribute.Int("count", len(schools)))
	e.tel.ReportProgress(fmt.Sprintf("Found %d schools", len(schools)))
	return schools, nil
}

func (e *Exporter) collectRows(ctx context.Context, origin resrobot.Stop, schools []ednia.School) ([]SchoolSummary, []Row) {
	ctx, span := tracer.Start(ctx, "collectRows")
	defer span.End()

	e.tel.ReportProgress("[Phase 3] Fetching program details and travel times...")

	cache := NewTravelTimeCache()
	summaries := make([]SchoolSummary, 0, len(schools))
	var rows []Row
	for i, school := range schools {
		e.tel.ReportProgress(fmt.Sprintf("[%d/%d] %s", i+1, len(schools), school.Name))

		travel := e.travelTo(ctx, cache, origin, school)
		schoolRows := e.schoolRows(ctx, school, travel.Minutes)
		rows = append(rows, schoolRows...)

		summaries = append(summaries, SchoolSummary{
			School: school,
			Travel: travel,
			Rows:   len(schoolRows),
		})
	}
	e.tel.ReportCount("export.travel-time-cache", int64(cache.Len()))

	return summaries, rows
}

// travelTo resolves the stop of a school and the trip to it from origin,
// once per school id.
func (e *Exporter) travelTo(ctx context.Context, cache *TravelTimeCache, origin resrobot.Stop, school ednia.School) Travel {
	travel, ok := cache.Get(school.Id)
	telemetry.CountCacheLookup(ok)
	if ok {
		return travel
	}

	ctx, span := tracer.Start(ctx, "travelTo")
	defer span.End()
	span.SetAttributes(attribute.String("school_id", string(school.Id)))

	travel.Stop = stopfinder.FindStopForSchool(ctx, e.transport, school.Name, school.Location)
	stop, found := travel.Stop.Get()
	if !found {
		e.tel.ReportProgress("Travel time: N/A (stop not found)")
		cache.Put(school.Id, travel)
		return travel
	}

	travel.Minutes = e.transport.TravelTime(ctx, origin.ExtId, stop.ExtId)
	if minutes, ok := travel.Minutes.Get(); ok {
		span.SetAttributes(attribute.Int("minutes", minutes))
		e.tel.ReportProgress(fmt.Sprintf("Travel time: %d min", minutes))
	}
	cache.Put(school.Id, travel)
	return travel
}

func (e *Exporter) schoolRows(ctx context.Context, school ednia.School, travelTime maybe.Value[int]) []Row {
	municipality := school.Municipality
	if municipality == "" {
		municipality = ednia.DefaultMunicipality
	}

	var rows []Row
	for _, program := range school.Programs {
		page, ok := e.schools.GetProgramPage(ctx, string(school.Id), program, municipality).Get()
		if !ok || len(page.StudyPaths) == 0 {
			continue
		}
		for _, path := range page.StudyPaths {
			rows = append(rows, Row{
				SchoolName:      school.Name,
				SchoolLocation:  school.Location,
				Program:         program,
				AverageGrade:    page.EducationStats.AverageGrade,
				FlowthroughRate: page.EducationStats.FlowthroughRate,
				FemaleRatio:     page.FemaleRatio,
				StudyPathName:   path.Name,
				CompareNumber:   path.CompareNumber,
				Min:             path.Min,
				Median:          path.Median,
				Admitted:        path.Admitted,
				TravelTime:      travelTime,
			})
		}
	}
	return rows
}
