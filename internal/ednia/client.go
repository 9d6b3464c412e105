package ednia

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gymnasier-export/internal/assert"
	"gymnasier-export/internal/maybe"
	"gymnasier-export/internal/ratelimit"
	"gymnasier-export/internal/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseUrl      = "https://api.ednia.se/elysia/highSchool"
	DefaultInterval     = 100 * time.Millisecond
	DefaultMunicipality = "stockholm"
	DefaultTake         = 500

	// admission points range over the full merit scale
	admissionPointsMax = 340

	provider = "ednia"

	report_client_get_schools      = "client.get-schools"
	report_client_get_program_page = "client.get-program-page"
)

type Options struct {
	BaseUrl  string
	Interval time.Duration
	Output   telemetry.Output
}

// Client talks to the Ednia high school directory.
type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(opts Options, tel telemetry.API) *Client {
	assert.NotNil(tel, "tel")

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	tel = telemetry.NewScopedAPI(provider, tel)

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetTimeout(30 * time.Second)
	httpClient.SetHeader("user-agent", "GymnasierExport/1.0")

	ratelimit.New(opts.Interval).Attach(httpClient)
	telemetry.InstrumentResty(httpClient, provider, tel, opts.Output)

	return &Client{http: httpClient, tel: tel}
}

func decode(res *resty.Response, err error, output any) error {
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("fetch: unexpected status %s", res.Status())
	}
	err = json.Unmarshal(res.Body(), output)
	if err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}
	return nil
}

// GetSchools fetches a single page of schools for a municipality. Schools
// beyond `take` are never requested.
func (c *Client) GetSchools(ctx context.Context, municipality string, take int) ([]School, error) {
	if municipality == "" {
		municipality = DefaultMunicipality
	}
	if take <= 0 {
		take = DefaultTake
	}

	body, err := json.Marshal(recommendRequest{
		Offset: 0,
		Take:   take,
		Filter: recommendFilter{
			Projection:         "programs",
			Municipality:       municipality,
			Query:              "",
			Programs:           []string{},
			AdmissionPointsMin: 0,
			AdmissionPointsMax: admissionPointsMax,
		},
	})
	if err != nil {
		c.tel.ReportBroken(report_client_get_schools, fmt.Errorf("json marshal: %w", err))
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post("/recommend")

	var parsed recommendResponse
	err = decode(res, err, &parsed)
	if err != nil {
		c.tel.ReportBroken(report_client_get_schools, err, municipality)
		return nil, err
	}
	if parsed.Result == nil {
		return []School{}, nil
	}
	return parsed.Result, nil
}

// GetProgramPage fetches the admission statistics of one program at one
// school. Failures are reported as warnings and come back absent, so is a
// response without a program page.
func (c *Client) GetProgramPage(ctx context.Context, schoolId, programCode, municipality string) maybe.Value[ProgramPage] {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"highSchoolId": schoolId,
			"programCode":  programCode,
			"municipality": municipality,
		}).
		Get("/getProgramPage")

	var parsed programPageResponse
	err = decode(res, err, &parsed)
	if err != nil {
		c.tel.ReportWarning(report_client_get_program_page, "failed to fetch program page", schoolId, programCode, err)
		return maybe.Failed[ProgramPage](err)
	}
	if parsed.ProgramPage == nil {
		return maybe.None[ProgramPage]()
	}
	return maybe.Some(*parsed.ProgramPage)
}
