package resrobot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"gymnasier-export/internal/assert"
	"gymnasier-export/internal/duration"
	"gymnasier-export/internal/maybe"
	"gymnasier-export/internal/ratelimit"
	"gymnasier-export/internal/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseUrl  = "https://api.resrobot.se/v2.1"
	DefaultInterval = 1500 * time.Millisecond

	provider = "resrobot"

	report_client_lookup_stop = "client.lookup-stop"
	report_client_travel_time = "client.travel-time"
)

type Options struct {
	BaseUrl   string
	AccessKey string
	// Interval is the minimum time between two requests, ResRobot allows
	// 45 requests per minute.
	Interval time.Duration
	// Output receives request dumps when set.
	Output telemetry.Output
}

// Client talks to the ResRobot stop search and trip planning endpoints.
type Client struct {
	http      *resty.Client
	accessKey string
	tel       telemetry.API
}

func NewClient(opts Options, tel telemetry.API) *Client {
	assert.NotNil(tel, "tel")
	assert.NotEmptyStr(opts.AccessKey, "access key")

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

	return &Client{
		http:      httpClient,
		accessKey: opts.AccessKey,
		tel:       tel,
	}
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, output any) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("format", "json").
		SetQueryParam("accessId", c.accessKey).
		Get(path)
	if err != nil {
		// url.Error carries the full url, which includes the access key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	if res.IsError() {
		return fmt.Errorf("fetch %s: unexpected status %s", path, res.Status())
	}

	err = json.Unmarshal(res.Body(), output)
	if err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}
	return nil
}

func (c *Client) searchLocations(ctx context.Context, query string) ([]locationEntry, error) {
	var parsed locationNameResponse
	err := c.get(ctx, "/location.name", map[string]string{"input": query}, &parsed)
	if err != nil {
		return nil, err
	}
	return parsed.Locations, nil
}

// SearchStops returns every stop candidate for query in response order.
func (c *Client) SearchStops(ctx context.Context, query string) ([]Stop, error) {
	entries, err := c.searchLocations(ctx, query)
	if err != nil {
		return nil, err
	}
	var stops []Stop
	for _, e := range entries {
		if e.StopLocation != nil {
			stops = append(stops, *e.StopLocation)
		}
	}
	return stops, nil
}

// LookupStop resolves a free text place name to a single stop, see
// SelectStop for how the candidate is picked. Failures are reported as
// warnings and come back as an absent value.
func (c *Client) LookupStop(ctx context.Context, query string) maybe.Value[Stop] {
	entries, err := c.searchLocations(ctx, query)
	if err != nil {
		c.tel.ReportWarning(report_client_lookup_stop, fmt.Sprintf("stop lookup failed for '%s'", query), err)
		return maybe.Failed[Stop](err)
	}

	stop, ok := selectStop(entries)
	if !ok {
		return maybe.None[Stop]()
	}
	c.tel.ReportDebug(
		report_client_lookup_stop,
		query,
		stop.Name,
		fmt.Sprintf("similarity %.2f", Similarity(query, stop.Name)),
	)
	return maybe.Some(stop)
}

// TravelTime returns the duration in minutes of the first itinerary between
// two stops.
func (c *Client) TravelTime(ctx context.Context, originId, destId string) maybe.Value[int] {
	var parsed tripResponse
	err := c.get(ctx, "/trip", map[string]string{
		"originId": originId,
		"destId":   destId,
	}, &parsed)
	if err != nil {
		c.tel.ReportWarning(report_client_travel_time, "trip lookup failed", originId, destId, err)
		return maybe.Failed[int](err)
	}

	if len(parsed.Trips) == 0 {
		return maybe.None[int]()
	}
	minutes := duration.ParseMinutes(parsed.Trips[0].Duration)
	if err := minutes.Reason(); err != nil {
		c.tel.ReportWarning(report_client_travel_time, "trip duration unreadable", originId, destId, parsed.Trips[0].Duration, err)
	}
	return minutes
}
