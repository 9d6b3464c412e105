package resrobot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gymnasier-export/internal/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const testAccessKey = "secret-key"

type fakeResRobot struct {
	mu        sync.Mutex
	locations map[string]string
	trips     map[string]string
	status    int
	queries   []string
}

func (f *fakeResRobot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	if q.Get("accessId") != testAccessKey || q.Get("format") != "json" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}

	var body string
	switch r.URL.Path {
	case "/location.name":
		f.queries = append(f.queries, q.Get("input"))
		body = f.locations[q.Get("input")]
	case "/trip":
		body = f.trips[fmt.Sprintf("%s->%s", q.Get("originId"), q.Get("destId"))]
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if body == "" {
		body = "{}"
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (f *fakeResRobot) searched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func setup(t *testing.T, fake *fakeResRobot) (*Client, *telemetry.Recorder) {
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	rec := &telemetry.Recorder{}
	client := NewClient(Options{
		BaseUrl:   srv.URL,
		AccessKey: testAccessKey,
		Interval:  time.Millisecond,
	}, rec)
	return client, rec
}

func TestLookupStopPrefersStockholm(t *testing.T) {
	fake := &fakeResRobot{locations: map[string]string{
		"Kungsholmens gymnasium": `{"stopLocationOrCoordLocation":[
			{"StopLocation":{"extId":"1","name":"Kungsholmen (Uppsala)"}},
			{"StopLocation":{"extId":"2","name":"Kungsholmstorg (STOCKHOLM kn)"}},
			{"StopLocation":{"extId":"3","name":"Stockholm City"}}
		]}`,
	}}
	client, rec := setup(t, fake)

	stop, ok := client.LookupStop(context.Background(), "Kungsholmens gymnasium").Get()
	require.True(t, ok)
	require.Equal(t, Stop{ExtId: "2", Name: "Kungsholmstorg (STOCKHOLM kn)"}, stop)
	require.Empty(t, rec.Of(telemetry.KindWarning))
}

func TestLookupStopFallsBackToFirst(t *testing.T) {
	fake := &fakeResRobot{locations: map[string]string{
		"Björkhagen": `{"stopLocationOrCoordLocation":[
			{"StopLocation":{"extId":"740021700","name":"Björkhagen T-bana"}},
			{"StopLocation":{"extId":"740000002","name":"Björkhagens skola"}}
		]}`,
	}}
	client, _ := setup(t, fake)

	stop, ok := client.LookupStop(context.Background(), "Björkhagen").Get()
	require.True(t, ok)
	require.Equal(t, "740021700", stop.ExtId)
	require.Equal(t, []string{"Björkhagen"}, fake.searched())
}

func TestLookupStopNoCandidates(t *testing.T) {
	fake := &fakeResRobot{locations: map[string]string{
		"Nowhere": `{"stopLocationOrCoordLocation":[]}`,
	}}
	client, rec := setup(t, fake)

	result := client.LookupStop(context.Background(), "Nowhere")
	require.False(t, result.Present())
	require.Nil(t, result.Reason())
	require.Empty(t, rec.Of(telemetry.KindWarning))

	require.False(t, client.LookupStop(context.Background(), "Missing key").Present())
}

func TestLookupStopFirstEntryNotAStop(t *testing.T) {
	fake := &fakeResRobot{locations: map[string]string{
		"Somewhere": `{"stopLocationOrCoordLocation":[
			{"CoordLocation":{"name":"Somewhere 1"}},
			{"StopLocation":{"extId":"9","name":"Somewhere bus"}}
		]}`,
	}}
	client, _ := setup(t, fake)

	require.False(t, client.LookupStop(context.Background(), "Somewhere").Present())

	stops, err := client.SearchStops(context.Background(), "Somewhere")
	require.NoError(t, err)
	require.Equal(t, []Stop{{ExtId: "9", Name: "Somewhere bus"}}, stops)
}

func TestLookupStopFailureIsWarned(t *testing.T) {
	fake := &fakeResRobot{status: http.StatusInternalServerError}
	client, rec := setup(t, fake)

	result := client.LookupStop(context.Background(), "Södermalm")
	require.False(t, result.Present())
	require.Error(t, result.Reason())

	warnings := rec.Of(telemetry.KindWarning)
	require.Len(t, warnings, 1)
	require.Equal(t, "resrobot: client.lookup-stop", warnings[0].Id)
	require.NotContains(t, fmt.Sprint(warnings[0].Params...), testAccessKey)
}

func TestLookupStopMalformedResponse(t *testing.T) {
	fake := &fakeResRobot{locations: map[string]string{
		"Broken": `{"stopLocationOrCoordLocation": [`,
	}}
	client, rec := setup(t, fake)

	result := client.LookupStop(context.Background(), "Broken")
	require.False(t, result.Present())
	require.ErrorContains(t, result.Reason(), "unmarshal json")
	require.True(t, rec.Contains(telemetry.KindWarning, "lookup-stop"))
}

func TestLookupStopUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := &telemetry.Recorder{}
	client := NewClient(Options{BaseUrl: url, AccessKey: testAccessKey, Interval: time.Millisecond}, rec)

	result := client.LookupStop(context.Background(), "Farsta")
	require.False(t, result.Present())
	require.NotContains(t, result.Reason().Error(), testAccessKey)
	require.Len(t, rec.Of(telemetry.KindWarning), 1)
}

func TestTravelTime(t *testing.T) {
	fake := &fakeResRobot{trips: map[string]string{
		"A->B": `{"Trip":[{"duration":"PT1H15M"},{"duration":"PT50M"}]}`,
		"A->C": `{"Trip":[]}`,
		"A->D": `{"Trip":[{"origin":{}}]}`,
		"A->E": `{"Trip":[{"duration":"PT25M"}]}`,
	}}
	client, rec := setup(t, fake)
	ctx := context.Background()

	minutes, ok := client.TravelTime(ctx, "A", "B").Get()
	require.True(t, ok)
	require.Equal(t, 75, minutes)

	minutes, ok = client.TravelTime(ctx, "A", "E").Get()
	require.True(t, ok)
	require.Equal(t, 25, minutes)

	require.False(t, client.TravelTime(ctx, "A", "C").Present())
	require.False(t, client.TravelTime(ctx, "A", "D").Present())
	require.False(t, client.TravelTime(ctx, "A", "Z").Present())
	require.Empty(t, rec.Of(telemetry.KindWarning))
}

func TestTravelTimeFailureIsWarned(t *testing.T) {
	fake := &fakeResRobot{status: http.StatusTooManyRequests}
	client, rec := setup(t, fake)

	result := client.TravelTime(context.Background(), "A", "B")
	require.False(t, result.Present())
	require.ErrorContains(t, result.Reason(), "429")
	require.True(t, rec.Contains(telemetry.KindWarning, "travel-time"))
}

func TestTravelTimeUnreadableDurationIsWarned(t *testing.T) {
	fake := &fakeResRobot{trips: map[string]string{
		"A->B": `{"Trip":[{"duration":"PT99999999999999999999M"}]}`,
	}}
	client, rec := setup(t, fake)

	result := client.TravelTime(context.Background(), "A", "B")
	require.False(t, result.Present())
	require.Error(t, result.Reason())

	warnings := rec.Of(telemetry.KindWarning)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Id, "travel-time")
}

func TestSelectStop(t *testing.T) {
	testCases := []struct {
		stops    []Stop
		expected Stop
		ok       bool
	}{
		{stops: nil, ok: false},
		{
			stops:    []Stop{{ExtId: "1", Name: "Solna centrum"}},
			expected: Stop{ExtId: "1", Name: "Solna centrum"},
			ok:       true,
		},
		{
			stops: []Stop{
				{ExtId: "1", Name: "Solna centrum"},
				{ExtId: "2", Name: "Solna station (stockholm)"},
			},
			expected: Stop{ExtId: "2", Name: "Solna station (stockholm)"},
			ok:       true,
		},
		{
			stops: []Stop{
				{ExtId: "1", Name: "Stockholm Odenplan"},
				{ExtId: "2", Name: "Stockholm City"},
			},
			expected: Stop{ExtId: "1", Name: "Stockholm Odenplan"},
			ok:       true,
		},
	}

	for _, test := range testCases {
		stop, ok := SelectStop(test.stops)
		require.Equal(t, test.ok, ok)
		if diff := cmp.Diff(test.expected, stop); diff != "" {
			t.Fatal(diff)
		}
	}
}

func TestSimilarity(t *testing.T) {
	require.Equal(t, 1.0, Similarity("Björkhagen", "björkhagen"))
	require.Greater(t, Similarity("Björkhagen", "Björkhagen T-bana"), Similarity("Björkhagen", "Farsta strand"))
}
