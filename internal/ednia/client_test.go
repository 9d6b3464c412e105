package ednia

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gymnasier-export/internal/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeEdnia struct {
	mu           sync.Mutex
	schools      string
	pages        map[string]string
	status       int
	lastFilter   map[string]any
	lastPageArgs map[string]string
}

func (f *fakeEdnia) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/recommend":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &f.lastFilter)
		w.Write([]byte(f.schools))
	case "/getProgramPage":
		q := r.URL.Query()
		f.lastPageArgs = map[string]string{
			"highSchoolId": q.Get("highSchoolId"),
			"programCode":  q.Get("programCode"),
			"municipality": q.Get("municipality"),
		}
		page, ok := f.pages[q.Get("highSchoolId")+"/"+q.Get("programCode")]
		if !ok {
			page = `{"programPage":null}`
		}
		w.Write([]byte(page))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeEdnia) recorded() (map[string]any, map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastFilter, f.lastPageArgs
}

func setup(t *testing.T, fake *fakeEdnia) (*Client, *telemetry.Recorder) {
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	rec := &telemetry.Recorder{}
	return NewClient(Options{BaseUrl: srv.URL, Interval: time.Millisecond}, rec), rec
}

func TestGetSchools(t *testing.T) {
	fake := &fakeEdnia{schools: `{"result":[
		{"id":"abc","name":"Södra Latins gymnasium","location":"Södermalm","municipality":"stockholm","programs":["SA","NA"]},
		{"id":42,"name":"Blackebergs gymnasium","location":"","municipality":"stockholm","programs":["EK"]}
	]}`}
	client, _ := setup(t, fake)

	schools, err := client.GetSchools(context.Background(), "", 0)
	require.NoError(t, err)

	expected := []School{
		{Id: "abc", Name: "Södra Latins gymnasium", Location: "Södermalm", Municipality: "stockholm", Programs: []string{"SA", "NA"}},
		{Id: "42", Name: "Blackebergs gymnasium", Municipality: "stockholm", Programs: []string{"EK"}},
	}
	if diff := cmp.Diff(expected, schools); diff != "" {
		t.Fatal(diff)
	}

	body, _ := fake.recorded()
	require.Equal(t, float64(0), body["offset"])
	require.Equal(t, float64(DefaultTake), body["take"])
	filter := body["filter"].(map[string]any)
	require.Equal(t, "stockholm", filter["municipality"])
	require.Equal(t, "programs", filter["projection"])
	require.Equal(t, "", filter["query"])
	require.Equal(t, []any{}, filter["programs"])
	require.Equal(t, float64(0), filter["admissionPointsMin"])
	require.Equal(t, float64(340), filter["admissionPointsMax"])
}

func TestGetSchoolsWithoutResult(t *testing.T) {
	fake := &fakeEdnia{schools: `{}`}
	client, _ := setup(t, fake)

	schools, err := client.GetSchools(context.Background(), "solna", 10)
	require.NoError(t, err)
	require.Empty(t, schools)
	require.NotNil(t, schools)
	body, _ := fake.recorded()
	require.Equal(t, float64(10), body["take"])
}

func TestGetSchoolsFailure(t *testing.T) {
	fake := &fakeEdnia{status: http.StatusBadGateway}
	client, rec := setup(t, fake)

	_, err := client.GetSchools(context.Background(), "stockholm", 500)
	require.ErrorContains(t, err, "502")
	require.True(t, rec.Contains(telemetry.KindBroken, "get-schools"))
}

func TestGetProgramPage(t *testing.T) {
	fake := &fakeEdnia{pages: map[string]string{
		"abc/NA": `{"programPage":{
			"educationStats":{"averageGrade":15.3,"flowthroughRate":0.87},
			"femaleRatio":0.55,
			"studyPaths":[
				{"name":"Naturvetenskap","compareNumber":1,"min":310.5,"median":320,"admitted":32},
				{"name":"Naturvetenskap och samhälle","compareNumber":2,"min":null,"admitted":16}
			]
		}}`,
	}}
	client, rec := setup(t, fake)

	page, ok := client.GetProgramPage(context.Background(), "abc", "NA", "stockholm").Get()
	require.True(t, ok)
	_, args := fake.recorded()
	require.Equal(t, map[string]string{
		"highSchoolId": "abc",
		"programCode":  "NA",
		"municipality": "stockholm",
	}, args)

	require.Equal(t, Stat("15.3"), page.EducationStats.AverageGrade)
	require.Equal(t, Stat("0.87"), page.EducationStats.FlowthroughRate)
	require.Equal(t, Stat("0.55"), page.FemaleRatio)
	require.Len(t, page.StudyPaths, 2)
	require.Equal(t, StudyPath{
		Name:          "Naturvetenskap",
		CompareNumber: "1",
		Min:           "310.5",
		Median:        "320",
		Admitted:      "32",
	}, page.StudyPaths[0])
	require.Equal(t, Stat(""), page.StudyPaths[1].Min)
	require.Equal(t, Stat(""), page.StudyPaths[1].Median)
	require.Empty(t, rec.Of(telemetry.KindWarning))
}

func TestGetProgramPageWithTextStats(t *testing.T) {
	fake := &fakeEdnia{pages: map[string]string{
		"abc/NA": `{"programPage":{
			"educationStats":{"averageGrade":"-","flowthroughRate":0.87},
			"studyPaths":[
				{"name":"Naturvetenskap","compareNumber":1,"min":"*","median":320},
				{"name":"Naturvetenskap och samhälle","min":"250.5"}
			]
		}}`,
	}}
	client, rec := setup(t, fake)

	page, ok := client.GetProgramPage(context.Background(), "abc", "NA", "stockholm").Get()
	require.True(t, ok)
	require.Equal(t, Stat("-"), page.EducationStats.AverageGrade)
	require.Equal(t, Stat(""), page.FemaleRatio)
	require.Len(t, page.StudyPaths, 2)
	require.Equal(t, Stat("*"), page.StudyPaths[0].Min)
	require.Equal(t, Stat("320"), page.StudyPaths[0].Median)
	require.Equal(t, Stat("250.5"), page.StudyPaths[1].Min)
	require.Empty(t, rec.Of(telemetry.KindWarning))
}

func TestGetProgramPageMissing(t *testing.T) {
	client, rec := setup(t, &fakeEdnia{})

	result := client.GetProgramPage(context.Background(), "abc", "TE", "stockholm")
	require.False(t, result.Present())
	require.Nil(t, result.Reason())
	require.Empty(t, rec.Of(telemetry.KindWarning))
}

func TestGetProgramPageFailureIsWarned(t *testing.T) {
	client, rec := setup(t, &fakeEdnia{status: http.StatusInternalServerError})

	result := client.GetProgramPage(context.Background(), "abc", "NA", "stockholm")
	require.False(t, result.Present())
	require.Error(t, result.Reason())

	warnings := rec.Of(telemetry.KindWarning)
	require.Len(t, warnings, 1)
	require.Equal(t, "ednia: client.get-program-page", warnings[0].Id)
}

func TestSchoolIdUnmarshal(t *testing.T) {
	testCases := []struct {
		input    string
		expected SchoolId
	}{
		{input: `"5f1c"`, expected: "5f1c"},
		{input: `1234`, expected: "1234"},
		{input: `null`, expected: ""},
	}
	for _, test := range testCases {
		var id SchoolId
		require.NoError(t, json.Unmarshal([]byte(test.input), &id))
		require.Equal(t, test.expected, id)
	}

	var id SchoolId
	require.Error(t, json.Unmarshal([]byte(`{}`), &id))
}

func TestStatUnmarshal(t *testing.T) {
	testCases := []struct {
		input    string
		expected Stat
	}{
		{input: `310.5`, expected: "310.5"},
		{input: `1e3`, expected: "1e3"},
		{input: `"-"`, expected: "-"},
		{input: `"12,5"`, expected: "12,5"},
		{input: `null`, expected: ""},
	}
	for _, test := range testCases {
		var stat Stat
		require.NoError(t, json.Unmarshal([]byte(test.input), &stat))
		require.Equal(t, test.expected, stat)
	}
}
