package telemetry

import "strings"

type Kind int

const (
	KindBroken Kind = iota
	KindWarning
	KindProgress
	KindDebug
	KindCount
)

type Entry struct {
	Kind   Kind
	Id     string
	Params []any
}

// Recorder implements API by keeping every report in memory, tests use it to
// assert on the diagnostic stream.
type Recorder struct {
	Entries []Entry
}

func (r *Recorder) add(kind Kind, id string, params []any) {
	r.Entries = append(r.Entries, Entry{Kind: kind, Id: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(KindBroken, id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(KindWarning, id, params)
}

func (r *Recorder) ReportProgress(msg string, params ...any) {
	r.add(KindProgress, msg, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(KindDebug, msg, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(KindCount, id, []any{count})
}

// Of returns the entries of a given kind in the order they were reported.
func (r *Recorder) Of(kind Kind) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Contains reports whether an entry of kind has an id containing substr.
func (r *Recorder) Contains(kind Kind, substr string) bool {
	for _, e := range r.Of(kind) {
		if strings.Contains(e.Id, substr) {
			return true
		}
	}
	return false
}
