package ednia

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SchoolId is the school's identifier. The recommend endpoint has served it
// both as a string and as a number, both decode to the same text.
type SchoolId string

func (id *SchoolId) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return err
		}
		*id = SchoolId(s)
		return nil
	}
	var n json.Number
	err := json.Unmarshal(data, &n)
	if err != nil {
		return fmt.Errorf("school id: %w", err)
	}
	*id = SchoolId(n.String())
	return nil
}

type School struct {
	Id           SchoolId `json:"id"`
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	Municipality string   `json:"municipality"`
	Programs     []string `json:"programs"`
}

// Stat is a statistic exactly as the API sent it. Numbers keep their
// literal, strings such as "-" are kept unquoted and null or a missing
// field is empty.
type Stat string

func (s *Stat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		err := json.Unmarshal(data, &text)
		if err != nil {
			return err
		}
		*s = Stat(text)
		return nil
	}
	*s = Stat(data)
	return nil
}

func (s Stat) String() string {
	return string(s)
}

type EducationStats struct {
	AverageGrade    Stat `json:"averageGrade"`
	FlowthroughRate Stat `json:"flowthroughRate"`
}

type StudyPath struct {
	Name          string `json:"name"`
	CompareNumber Stat   `json:"compareNumber"`
	Min           Stat   `json:"min"`
	Median        Stat   `json:"median"`
	Admitted      Stat   `json:"admitted"`
}

type ProgramPage struct {
	EducationStats EducationStats `json:"educationStats"`
	FemaleRatio    Stat           `json:"femaleRatio"`
	StudyPaths     []StudyPath    `json:"studyPaths"`
}

type recommendFilter struct {
	Projection         string   `json:"projection"`
	Municipality       string   `json:"municipality"`
	Query              string   `json:"query"`
	Programs           []string `json:"programs"`
	AdmissionPointsMin int      `json:"admissionPointsMin"`
	AdmissionPointsMax int      `json:"admissionPointsMax"`
}

type recommendRequest struct {
	Offset int             `json:"offset"`
	Take   int             `json:"take"`
	Filter recommendFilter `json:"filter"`
}

type recommendResponse struct {
	Result []School `json:"result"`
}

type programPageResponse struct {
	ProgramPage *ProgramPage `json:"programPage"`
}
