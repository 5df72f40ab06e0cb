package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"
)

type CrimeType string

const (
	CrimeTheft     CrimeType = "theft"
	CrimeRobbery   CrimeType = "robbery"
	CrimeAssault   CrimeType = "assault"
	CrimeVandalism CrimeType = "vandalism"
	CrimeFraud     CrimeType = "fraud"
	CrimeOther     CrimeType = "other"
)

var CrimeTypes = []CrimeType{CrimeTheft, CrimeRobbery, CrimeAssault, CrimeVandalism, CrimeFraud, CrimeOther}

// ParseCrimeType lower-cases s and reports whether it names a known crime type.
func ParseCrimeType(s string) (CrimeType, bool) {
	ct := CrimeType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range CrimeTypes {
		if ct == known {
			return ct, true
		}
	}
	return ct, false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func ParseSeverity(s string) (Severity, bool) {
	sv := Severity(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Severities {
		if sv == known {
			return sv, true
		}
	}
	return sv, false
}

type VoteType string

const (
	VoteHelpful   VoteType = "helpful"
	VoteUnhelpful VoteType = "unhelpful"
)

func (v VoteType) Valid() bool {
	return v == VoteHelpful || v == VoteUnhelpful
}

// Votes holds the voter ids of each bucket as reported by the server.
type Votes struct {
	Helpful   []string `json:"helpful"`
	Unhelpful []string `json:"unhelpful"`
}

type Report struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	CrimeType   CrimeType `json:"crimeType"`
	Severity    Severity  `json:"severity"`
	AuthorID    string    `json:"authorId,omitempty"`
	AuthorName  string    `json:"authorName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Votes       Votes     `json:"votes"`
}

// MatchesLocation reports whether the report location contains substr,
// ignoring case. An empty substr matches every report.
func (r *Report) MatchesLocation(substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Location), strings.ToLower(substr))
}

// VoteOf returns the bucket userID currently sits in, if any.
func (r *Report) VoteOf(userID string) (VoteType, bool) {
	if userID == "" {
		return "", false
	}
	for _, id := range r.Votes.Helpful {
		if id == userID {
			return VoteHelpful, true
		}
	}
	for _, id := range r.Votes.Unhelpful {
		if id == userID {
			return VoteUnhelpful, true
		}
	}
	return "", false
}

func (r *Report) HelpfulCount() int   { return len(r.Votes.Helpful) }
func (r *Report) UnhelpfulCount() int { return len(r.Votes.Unhelpful) }

// reportWire is the shape the API sends. Ids come as "_id" (or "id", string or
// number) and the author is either a populated object or a bare id.
type reportWire struct {
	MongoID     string          `json:"_id"`
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	CrimeType   CrimeType       `json:"crimeType"`
	Severity    Severity        `json:"severity"`
	UserID      json.RawMessage `json:"userId"`
	AuthorID    string          `json:"authorId"`
	AuthorName  string          `json:"authorName"`
	CreatedAt   time.Time       `json:"createdAt"`
	Votes       *struct {
		Helpful   []json.RawMessage `json:"helpful"`
		Unhelpful []json.RawMessage `json:"unhelpful"`
	} `json:"votes"`
}

func (r *Report) UnmarshalJSON(data []byte) error {
	var w reportWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = Report{
		ID:          w.MongoID,
		Title:       w.Title,
		Description: w.Description,
		Location:    w.Location,
		CrimeType:   w.CrimeType,
		Severity:    w.Severity,
		AuthorID:    w.AuthorID,
		AuthorName:  w.AuthorName,
		CreatedAt:   w.CreatedAt,
	}
	if r.ID == "" {
		r.ID = rawID(w.ID)
	}

	author := bytes.TrimSpace(w.UserID)
	if len(author) > 0 && author[0] == '{' {
		var populated struct {
			ID   string `json:"_id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(author, &populated); err == nil {
			r.AuthorID = populated.ID
			if r.AuthorName == "" {
				r.AuthorName = populated.Name
			}
		}
	} else if id := rawID(author); id != "" {
		r.AuthorID = id
	}

	if w.Votes != nil {
		r.Votes.Helpful = voterIDs(w.Votes.Helpful)
		r.Votes.Unhelpful = voterIDs(w.Votes.Unhelpful)
	}
	return nil
}

// rawID accepts a JSON string, number or populated {"_id": ...} object.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '{':
		var obj struct {
			MongoID string `json:"_id"`
			ID      string `json:"id"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			if obj.MongoID != "" {
				return obj.MongoID
			}
			return obj.ID
		}
	default:
		return string(raw)
	}
	return ""
}

func voterIDs(raw []json.RawMessage) []string {
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id := rawID(v); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ReportDraft is what a user fills in before submission.
type ReportDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	CrimeType   string `json:"crimeType"`
	Severity    string `json:"severity"`
}

// Normalize trims every field, lower-cases the crime type and severity, and
// defaults an empty severity to medium.
func (d ReportDraft) Normalize() ReportDraft {
	out := ReportDraft{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Location:    strings.TrimSpace(d.Location),
		CrimeType:   strings.ToLower(strings.TrimSpace(d.CrimeType)),
		Severity:    strings.ToLower(strings.TrimSpace(d.Severity)),
	}
	if out.Severity == "" {
		out.Severity = string(SeverityMedium)
	}
	return out
}

// Validate expects a normalized draft.
func (d ReportDraft) Validate() error {
	switch {
	case d.Title == "":
		return NewError(KindValidation, "title is required", nil)
	case d.Location == "":
		return NewError(KindValidation, "location is required", nil)
	case d.Description == "":
		return NewError(KindValidation, "description is required", nil)
	case d.CrimeType == "":
		return NewError(KindValidation, "crime type is required", nil)
	}
	if _, ok := ParseCrimeType(d.CrimeType); !ok {
		return NewError(KindValidation, "unknown crime type "+d.CrimeType, nil)
	}
	if _, ok := ParseSeverity(d.Severity); !ok {
		return NewError(KindValidation, "unknown severity "+d.Severity, nil)
	}
	return nil
}

// ReportAPI is the remote report collection.
type ReportAPI interface {
	ListReports(ctx context.Context) ([]Report, error)
	CreateReport(ctx context.Context, draft ReportDraft) (*Report, error)
	Vote(ctx context.Context, reportID string, vote VoteType) (string, error)
}
