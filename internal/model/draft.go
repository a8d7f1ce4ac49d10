package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Draft is one candidate CFP email together with the metadata the rules need.
// The engine treats it as read-only input.
type Draft struct {
	ID                     string   `json:"id,omitempty" yaml:"id,omitempty"`
	SubjectLine            string   `json:"subject_line" yaml:"subject_line"`
	Body                   string   `json:"body" yaml:"body"`
	SenderName             string   `json:"sender_name" yaml:"sender_name"`
	SenderEmail            string   `json:"sender_email" yaml:"sender_email"`
	JournalName            string   `json:"journal_name" yaml:"journal_name"`
	JournalShortName       string   `json:"journal_short_name" yaml:"journal_short_name"`
	ISSN                   string   `json:"issn" yaml:"issn"`
	SubmissionDeadlineText string   `json:"submission_deadline_text" yaml:"submission_deadline_text"`
	WaiverAvailable        bool     `json:"waiver_available" yaml:"waiver_available"`
	WaiverPercentage       int      `json:"waiver_percentage" yaml:"waiver_percentage"`
	SubmitURL              string   `json:"submit_url" yaml:"submit_url"`
	CredibilityURLs        []string `json:"credibility_urls,omitempty" yaml:"credibility_urls,omitempty"`
}

// DraftFromRecord builds a Draft from a loosely typed record, as delivered by
// a UI form or a database row. Missing and nil values become zero values.
func DraftFromRecord(rec map[string]interface{}) Draft {
	d := Draft{
		ID:                     recordString(rec, "id"),
		SubjectLine:            recordString(rec, "subject_line"),
		Body:                   recordString(rec, "body"),
		SenderName:             recordString(rec, "sender_name"),
		SenderEmail:            recordString(rec, "sender_email"),
		JournalName:            recordString(rec, "journal_name"),
		JournalShortName:       recordString(rec, "journal_short_name"),
		ISSN:                   recordString(rec, "issn"),
		SubmissionDeadlineText: recordString(rec, "submission_deadline_text"),
		WaiverAvailable:        recordBool(rec, "waiver_available"),
		WaiverPercentage:       recordInt(rec, "waiver_percentage"),
		SubmitURL:              recordString(rec, "submit_url"),
	}

	switch v := rec["credibility_urls"].(type) {
	case []string:
		d.CredibilityURLs = append(d.CredibilityURLs, v...)
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				d.CredibilityURLs = append(d.CredibilityURLs, s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				d.CredibilityURLs = append(d.CredibilityURLs, s)
			}
		}
	}

	if d.WaiverPercentage < 0 {
		d.WaiverPercentage = 0
	}
	if d.WaiverPercentage > 100 {
		d.WaiverPercentage = 100
	}

	return d
}

// Text returns the subject and body joined the way the rules read them.
func (d Draft) Text() string {
	if d.SubjectLine == "" {
		return d.Body
	}
	return "Subject: " + d.SubjectLine + "\n\n" + d.Body
}

func recordString(rec map[string]interface{}, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func recordBool(rec map[string]interface{}, key string) bool {
	switch t := rec[key].(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return false
}

func recordInt(rec map[string]interface{}, key string) int {
	switch t := rec[key].(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(t, "%")))
		return n
	}
	return 0
}
