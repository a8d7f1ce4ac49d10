package model

// SubjectScore is the numeric breakdown for one subject line
type SubjectScore struct {
	Subject          string   `json:"subject"`
	Length           int      `json:"length"`
	CapsPercentage   float64  `json:"caps_percentage"`
	SpamHits         []string `json:"spam_hits,omitempty"`
	LengthScore      float64  `json:"length_score"`      // -25..30
	CapsScore        float64  `json:"caps_score"`        // -20..0
	SpamScore        float64  `json:"spam_score"`        // -25..0
	PunctuationScore float64  `json:"punctuation_score"` // -50..0
	KeywordBonus     float64  `json:"keyword_bonus"`     // 0 or 8
	OverallScore     float64  `json:"overall_score"`     // 0..100
	Signals          []Signal `json:"signals,omitempty"`
}

// BulletsPosition locates a bullet list relative to the opening paragraphs
type BulletsPosition string

const (
	BulletsNone  BulletsPosition = "none"
	BulletsCase1 BulletsPosition = "case_1" // Between paragraph 1 and 2
	BulletsCase2 BulletsPosition = "case_2" // Between paragraph 2 and 3
)

// ContentScore is the numeric breakdown for one email body
type ContentScore struct {
	IntroWordCount      int             `json:"intro_word_count"`
	BulletsPosition     BulletsPosition `json:"bullets_position"`
	CTACount            int             `json:"cta_count"`
	ExternalDomainCount int             `json:"external_domain_count"`
	RawScore            float64         `json:"raw_score"`     // 0..55
	OverallScore        float64         `json:"overall_score"` // 0..100
	Signals             []Signal        `json:"signals,omitempty"`
}

// Confidence buckets a composite score
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// RankedDraft is one row of a ranking
type RankedDraft struct {
	Rank        int          `json:"rank"`
	Index       int          `json:"index"` // Position in the input
	DraftID     string       `json:"draft_id,omitempty"`
	Subject     SubjectScore `json:"subject"`
	Content     ContentScore `json:"content"`
	Overall     float64      `json:"overall_score"`
	Confidence  Confidence   `json:"confidence"`
	Explanation string       `json:"explanation"`
}
