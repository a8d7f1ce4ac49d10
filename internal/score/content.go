package score

import (
	"fmt"

	"github.com/ppiankov/cfpqc/internal/extract"
	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/textmetrics"
)

const (
	// IntroExtractionCap bounds the reported intro length
	IntroExtractionCap = 100
	// IntroHookOptimalMax is the longest intro that still earns the hook points
	IntroHookOptimalMax = 40
)

// Content score contributions
const (
	ContentIntroPoints = 20.0
	ContentCase1Points = 15.0
	ContentCase2Points = 7.5
	ContentCTAPoints   = 20.0
	ContentRawMax      = ContentIntroPoints + ContentCase1Points + ContentCTAPoints
)

// MalformedBodyWarning is reported when markup had to be stripped best-effort
const MalformedBodyWarning = "body is not well-formed HTML; structure derived from stripped text"

// ContentAnalyzer measures the structure of an email body
type ContentAnalyzer struct{}

// NewContentAnalyzer creates a content analyzer
func NewContentAnalyzer() *ContentAnalyzer {
	return &ContentAnalyzer{}
}

// IntroWordCount counts the words of the opening block, capped at IntroExtractionCap
func (a *ContentAnalyzer) IntroWordCount(body string) int {
	return introWords(extract.Parse(body))
}

// BulletsPosition locates the first list relative to the opening paragraphs
func (a *ContentAnalyzer) BulletsPosition(body string) model.BulletsPosition {
	return bulletsPosition(extract.Parse(body))
}

// CTACount counts call-to-action links: every web link that is not an
// unsubscribe or web-version link. Mailto links never count.
func (a *ContentAnalyzer) CTACount(body string) int {
	return ctaCount(extract.Links(body))
}

// ExternalDomainCount counts distinct registered domains across all web links
func (a *ContentAnalyzer) ExternalDomainCount(body string) int {
	return domainCount(extract.Links(body))
}

// Analyze computes the full content score
func (a *ContentAnalyzer) Analyze(body string) model.ContentScore {
	st := extract.Parse(body)
	links := extract.Links(body)

	var signals []model.Signal

	intro := introWords(st)
	introScore := 0.0
	introSeverity := model.SeverityWarning
	if intro <= IntroHookOptimalMax {
		introScore = ContentIntroPoints
		introSeverity = model.SeverityInfo
	}
	signals = append(signals, model.Signal{
		Type:        model.SignalIntroHook,
		Severity:    introSeverity,
		Description: fmt.Sprintf("Intro length: %d words", intro),
		Data: map[string]interface{}{
			"intro_word_count": intro,
			"score":            introScore,
			"formula":          "+20 if intro_word_count <= 40 else 0",
		},
	})

	position := bulletsPosition(st)
	bulletScore := 0.0
	switch position {
	case model.BulletsCase1:
		bulletScore = ContentCase1Points
	case model.BulletsCase2:
		bulletScore = ContentCase2Points
	}
	bulletSeverity := model.SeverityInfo
	if position == model.BulletsNone {
		bulletSeverity = model.SeverityWarning
	}
	signals = append(signals, model.Signal{
		Type:        model.SignalBullets,
		Severity:    bulletSeverity,
		Description: fmt.Sprintf("Bullet list position: %s", position),
		Data: map[string]interface{}{
			"position": string(position),
			"score":    bulletScore,
			"formula":  "+15 case_1, +7.5 case_2, else 0",
		},
	})

	ctas := ctaCount(links)
	ctaScore := 0.0
	ctaSeverity := model.SeverityWarning
	if ctas == 1 {
		ctaScore = ContentCTAPoints
		ctaSeverity = model.SeverityInfo
	} else if ctas == 0 {
		ctaSeverity = model.SeverityCritical
	}
	signals = append(signals, model.Signal{
		Type:        model.SignalCTA,
		Severity:    ctaSeverity,
		Description: fmt.Sprintf("Call-to-action links: %d", ctas),
		Data: map[string]interface{}{
			"cta_count": ctas,
			"score":     ctaScore,
			"formula":   "+20 if cta_count == 1 else 0",
		},
	})

	domains := domainCount(links)
	signals = append(signals, model.Signal{
		Type:        model.SignalExternalDomains,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Distinct linked domains: %d", domains),
		Data: map[string]interface{}{
			"external_domain_count": domains,
		},
	})

	if st.Malformed {
		signals = append(signals, model.Signal{
			Type:        model.SignalMalformedInput,
			Severity:    model.SeverityWarning,
			Description: MalformedBodyWarning,
		})
	}

	raw := introScore + bulletScore + ctaScore

	return model.ContentScore{
		IntroWordCount:      intro,
		BulletsPosition:     position,
		CTACount:            ctas,
		ExternalDomainCount: domains,
		RawScore:            raw,
		OverallScore:        clamp(raw/ContentRawMax*100, 0, 100),
		Signals:             signals,
	}
}

func introWords(st extract.Structure) int {
	n := textmetrics.WordCount(st.Intro())
	if n > IntroExtractionCap {
		n = IntroExtractionCap
	}
	return n
}

func bulletsPosition(st extract.Structure) model.BulletsPosition {
	switch {
	case st.ListBetween(1):
		return model.BulletsCase1
	case st.ListBetween(2):
		return model.BulletsCase2
	}
	return model.BulletsNone
}

func ctaCount(links []extract.Link) int {
	n := 0
	for _, l := range links {
		if l.Kind == extract.LinkCTA {
			n++
		}
	}
	return n
}

func domainCount(links []extract.Link) int {
	domains := make(map[string]bool)
	for _, l := range extract.WebLinks(links) {
		if l.RegisteredDomain != "" {
			domains[l.RegisteredDomain] = true
		}
	}
	return len(domains)
}
