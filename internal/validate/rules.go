package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/cfpqc/internal/extract"
	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/textmetrics"
)

// Rule ids, in evaluation order
const (
	RuleWordCount            = "word_count"
	RuleSpamDensity          = "spam_density"
	RuleNoFullWaiver         = "no_full_waiver"
	RuleNoIndexing           = "no_indexing"
	RuleNoFastTrack          = "no_fast_track"
	RuleSingleBlindOnly      = "single_blind_only"
	RuleArticleTypeClause    = "article_type_clause"
	RuleFullDeadline         = "full_deadline"
	RuleOpenAccessSpelling   = "openaccess_spelling"
	RuleNoPlaceholder        = "no_placeholder"
	RuleJournalNameFrequency = "journal_name_frequency"
	RuleSingleCTAAndEmail    = "single_cta_and_email"
	RuleCredibilityLinks     = "credibility_links"
	RuleSignatureBlock       = "signature_block"
	RuleFooterVerbatim       = "footer_verbatim"
	RuleHypeWordCap          = "hype_word_cap"
	RuleHardSellVerbs        = "hard_sell_verbs"

	RuleNoWaiverDisclaimer = "no_waiver_disclaimer"
	RuleWaiverPercentMatch = "waiver_percentage_match"
	RuleJournalISSNOnce    = "journal_issn_once"
	RuleBlockOrder         = "block_order"
	RuleBulletFormat       = "bullet_format"
	RuleDeadlineTextMatch  = "deadline_text_match"

	RuleHookQuality     = "hook_quality"
	RuleCollegialTone   = "collegial_tone"
	RuleBalancedBenefit = "balanced_benefit"
)

// ReviewRuleIDs are the rules only an external reviewer can decide
var ReviewRuleIDs = []string{RuleHookQuality, RuleCollegialTone, RuleBalancedBenefit}

var (
	FullWaiverPhrases = []string{"full waiver", "complete waiver", "zero apc", "no apc", "free of charge", "waived fee", "entire waiver", "100% waiver"}
	IndexingTerms     = []string{"index", "scopus", "web of science"}
	FastTrackPhrases  = []string{"fast-track", "fast track", "rapid review", "quick review", "expedited"}
	DoubleBlindTerms  = []string{"double-blind", "double blind"}
	PlaceholderMarker = "[mention recipient"
	BulletPrefix      = "● "

	// HypeWords feed the hype cap; they are counted separately from spam
	HypeWords = []string{
		"groundbreaking", "ground-breaking", "revolutionary", "unbeatable", "cutting-edge",
		"world-class", "unparalleled", "unprecedented", "game-changing", "game changer",
		"state-of-the-art", "pioneering", "transformative", "extraordinary", "remarkable",
		"exceptional", "prestigious", "renowned", "incredible", "outstanding",
		"breakthrough", "landmark", "exciting", "premier", "unmatched", "top-tier",
	}

	// HardSellPhrases create false urgency
	HardSellPhrases = []string{"seize", "grab", "hurry", "act now", "don't miss out"}

	// ArticleTypes are the article-type keywords the clause rule counts
	ArticleTypes = []string{
		"original research", "research article", "review", "case study", "case report",
		"short communication", "editorial", "commentary", "perspective", "methods paper",
	}
)

var (
	openAccessPattern = regexp.MustCompile(`\bopen(?:\s+|-)access\b`)
	allTypesPattern   = regexp.MustCompile(`\ball\s+(?:article\s+)?types\s+(?:are\s+)?welcome\b`)
	deadlineKeywords  = []string{"deadline", "last date"}
	literalBullet     = regexp.MustCompile(`^(?:[•●▪◦‣]|[*\-]\s)`)

	// "does not offer fee waivers", "no fee waiver is available" and the like
	waiverDisclaimer = regexp.MustCompile(`\b(?:does\s+not|do\s+not|doesn't|don't|cannot|can't)\s+offer\s+(?:any\s+)?(?:apc\s+|fee\s+)?waivers?\b` +
		`|\bno\s+(?:apc\s+|fee\s+)?waivers?\s+(?:is|are|will\s+be)\s+(?:available|offered|granted)\b` +
		`|\b(?:fee\s+)?waivers?\s+(?:is|are)\s+not\s+(?:available|offered)\b`)

	// Phrases that contain an article-type word without naming an article type
	articleTypeNoise = strings.NewReplacer(
		"peer review", " ", "peer-review", " ", "review process", " ", "rapid review", " ",
		"quick review", " ", "reviewers", " ", "editorial office", " ", "editorial board", " ",
		"editorial team", " ", "editorial policy", " ", "editorial policies", " ",
	)

	articleTypePatterns = compileWordPatterns(ArticleTypes)
)

func (e *Engine) buildRules() []Rule {
	rules := []Rule{
		{RuleWordCount, e.checkWordCount},
		{RuleSpamDensity, e.checkSpamDensity},
		{RuleNoFullWaiver, forbidPhrases(FullWaiverPhrases)},
		{RuleNoIndexing, forbidPhrases(IndexingTerms)},
		{RuleNoFastTrack, forbidPhrases(FastTrackPhrases)},
		{RuleSingleBlindOnly, e.checkSingleBlind},
		{RuleArticleTypeClause, e.checkArticleTypes},
		{RuleFullDeadline, e.checkDeadline},
		{RuleOpenAccessSpelling, checkOpenAccess},
		{RuleNoPlaceholder, checkPlaceholder},
		{RuleJournalNameFrequency, e.checkJournalName},
		{RuleSingleCTAAndEmail, e.checkSingleCTA},
		{RuleCredibilityLinks, e.checkCredibilityLinks},
		{RuleSignatureBlock, checkSignature},
		{RuleFooterVerbatim, e.checkFooter},
		{RuleHypeWordCap, e.checkHypeWords},
		{RuleHardSellVerbs, e.checkHardSell},
	}

	if e.config.EnableSupplementary {
		rules = append(rules,
			Rule{RuleNoWaiverDisclaimer, checkNoWaiverDisclaimer},
			Rule{RuleWaiverPercentMatch, checkWaiverPercentage},
			Rule{RuleJournalISSNOnce, checkISSN},
			Rule{RuleBlockOrder, e.checkBlockOrder},
			Rule{RuleBulletFormat, e.checkBullets},
			Rule{RuleDeadlineTextMatch, checkDeadlineText},
		)
	}

	for _, id := range ReviewRuleIDs {
		rules = append(rules, Rule{id, needsReview})
	}

	return rules
}

func (e *Engine) checkWordCount(d *draftContext) model.RuleResult {
	if d.words > e.config.MinWordCount {
		return model.Pass(RuleWordCount)
	}
	return model.Fail(RuleWordCount, fmt.Sprintf("%d words, need more than %d", d.words, e.config.MinWordCount))
}

func (e *Engine) checkSpamDensity(d *draftContext) model.RuleResult {
	hits := e.lexicon.Scan(d.text, e.exceptions...)
	words := d.words
	if words < 1 {
		words = 1
	}

	density := float64(len(hits)) / float64(words)
	if density > 1 {
		density = 1
	}

	if density <= e.config.MaxSpamDensity {
		return model.Pass(RuleSpamDensity)
	}

	distinct := e.lexicon.FindHits(d.text, e.exceptions...)
	return model.Fail(RuleSpamDensity, fmt.Sprintf("density %.3f > %.3f (%s)", density, e.config.MaxSpamDensity, strings.Join(distinct, ", ")))
}

// forbidPhrases fails when any phrase occurs as a case-insensitive substring
func forbidPhrases(phrases []string) func(d *draftContext) model.RuleResult {
	return func(d *draftContext) model.RuleResult {
		found := containsAny(d.prose, phrases)
		if len(found) == 0 {
			return model.RuleResult{Status: model.StatusPass, Passed: true}
		}
		return model.RuleResult{Status: model.StatusFail, Detail: "found: " + strings.Join(found, ", ")}
	}
}

func (e *Engine) checkSingleBlind(d *draftContext) model.RuleResult {
	if len(containsAny(d.prose, DoubleBlindTerms)) > 0 {
		return model.Fail(RuleSingleBlindOnly, "double-blind mentioned")
	}
	return model.Pass(RuleSingleBlindOnly)
}

func (e *Engine) checkArticleTypes(d *draftContext) model.RuleResult {
	cleaned := articleTypeNoise.Replace(d.prose)

	var named []string
	for i, re := range articleTypePatterns {
		if re.MatchString(cleaned) {
			named = append(named, ArticleTypes[i])
		}
	}

	if len(named) < e.config.ArticleTypeTrigger || allTypesPattern.MatchString(d.lower) {
		return model.Pass(RuleArticleTypeClause)
	}
	return model.Fail(RuleArticleTypeClause, fmt.Sprintf("%d article types named (%s) without \"all types welcome\"", len(named), strings.Join(named, ", ")))
}

func (e *Engine) checkDeadline(d *draftContext) model.RuleResult {
	match, ok := textmetrics.FindFullDate(d.text)
	if !ok {
		return model.Fail(RuleFullDeadline, "no full date found")
	}

	days := textmetrics.DaysUntil(match.Date, d.today)
	switch {
	case days <= 0:
		return model.Fail(RuleFullDeadline, fmt.Sprintf("deadline %s is not in the future (%d days)", match.Text, days))
	case days > e.config.DeadlineWindowDays:
		return model.Fail(RuleFullDeadline, fmt.Sprintf("deadline %s is %d days ahead (max %d)", match.Text, days, e.config.DeadlineWindowDays))
	}

	lo := match.Start - e.config.DeadlineProximity
	if lo < 0 {
		lo = 0
	}
	hi := match.End + e.config.DeadlineProximity
	if hi > len(d.text) {
		hi = len(d.text)
	}
	window := strings.ToLower(d.text[lo:hi])
	if len(containsAny(window, deadlineKeywords)) == 0 {
		return model.Fail(RuleFullDeadline, fmt.Sprintf("date %s is not near a deadline keyword", match.Text))
	}

	return model.Pass(RuleFullDeadline)
}

func checkOpenAccess(d *draftContext) model.RuleResult {
	if m := openAccessPattern.FindString(d.prose); m != "" {
		return model.Fail(RuleOpenAccessSpelling, fmt.Sprintf("found %q; use \"openaccess\" or \"OA\"", m))
	}
	return model.Pass(RuleOpenAccessSpelling)
}

func checkPlaceholder(d *draftContext) model.RuleResult {
	if strings.Contains(d.lower, PlaceholderMarker) {
		return model.Fail(RuleNoPlaceholder, "unfilled template placeholder")
	}
	return model.Pass(RuleNoPlaceholder)
}

func (e *Engine) checkJournalName(d *draftContext) model.RuleResult {
	name := textmetrics.Normalize(d.draft.JournalName)
	if name == "" {
		return model.Pass(RuleJournalNameFrequency)
	}

	n := textmetrics.CountPhrase(d.lower, name)
	if n > e.config.MaxJournalMentions {
		return model.Fail(RuleJournalNameFrequency, fmt.Sprintf("journal name appears %d times (max %d)", n, e.config.MaxJournalMentions))
	}
	return model.Pass(RuleJournalNameFrequency)
}

// ctaLinks returns the CTA-class links that are not credibility links
func (e *Engine) ctaLinks(d *draftContext) []extract.Link {
	classifier := e.credibility.WithListed(d.draft.CredibilityURLs)

	var ctas []extract.Link
	for _, l := range d.links {
		if l.Kind == extract.LinkCTA && !classifier.IsCredibility(l.URL, d.submitURL) {
			ctas = append(ctas, l)
		}
	}
	return ctas
}

func (e *Engine) checkSingleCTA(d *draftContext) model.RuleResult {
	urls := len(extract.UniqueURLs(e.ctaLinks(d)))
	emails := extract.Emails(d.text)

	if urls != 1 || len(emails) != 1 {
		return model.Fail(RuleSingleCTAAndEmail, fmt.Sprintf("urls=%d emails=%d", urls, len(emails)))
	}

	sender := strings.ToLower(strings.TrimSpace(d.draft.SenderEmail))
	if sender != "" && emails[0] != sender {
		return model.Fail(RuleSingleCTAAndEmail, fmt.Sprintf("visible email %s is not the sender %s", emails[0], sender))
	}
	return model.Pass(RuleSingleCTAAndEmail)
}

func (e *Engine) checkCredibilityLinks(d *draftContext) model.RuleResult {
	classifier := e.credibility.WithListed(d.draft.CredibilityURLs)
	submit := normalizeURL(d.submitURL)

	var found []extract.Link
	for _, l := range extract.WebLinks(d.links) {
		if normalizeURL(l.URL) == submit {
			continue
		}
		if classifier.SameSite(l.URL, d.submitURL) && classifier.IsCredibility(l.URL, d.submitURL) {
			found = append(found, l)
		}
	}

	n := len(extract.UniqueURLs(found))
	if n == e.config.CredibilityLinks {
		return model.Pass(RuleCredibilityLinks)
	}
	return model.Fail(RuleCredibilityLinks, fmt.Sprintf("found=%d", n))
}

func checkSignature(d *draftContext) model.RuleResult {
	sig := extract.FindSignature(d.draft.Body)
	if sig.OK() {
		return model.Pass(RuleSignatureBlock)
	}
	return model.Fail(RuleSignatureBlock, sig.Problem())
}

// checkFooter requires the configured footer lines, in order, inside the
// signature block. Several footer lines may share one signature line.
func (e *Engine) checkFooter(d *draftContext) model.RuleResult {
	if len(e.config.FooterLines) == 0 {
		return model.Pass(RuleFooterVerbatim)
	}

	sig := extract.FindSignature(d.draft.Body)
	if !sig.Found {
		return model.Fail(RuleFooterVerbatim, "closing line not found")
	}

	keys := make([]string, len(e.config.FooterLines))
	for i, l := range e.config.FooterLines {
		keys[i] = footerKey(l)
	}

	next := 0
	for _, line := range sig.Lines {
		line = footerKey(line)
		for next < len(keys) {
			i := strings.Index(line, keys[next])
			if i < 0 {
				break
			}
			line = line[i+len(keys[next]):]
			next++
		}
	}

	if next == len(e.config.FooterLines) {
		return model.Pass(RuleFooterVerbatim)
	}
	return model.Fail(RuleFooterVerbatim, fmt.Sprintf("footer line %q missing or out of order", e.config.FooterLines[next]))
}

func footerKey(line string) string {
	return strings.ToLower(textmetrics.Normalize(line))
}

func (e *Engine) checkHypeWords(d *draftContext) model.RuleResult {
	hits := e.hype.FindHits(d.text)
	if len(hits) <= e.config.MaxHypeWords {
		return model.Pass(RuleHypeWordCap)
	}
	return model.Fail(RuleHypeWordCap, fmt.Sprintf("%d hype words (max %d): %s", len(hits), e.config.MaxHypeWords, strings.Join(hits, ", ")))
}

func (e *Engine) checkHardSell(d *draftContext) model.RuleResult {
	hits := e.hardSell.FindHits(d.text)
	if len(hits) == 0 {
		return model.Pass(RuleHardSellVerbs)
	}
	return model.Fail(RuleHardSellVerbs, "found: "+strings.Join(hits, ", "))
}

// checkNoWaiverDisclaimer keeps a journal without a waiver from saying so
// in the body. Plain waiver mentions are left to the other waiver rules.
func checkNoWaiverDisclaimer(d *draftContext) model.RuleResult {
	if d.draft.WaiverAvailable {
		return model.Pass(RuleNoWaiverDisclaimer)
	}
	if m := waiverDisclaimer.FindString(d.prose); m != "" {
		return model.Fail(RuleNoWaiverDisclaimer, fmt.Sprintf("drop the waiver disclaimer %q", m))
	}
	return model.Pass(RuleNoWaiverDisclaimer)
}

func checkWaiverPercentage(d *draftContext) model.RuleResult {
	if !d.draft.WaiverAvailable || d.draft.WaiverPercentage == 0 {
		return model.Pass(RuleWaiverPercentMatch)
	}

	stated, ok := textmetrics.ExtractWaiverPercentage(d.text)
	switch {
	case !ok:
		return model.Fail(RuleWaiverPercentMatch, fmt.Sprintf("waiver of %d%% offered but no percentage stated", d.draft.WaiverPercentage))
	case stated != d.draft.WaiverPercentage:
		return model.Fail(RuleWaiverPercentMatch, fmt.Sprintf("body states %d%%, draft offers %d%%", stated, d.draft.WaiverPercentage))
	}
	return model.Pass(RuleWaiverPercentMatch)
}

func checkISSN(d *draftContext) model.RuleResult {
	issn := strings.TrimSpace(d.draft.ISSN)
	if issn == "" {
		return model.Pass(RuleJournalISSNOnce)
	}

	n := textmetrics.CountPhrase(d.text, issn)
	if n == 1 {
		return model.Pass(RuleJournalISSNOnce)
	}
	return model.Fail(RuleJournalISSNOnce, fmt.Sprintf("issn appears %d times", n))
}

// blockMarker is one landmark of the expected body layout. A nil pattern
// stands for the first call-to-action URL.
type blockMarker struct {
	name    string
	pattern *regexp.Regexp
}

var blockMarkers = []blockMarker{
	{"greeting", regexp.MustCompile(`\bdear\b`)},
	{"waiver", regexp.MustCompile(`\b\d{1,3}\s?(?:%|percent\b)`)},
	{"about the journal", regexp.MustCompile(`\babout the journal\b`)},
	{"topics", regexp.MustCompile(`\b(?:topics|scope)\b`)},
	{"call to action", nil},
	{"assist line", regexp.MustCompile(`\bhappy to assist\b|\bfeel free to contact\b`)},
	{"closing", regexp.MustCompile(`\b(?:warm|kind|best)\s+regards\b|\bsincerely\b`)},
}

// checkBlockOrder requires the body landmarks to appear in layout order.
// The waiver landmark only applies when a waiver is offered.
func (e *Engine) checkBlockOrder(d *draftContext) model.RuleResult {
	masked := extract.MaskURLs(d.lower)

	var missing []string
	prevName, prevPos := "", -1
	for _, m := range blockMarkers {
		if m.name == "waiver" && !d.draft.WaiverAvailable {
			continue
		}

		pos := -1
		if m.pattern == nil {
			pos = e.firstCTAOffset(d)
		} else if loc := m.pattern.FindStringIndex(masked); loc != nil {
			pos = loc[0]
		}

		if pos < 0 {
			missing = append(missing, m.name)
			continue
		}
		if len(missing) == 0 && pos <= prevPos {
			return model.Fail(RuleBlockOrder, fmt.Sprintf("%s appears before %s", m.name, prevName))
		}
		prevName, prevPos = m.name, pos
	}

	if len(missing) > 0 {
		return model.Fail(RuleBlockOrder, "missing: "+strings.Join(missing, ", "))
	}
	return model.Pass(RuleBlockOrder)
}

// firstCTAOffset is the earliest offset of a call-to-action URL in the
// lower-cased text, or -1
func (e *Engine) firstCTAOffset(d *draftContext) int {
	first := -1
	for _, l := range e.ctaLinks(d) {
		i := strings.Index(d.lower, strings.ToLower(l.URL))
		if i < 0 && l.Anchor && strings.TrimSpace(l.Text) != "" {
			// Anchors show their text, not the href
			i = strings.Index(d.lower, strings.ToLower(textmetrics.Normalize(l.Text)))
		}
		if i >= 0 && (first < 0 || i < first) {
			first = i
		}
	}
	return first
}

// checkBullets caps the number of bullets, requires literal bullets to use
// "● " and rejects nested lists
func (e *Engine) checkBullets(d *draftContext) model.RuleResult {
	items := 0
	for _, b := range d.structure.Blocks {
		if b.Kind != extract.BlockList {
			continue
		}
		if b.Nested {
			return model.Fail(RuleBulletFormat, "nested list")
		}
		for _, line := range b.Lines() {
			items++
			if literalBullet.MatchString(line) && !strings.HasPrefix(line, BulletPrefix) {
				return model.Fail(RuleBulletFormat, fmt.Sprintf("bullet %q does not start with %q", line, BulletPrefix))
			}
		}
	}

	if e.config.MaxBullets > 0 && items > e.config.MaxBullets {
		return model.Fail(RuleBulletFormat, fmt.Sprintf("%d bullets (max %d)", items, e.config.MaxBullets))
	}
	return model.Pass(RuleBulletFormat)
}

// checkDeadlineText requires the stated deadline text to name a full date
// and that date to be the one the body gives
func checkDeadlineText(d *draftContext) model.RuleResult {
	stated := strings.TrimSpace(d.draft.SubmissionDeadlineText)
	if stated == "" {
		return model.Pass(RuleDeadlineTextMatch)
	}

	want, ok := textmetrics.FindFullDate(stated)
	if !ok {
		return model.Fail(RuleDeadlineTextMatch, fmt.Sprintf("deadline text %q has no full date", stated))
	}
	got, ok := textmetrics.FindFullDate(d.text)
	switch {
	case !ok:
		return model.Fail(RuleDeadlineTextMatch, fmt.Sprintf("body gives no date, deadline text says %s", want.Text))
	case !got.Date.Equal(want.Date):
		return model.Fail(RuleDeadlineTextMatch, fmt.Sprintf("body says %s, deadline text says %s", got.Text, want.Text))
	}
	return model.Pass(RuleDeadlineTextMatch)
}

func needsReview(d *draftContext) model.RuleResult {
	return model.RuleResult{Status: model.StatusNeedReview, Detail: "requires semantic review"}
}

func containsAny(text string, phrases []string) []string {
	var found []string
	for _, p := range phrases {
		if strings.Contains(text, p) {
			found = append(found, p)
		}
	}
	return found
}

func compileWordPatterns(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		plural := `s?`
		if strings.HasSuffix(w, "y") {
			// case study -> case studies
			w, plural = strings.TrimSuffix(w, "y"), `(?:y|ies)`
		}
		out[i] = regexp.MustCompile(`\b` + strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`) + plural + `\b`)
	}
	return out
}
