package chunker

import (
	"regexp"
	"strings"
)

// Citation families. The same set guards splits in the assembler and feeds
// the citations list of the enhancer.
var citationPatterns = []*regexp.Regexp{
	// Reporter citations: 123 Cal. 456, 45 Wash. 2d 789
	regexp.MustCompile(`\b\d+ [A-Z][a-z]+\.? *\d+d? \d+`),
	// Federal and Supreme Court reporters: 123 F.3d 456, 550 U.S. 544, 127 S. Ct. 1955
	regexp.MustCompile(`\b\d+\s+(?:F\.(?:\s?Supp\.)?|U\.S\.|S\.\s?Ct\.|L\.\s?Ed\.)\s?(?:\d+d\s+)?\d+`),
	// 28 U.S.C. § 1332
	regexp.MustCompile(`\b\d+\s+U\.S\.C\.\s*§*\s*\d+[a-z]?`),
	// Fed. R. Civ. P. 12(b)(6)
	regexp.MustCompile(`Fed\.\s*R\.\s*[A-Za-z]+\.\s*P\.(?:\s*\d+(?:\([a-z0-9]+\))*)?`),
	// Smith v. Jones
	regexp.MustCompile(`\b[A-Z][A-Za-z'&-]+\s+v\.\s+[A-Z][A-Za-z'&-]+`),
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
	regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{2,4}\b`),
	regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`),
	regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sept?|Oct|Nov|Dec)\.?\s+\d{1,2},?\s+\d{4}`),
}

var moneyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s?\d{1,3}(?:,\d{3})*(?:\.\d{2})?(?:\s(?:thousand|million|billion))?`),
	regexp.MustCompile(`(?i)\b\d+(?:,\d{3})*(?:\.\d+)?\s+dollars\b`),
}

var sectionRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:\bSection|\bSec\.|§)\s*\d+(?:\.\d+)*(?:\([a-z0-9]+\))*`),
	regexp.MustCompile(`\b(?:Article|Art\.)\s+(?:[IVX]+|\d+)(?:\.\d+)*`),
	regexp.MustCompile(`\b(?:Paragraph|Para\.)\s+\d+(?:\.\d+)*`),
	regexp.MustCompile(`\bClause\s+\d+(?:\.\d+)*`),
}

var partyPattern = regexp.MustCompile(`\b(?:Plaintiff|Defendant|Petitioner|Respondent|Appellant|Appellee)s?,?\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)`)

var sentenceDelimiter = regexp.MustCompile(`[.!?]+`)

var legalTerms = wordSet(
	"whereas", "therefore", "hereby", "pursuant", "notwithstanding",
	"herein", "thereof", "hereunder", "foregoing",
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ContainsLegalCitation reports whether text carries a reporter, U.S.C.,
// Federal Rules or case-caption citation.
func ContainsLegalCitation(text string) bool {
	for _, p := range citationPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// ExtractLegalElements runs every legal regex family over text.
func ExtractLegalElements(text string) LegalElements {
	elements := LegalElements{
		Citations:         []string{},
		Dates:             []string{},
		MonetaryAmounts:   []string{},
		SectionReferences: []string{},
		PartyNames:        []string{},
	}
	elements.Citations = findAll(elements.Citations, citationPatterns, text)
	elements.Dates = findAll(elements.Dates, datePatterns, text)
	elements.MonetaryAmounts = findAll(elements.MonetaryAmounts, moneyPatterns, text)
	elements.SectionReferences = findAll(elements.SectionReferences, sectionRefPatterns, text)
	for _, m := range partyPattern.FindAllStringSubmatch(text, -1) {
		elements.PartyNames = appendUnique(elements.PartyNames, m[1])
	}
	return elements
}

func findAll(dst []string, patterns []*regexp.Regexp, text string) []string {
	for _, p := range patterns {
		dst = appendUnique(dst, p.FindAllString(text, -1)...)
	}
	return dst
}

// countSentences counts runs of sentence-ending punctuation.
func countSentences(text string) int {
	return len(sentenceDelimiter.FindAllStringIndex(text, -1))
}

// DensityScore estimates in [0,1] how legally dense text is:
//
//	0.3*citations/100w + 0.1*dates/100w + 0.3*(1 if avg sentence > 15 words else 0.5) + 0.3*legal term ratio
func DensityScore(text string, elements LegalElements) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	wordCount := float64(len(words))

	citationsPer100 := float64(len(elements.Citations)) / wordCount * 100
	datesPer100 := float64(len(elements.Dates)) / wordCount * 100

	avgSentence := wordCount / float64(max(1, countSentences(text)))
	sentenceFactor := 0.5
	if avgSentence > 15 {
		sentenceFactor = 1.0
	}

	terms := 0
	for _, w := range words {
		w = strings.ToLower(strings.Trim(w, `.,;:!?"'()[]`))
		if _, ok := legalTerms[w]; ok {
			terms++
		}
	}
	termDensity := float64(terms) / wordCount

	score := 0.3*citationsPer100 + 0.1*datesPer100 + 0.3*sentenceFactor + 0.3*termDensity
	return min(1, max(0, score))
}
