package chunker

import (
	"regexp"
	"strconv"
	"strings"
)

// classifiedLine is one line of the source with its boundary decision.
type classifiedLine struct {
	index     int
	offset    int // character offset of the first character of the line
	text      string
	boundary  bool
	kind      BoundaryType
	signature bool
}

type boundaryRule struct {
	pattern *regexp.Regexp
	kind    BoundaryType
}

// boundaryRules are evaluated in order; the first match wins. A numbered
// heading must be tested before the generic sub-item rule.
var boundaryRules = []boundaryRule{
	{regexp.MustCompile(`^[IVX]+\.\s+[A-Z][A-Z\s]+$`), BoundaryRomanSection},
	{regexp.MustCompile(`^\d+\.\s+[A-Z][A-Z\s]+$`), BoundaryNumberedSection},
	{regexp.MustCompile(`^[A-Z][A-Z\s]+:$`), BoundaryCapsHeading},
	{regexp.MustCompile(`^[A-Z][A-Z\s]{9,}$`), BoundaryCapsHeading},
	{regexp.MustCompile(`^\[PAGE BREAK\]$`), BoundaryPageBreak},
	{regexp.MustCompile(`^(?:[a-z]\.|\([a-z0-9]+\)|[•*-])\s+`), BoundarySubItem},
	{regexp.MustCompile(`^(?:Section|Article|Clause)\s+\d+(?:\.\d+)*`), BoundaryContractSection},
	{regexp.MustCompile(`^(?:SECTION|ARTICLE|CLAUSE)\s+\d+(?:\.\d+)*`), BoundaryContractSectionCaps},
}

var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`_{5,}`),
	regexp.MustCompile(`(?i)\bBy:\s*_+`),
	regexp.MustCompile(`(?i)^\s*Name:`),
	regexp.MustCompile(`(?i)^\s*Title:`),
	regexp.MustCompile(`(?i)^\s*Date:`),
	regexp.MustCompile(`(?i)\bWITNESS`),
	regexp.MustCompile(`(?i)\bNOTARY`),
	regexp.MustCompile(`(?i)Respectfully submitted`),
	regexp.MustCompile(`(?i)\bSincerely`),
	regexp.MustCompile(`(?i)/s/`),
}

var (
	listItemPattern = regexp.MustCompile(`^(\d+)[.)]\s+\S`)
	subItemPattern  = regexp.MustCompile(`^(?:[a-z][.)]|\([a-z0-9]+\)|[ivx]+\.)\s+\S`)
)

// classifyLines splits text on newlines and tags every line. Boundary and
// signature detection are independent; a line can be both.
func classifyLines(text string) []classifiedLine {
	raw := strings.Split(text, "\n")
	lines := make([]classifiedLine, len(raw))
	offset := 0
	prevBlank := true
	for i, line := range raw {
		trimmed := strings.TrimSpace(line)
		kind := classifyBoundary(trimmed, prevBlank)
		lines[i] = classifiedLine{
			index:     i,
			offset:    offset,
			text:      line,
			boundary:  kind != BoundaryNone,
			kind:      kind,
			signature: isSignatureLine(line),
		}
		offset += textLen(line) + 1
		prevBlank = trimmed == ""
	}
	return lines
}

func classifyBoundary(trimmed string, prevBlank bool) BoundaryType {
	if trimmed == "" {
		if !prevBlank {
			return BoundaryParagraph
		}
		return BoundaryNone
	}
	for _, rule := range boundaryRules {
		if rule.pattern.MatchString(trimmed) {
			return rule.kind
		}
	}
	return BoundaryNone
}

func isSignatureLine(line string) bool {
	for _, p := range signaturePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// listTracker follows numbered lists line by line.
type listTracker struct {
	open bool
	last int
}

// observe reports whether line continues the open numbered sequence, either
// as the next number or as a sub-item of the current one.
func (t *listTracker) observe(line string) bool {
	trimmed := strings.TrimSpace(line)
	if m := listItemPattern.FindStringSubmatch(trimmed); m != nil {
		n, _ := strconv.Atoi(m[1])
		continues := t.open && n == t.last+1
		t.open, t.last = true, n
		return continues
	}
	if t.open && subItemPattern.MatchString(trimmed) {
		return true
	}
	t.open, t.last = false, 0
	return false
}
