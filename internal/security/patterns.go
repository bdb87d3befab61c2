package security

import "regexp"

// maxLinks is the number of links a submission may carry before it is treated as spam.
const maxLinks = 5

var (
	maliciousPatterns = []*regexp.Regexp{
		// markup that executes or embeds
		regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|object|embed|applet)\b`),
		regexp.MustCompile(`(?i)\b(javascript|vbscript)\s*:`),
		regexp.MustCompile(`(?i)data\s*:\s*text/html`),
		regexp.MustCompile(`(?i)<[^>]*\son[a-z]+\s*=`),
		regexp.MustCompile(`(?i)\beval\s*\(`),
		regexp.MustCompile(`(?i)document\s*\.\s*cookie`),

		// SQL injection fragments
		regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`),
		regexp.MustCompile(`(?i)\b(drop|truncate)\s+table\b`),
		regexp.MustCompile(`(?i)'\s*or\s+'?1'?\s*=\s*'?1`),
		regexp.MustCompile(`;\s*--`),

		// template and server-side include injection
		regexp.MustCompile(`\{\{`),
		regexp.MustCompile(`<!--\s*#`),
	}

	linkPattern = regexp.MustCompile(`(?i)\bhttps?://`)
)

// PatternDetector flags text containing injection payloads or link spam.
//
// It runs on sanitized fields. Raw tags are already stripped by the Sanitizer,
// so the markup rules only see tags that arrived entity-encoded (for example
// "&lt;script&gt;") and were decoded by Clean. Scheme, SQL and template rules
// apply to plain text as well.
type PatternDetector struct{}

// NewPatternDetector creates a pattern detector.
func NewPatternDetector() *PatternDetector {
	return &PatternDetector{}
}

// CheckForMaliciousPatterns reports whether text matches any known pattern.
func (d *PatternDetector) CheckForMaliciousPatterns(text string) bool {
	for _, p := range maliciousPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return len(linkPattern.FindAllStringIndex(text, maxLinks+1)) > maxLinks
}
