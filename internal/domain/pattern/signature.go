package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Signature is the deterministic fingerprint of a normalized message.
// Two messages that differ only in volatile tokens (numbers, emails,
// phone numbers, URLs, dates, times) produce the same signature.
type Signature struct {
	Hash       string
	Normalized string
	Keywords   []string
}

// Volatile token patterns, applied in order. Order matters: emails and
// URLs must be masked before the bare number pass eats their digits.
var (
	reURL   = regexp.MustCompile(`\bhttps?://\S+|\bwww\.\S+`)
	reEmail = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	rePhone = regexp.MustCompile(`\+?\d[\d\s().\-]{6,}\d`)
	reTime  = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\s*(?:am|pm)?\b`)
	reDate  = regexp.MustCompile(`\b\d{1,4}[/\-]\d{1,2}[/\-]\d{1,4}\b`)
	reMoney = regexp.MustCompile(`[$€£]\s*\d[\d,]*(?:\.\d+)?`)
	reNum   = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	reSpace = regexp.MustCompile(`\s+`)
	rePunct = regexp.MustCompile(`[^\p{L}\p{N}<>_\s]`)
)

var caseFolder = cases.Fold()

// stopwords excluded from keyword extraction. Kept small on purpose:
// over-filtering hurts fuzzy matching more than the occasional filler word.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "can": {}, "do": {}, "for": {}, "from": {},
	"hi": {}, "hello": {}, "hey": {}, "how": {}, "i": {}, "in": {},
	"is": {}, "it": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {},
	"please": {}, "so": {}, "thanks": {}, "thank": {}, "that": {},
	"the": {}, "this": {}, "to": {}, "was": {}, "we": {}, "what": {},
	"when": {}, "where": {}, "will": {}, "with": {}, "would": {},
	"you": {}, "your": {},
}

// Normalize produces the canonical form of a message body: NFKC
// normalization, case folding, volatile token masking, punctuation
// stripping and whitespace collapsing.
func Normalize(text string) string {
	s := norm.NFKC.String(text)
	s = caseFolder.String(s)

	s = reURL.ReplaceAllString(s, "<url>")
	s = reEmail.ReplaceAllString(s, "<email>")
	s = reTime.ReplaceAllString(s, "<time>")
	s = reDate.ReplaceAllString(s, "<date>")
	s = reMoney.ReplaceAllString(s, "<amount>")
	s = rePhone.ReplaceAllString(s, "<phone>")
	s = reNum.ReplaceAllString(s, "<num>")

	s = rePunct.ReplaceAllString(s, " ")
	s = reSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractSignature normalizes the text and hashes the result with SHA-256.
// Empty or whitespace-only input yields a signature with an empty hash;
// callers treat that as unmatchable.
func ExtractSignature(text string) Signature {
	normalized := Normalize(text)
	if normalized == "" {
		return Signature{Normalized: ""}
	}

	sum := sha256.Sum256([]byte(normalized))
	return Signature{
		Hash:       hex.EncodeToString(sum[:]),
		Normalized: normalized,
		Keywords:   extractKeywords(normalized),
	}
}

// extractKeywords returns the sorted set of non-stopword, non-mask tokens
func extractKeywords(normalized string) []string {
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		if len(tok) < 2 {
			continue
		}
		if strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">") {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
	}

	keywords := make([]string, 0, len(seen))
	for tok := range seen {
		keywords = append(keywords, tok)
	}
	sort.Strings(keywords)
	return keywords
}

// IsEmpty returns true when the signature carries no matchable content
func (s Signature) IsEmpty() bool {
	return s.Hash == ""
}
