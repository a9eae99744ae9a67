package domain

import (
	"regexp"
	"strings"
)

// Normalization turns a raw listing label into the canonical market hash name
// used as the join key between source listings and market price records.
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).

var (
	wsRun = regexp.MustCompile(`\s+`)

	statTrakPrefix = regexp.MustCompile(`^StatTrak™\s+`)
	souvenirPrefix = regexp.MustCompile(`^Souvenir\s+`)

	// Cosmetic tails appended by listing UIs ("+ 4x Sticker ...", "(with stickers)").
	cosmeticTails = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*\+\s*\d*\s*x\s*Sticker.*$`),
		regexp.MustCompile(`(?i)\s*\+\s*Sticker.*$`),
		regexp.MustCompile(`(?i)\s*\(\s*(with|w/)\s*stickers?.*?\)\s*$`),
		regexp.MustCompile(`(?i)\s*\(\s*(with|w/)\s*keychains?.*?\)\s*$`),
		regexp.MustCompile(`(?i)\s*\(\s*Keychain[^)]*\)\s*$`),
		regexp.MustCompile(`(?i)\s*\[\s*Stickers?.*?\]\s*$`),
	}

	gammaDopplerVariant = regexp.MustCompile(`(?i)(\|\s*)Gamma\s+Doppler\s+(?:Phase\s*[1-4]|P\s*[1-4]|I{1,3}|IV|Sapphire|Ruby|Black\s+Pearl|Emerald)\b`)
	dopplerVariant      = regexp.MustCompile(`(?i)(\|\s*)Doppler\s+(?:Phase\s*[1-4]|P\s*[1-4]|I{1,3}|IV|Sapphire|Ruby|Black\s+Pearl|Emerald)\b`)
)

// Normalize canonicalizes a raw item label. Empty input yields the empty
// string, which downstream treats as "unmatched".
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := StripCosmeticTails(raw)
	s = StripVariantSuffix(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = wsRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = statTrakPrefix.ReplaceAllString(s, "StatTrak™ ")
	s = souvenirPrefix.ReplaceAllString(s, "Souvenir ")
	return s
}

// StripCosmeticTails removes sticker/keychain suffixes a listing UI appends to
// the base name. The base name itself is left untouched.
func StripCosmeticTails(name string) string {
	for _, re := range cosmeticTails {
		name = re.ReplaceAllString(name, "")
	}
	return strings.TrimSpace(wsRun.ReplaceAllString(name, " "))
}

// StripVariantSuffix collapses Doppler phase variants to the family name, as
// price feeds key Doppler items without the phase.
func StripVariantSuffix(name string) string {
	name = gammaDopplerVariant.ReplaceAllString(name, "${1}Gamma Doppler")
	name = dopplerVariant.ReplaceAllString(name, "${1}Doppler")
	return strings.TrimSpace(wsRun.ReplaceAllString(name, " "))
}
