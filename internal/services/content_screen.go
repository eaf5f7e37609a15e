package services

import (
	"log"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/worklane/worklane-backend/internal/database"
)

// Base canonical phrases - the ONLY source of truth.
// These are the clean, real phrases we're looking for.
var baseScamPhrases = []string{
	"wire transfer",
	"western union",
	"gift card",
	"gift cards",
	"crypto only",
	"bitcoin only",
	"advance fee",
	"upfront fee",
	"processing fee",
	"send money first",
	"pay to apply",
	"registration fee",
	"guaranteed income",
	"easy money",
	"get rich",
}

var baseOffPlatformPhrases = []string{
	"whatsapp",
	"telegram",
	"pay outside",
	"off platform",
	"offplatform",
	"contact me directly",
	"deal outside",
	"paypal directly",
	"skip the platform",
	"avoid fees",
}

// ScreenResult is the outcome of screening a piece of user content.
type ScreenResult struct {
	HasScam        bool
	HasOffPlatform bool
	Matched        []string
}

// Flagged reports whether the content tripped any category.
func (r ScreenResult) Flagged() bool {
	return r.HasScam || r.HasOffPlatform
}

var spaceRegex = regexp.MustCompile(`\s+`)

// CleanText normalizes text to canonical form. This is the ONLY function
// that transforms input for confirmation.
func CleanText(text string) string {
	cleaned := strings.ToLower(text)

	// Replace obfuscation characters with their letter equivalents.
	replacements := map[string]string{
		"@": "a",
		"4": "a",
		"3": "e",
		"!": "i",
		"1": "i",
		"0": "o",
		"$": "s",
		"5": "s",
		"7": "t",
		"+": "t",
		"а": "a", // Cyrillic 'а' looks like Latin 'a'
		"е": "e", // Cyrillic 'е' looks like Latin 'e'
		"і": "i", // Cyrillic 'і' looks like Latin 'i'
		"о": "o", // Cyrillic 'о' looks like Latin 'o'
		"р": "p", // Cyrillic 'р' looks like Latin 'p'
	}
	for old, repl := range replacements {
		cleaned = strings.ReplaceAll(cleaned, old, repl)
	}

	// Keep only letters; everything else becomes a word separator.
	var builder strings.Builder
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	cleaned = builder.String()

	// Collapse repeated characters (whaaatsaaapp -> whatsap).
	cleaned = collapseRepeats(cleaned)

	cleaned = spaceRegex.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// collapseRepeats reduces repeated letter characters to a single character.
// Preserves spaces so word boundaries survive.
func collapseRepeats(text string) string {
	if len(text) == 0 {
		return text
	}

	var result strings.Builder
	lastChar := rune(0)
	lastWasLetter := false

	for _, char := range text {
		isLetter := unicode.IsLetter(char)
		if isLetter && lastWasLetter && char == lastChar {
			continue
		}
		result.WriteRune(char)
		lastChar = char
		lastWasLetter = isLetter
	}

	return result.String()
}

// containsConfirmedPhrase checks if cleaned text contains any canonical
// phrase. Single words must match on word boundaries ("skill" must not
// confirm "kill"-style substrings); multi-word phrases use contains.
func containsConfirmedPhrase(cleanedText string, basePhrases []string) (bool, []string) {
	var confirmed []string
	words := strings.Fields(cleanedText)

	for _, phrase := range basePhrases {
		// Canonical phrases pass through the same normalization as input,
		// so "whatsapp" matches its collapsed form.
		canonical := CleanText(phrase)

		if cleanedText == canonical {
			confirmed = append(confirmed, phrase)
			continue
		}
		if !strings.Contains(cleanedText, canonical) {
			continue
		}
		if len(strings.Fields(canonical)) == 1 {
			for _, w := range words {
				if w == canonical {
					confirmed = append(confirmed, phrase)
					break
				}
			}
		} else {
			confirmed = append(confirmed, phrase)
		}
	}

	return len(confirmed) > 0, confirmed
}

// ScreenContent checks user content (job posts, messages, comments) for scam
// language and attempts to move deals off the platform.
// Uses the confirmation pattern: Clean → Compare with canonical dictionary.
func ScreenContent(text string) ScreenResult {
	cleaned := CleanText(text)

	var result ScreenResult
	if ok, matched := containsConfirmedPhrase(cleaned, baseScamPhrases); ok {
		result.HasScam = true
		result.Matched = append(result.Matched, matched...)
	}
	if ok, matched := containsConfirmedPhrase(cleaned, baseOffPlatformPhrases); ok {
		result.HasOffPlatform = true
		result.Matched = append(result.Matched, matched...)
	}
	return result
}

// FlagUserSuspicious marks the account for admin review. The flag feeds the
// admin dashboard; it never blocks the user's action by itself.
func FlagUserSuspicious(userID uuid.UUID, reason string) {
	_, err := database.PostgresDB.Exec(`
		UPDATE users SET is_suspicious = TRUE WHERE id = $1
	`, userID)
	if err != nil {
		log.Printf("failed to flag user %s as suspicious: %v", userID, err)
		return
	}
	log.Printf("⚠️ User %s flagged as suspicious: %s", userID, reason)
}
