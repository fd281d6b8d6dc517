// Package chat routes a user question to a canned reply or the retrieval pipeline.
package chat

import (
	"strings"
	"unicode"
)

// Intent is the coarse kind of a user message.
type Intent int

const (
	// IntentQuestion goes through retrieval and the language model.
	IntentQuestion Intent = iota
	// IntentGreeting gets the canned greeting.
	IntentGreeting
	// IntentResumeRequest gets the résumé link.
	IntentResumeRequest
)

func (i Intent) String() string {
	switch i {
	case IntentGreeting:
		return "greeting"
	case IntentResumeRequest:
		return "resume_request"
	default:
		return "question"
	}
}

var simpleGreetings = []string{"hello", "hi", "hey", "hola", "greetings", "hiya", "gm", "gn", "heyyo"}

var extendedGreetings = []string{"hello there", "hi there", "hey there", "good morning", "good afternoon", "good evening"}

// resumePatterns match anywhere in the normalized message, so short words like
// "ok" also fire inside longer words.
var resumePatterns = []string{
	"yes", "yeah", "sure", "ok", "okay", "yep", "yup", "please",
	"show resume", "view resume", "see resume", "download resume",
	"get resume", "resume", "cv", "show cv", "view cv", "see cv",
	"i want to see", "can i see", "may i see", "show me",
	"send resume", "share resume", "give resume", "provide resume",
	"i would like to see", "id like to see", "want his resume",
	"see his resume", "view his resume", "show his resume",
}

// Normalize lowercases s, drops everything except letters, digits and spaces,
// and trims it.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Classify applies the greeting rules first, then the résumé patterns.
func Classify(question string) Intent {
	q := Normalize(question)
	if isGreeting(q) {
		return IntentGreeting
	}
	for _, p := range resumePatterns {
		if strings.Contains(q, p) {
			return IntentResumeRequest
		}
	}
	return IntentQuestion
}

func isGreeting(q string) bool {
	for _, g := range simpleGreetings {
		if q == g {
			return true
		}
	}
	for _, g := range extendedGreetings {
		if q == g {
			return true
		}
	}
	for _, g := range simpleGreetings {
		if strings.HasPrefix(q, g) && len(q) <= len(g)+5 {
			return true
		}
	}
	return false
}
