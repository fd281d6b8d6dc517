package chat

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxAnswerLength is the character budget for a cleaned answer.
const MaxAnswerLength = 400

var leadInPhrases = []string{
	// verbose
	"Based on the context",
	"According to the resume",
	"According to the information provided",
	"Based on the provided context",
	"From the context",
	"Based on the documentation",
	"According to his resume",
	"Based on his resume",
	"From his resume",
	"As mentioned in",
	"Per the resume",
	// robotic
	"Based on what I know",
	"From what I can see",
	"According to my knowledge",
	"I can tell you that",
	"Let me tell you",
	"I would say that",
}

// Longer greetings first so "Hi there," is removed whole.
var leadingGreetings = []string{"Hi there", "Hey there", "Hello", "Hey", "Hi"}

var truncatedStarts = []struct{ prefix, replacement string }{
	{"s mastery", "His mastery"},
	{"s ", "His "},
	{"e ", "He "},
	{"t ", "That "},
}

// CleanResponse tidies a model reply for a chat bubble: it strips stock lead-ins
// and greetings, repairs a clipped first word, capitalizes, drops trailing
// periods and keeps the text within MaxAnswerLength.
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	for _, phrase := range leadInPhrases {
		if rest, ok := cutPrefixWord(text, phrase, " \t\n,:.!?"); ok {
			text = strings.TrimSpace(rest)
			text = trimLeadingOnce(text, ",:-")
			break
		}
	}

	for _, g := range leadingGreetings {
		if !hasPrefixFold(text, g) {
			continue
		}
		if len(text) == len(g) {
			text = ""
			break
		}
		if rest, ok := cutPrefixWord(text, g, " \t\n,!:."); ok {
			text = strings.TrimSpace(rest)
			text = trimLeadingOnce(text, ",!:.")
			break
		}
	}

	if text != "" {
		text = strings.TrimSpace(text)
		lower := strings.ToLower(text)
		for _, fix := range truncatedStarts {
			if strings.HasPrefix(lower, fix.prefix) {
				text = fix.replacement + text[len(fix.prefix):]
				break
			}
		}
		text = capitalize(text)
	}

	text = strings.TrimRight(text, ". ")

	if utf8.RuneCountInString(text) > MaxAnswerLength {
		text = shorten(text)
	}
	return text
}

// cutPrefixWord removes prefix (case-insensitive) when the text ends right after
// it or the next byte is one of boundary.
func cutPrefixWord(text, prefix, boundary string) (string, bool) {
	if !hasPrefixFold(text, prefix) {
		return text, false
	}
	rest := text[len(prefix):]
	if rest == "" || strings.ContainsRune(boundary, rune(rest[0])) {
		return rest, true
	}
	return text, false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func trimLeadingOnce(s, chars string) string {
	if s != "" && strings.ContainsRune(chars, rune(s[0])) {
		return strings.TrimSpace(s[1:])
	}
	return s
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if !unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// shorten keeps whole ". "-separated sentences that fit, ending with a period,
// or hard-cuts at MaxAnswerLength runes with an ellipsis when even the first
// sentence is too long.
func shorten(text string) string {
	var kept []string
	count := 0
	for _, s := range strings.Split(text, ". ") {
		n := utf8.RuneCountInString(s)
		if count+n+2 > MaxAnswerLength {
			break
		}
		kept = append(kept, s)
		count += n + 2
	}
	if len(kept) > 0 {
		return strings.Join(kept, ". ") + "."
	}
	return string([]rune(text)[:MaxAnswerLength]) + "..."
}
