package chat

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"verbose lead-in", "Based on the context, he has a B.Tech in CSE.", "He has a B.Tech in CSE"},
		{"lead-in with colon", "According to the resume: he knows Go", "He knows Go"},
		{"robotic lead-in", "I can tell you that he ships fast.", "He ships fast"},
		{"lead-in needs boundary", "From the contextual data he wins", "From the contextual data he wins"},
		{"greeting stripped", "Hi there! He built a chatbot.", "He built a chatbot"},
		{"hello stripped", "Hello, he is great...", "He is great"},
		{"His kept", "His mastery of Go is strong.", "His mastery of Go is strong"},
		{"truncated mastery", "s mastery in Python is impressive", "His mastery in Python is impressive"},
		{"truncated he", "e worked at Acme.", "He worked at Acme"},
		{"truncated that", "t is a great project", "That is a great project"},
		{"capitalize", "he loves chess", "He loves chess"},
		{"greeting only", "Hello", ""},
		{"blank", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanResponse(tt.in); got != tt.want {
				t.Errorf("CleanResponse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanResponse_SentenceTruncation(t *testing.T) {
	var sentences []string
	for i := 0; i < 30; i++ {
		sentences = append(sentences, fmt.Sprintf("This is sentence %02d", i))
	}
	got := CleanResponse(strings.Join(sentences, ". ") + ".")

	want := strings.Join(sentences[:19], ". ") + "."
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
	if utf8.RuneCountInString(got) > MaxAnswerLength {
		t.Errorf("len = %d", utf8.RuneCountInString(got))
	}
}

func TestCleanResponse_HardTruncation(t *testing.T) {
	got := CleanResponse(strings.Repeat("a", 500))
	if !strings.HasSuffix(got, "...") {
		t.Errorf("want ellipsis, got %q", got[len(got)-5:])
	}
	if n := utf8.RuneCountInString(got); n != MaxAnswerLength+3 {
		t.Errorf("len = %d, want %d", n, MaxAnswerLength+3)
	}
	if got[0] != 'A' {
		t.Errorf("first letter not capitalized: %q", got[:1])
	}
}
