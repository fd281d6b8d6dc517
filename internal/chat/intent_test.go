package chat

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want Intent
	}{
		{"Hello!", IntentGreeting},
		{"hi", IntentGreeting},
		{"Hi there", IntentGreeting},
		{"Good morning", IntentGreeting},
		{"hey man", IntentGreeting},
		{"GM", IntentGreeting},
		{"Yes", IntentResumeRequest},
		{"sure, go ahead", IntentResumeRequest},
		{"Can I see his CV?", IntentResumeRequest},
		{"show me the resume", IntentResumeRequest},
		{"What is his degree?", IntentQuestion},
		{"Tell me about his projects", IntentQuestion},
		{"", IntentQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassify_GreetingPrefixLimit(t *testing.T) {
	// "hello" plus more than five characters is treated as a question.
	if got := Classify("hello, what is his degree"); got != IntentQuestion {
		t.Errorf("got %v, want question", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  Hey, THERE!! 42 "); got != "hey there 42" {
		t.Errorf("Normalize = %q", got)
	}
}
