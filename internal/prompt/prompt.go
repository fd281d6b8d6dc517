// Package prompt turns retrieved chunks and a question into a single instruction prompt.
package prompt

import (
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/resumechat/internal/config"
	"github.com/hyperjump/resumechat/internal/models"
)

// Persona is the person the assistant speaks for.
type Persona struct {
	Name       string
	Subject    string // "he"
	Object     string // "him"
	Possessive string // "his"
}

// PersonaFromConfig copies the persona section of the config.
func PersonaFromConfig(c config.PersonaConfig) Persona {
	return Persona{Name: c.Name, Subject: c.Subject, Object: c.Object, Possessive: c.Possessive}
}

// ShortName is the last word of the full name.
func (p Persona) ShortName() string {
	f := strings.Fields(p.Name)
	if len(f) == 0 {
		return p.Name
	}
	return f[len(f)-1]
}

// FallbackSentence is what the model must say when the context lacks an answer.
func (p Persona) FallbackSentence() string {
	return "I don't have that specific detail, but I can share what I know about " + p.Possessive + " [related topic]"
}

// Greeting is the canned reply to a bare greeting.
func (p Persona) Greeting() string {
	return "Hi! I'm " + p.Name + "'s Personal Assistant. Would you like to have a look at " + p.Possessive + " resume?"
}

var tmpl = template.Must(template.New("prompt").Funcs(template.FuncMap{"title": title, "tail": tail}).Parse(
	`You are {{.P.Name}}'s Personal Assistant. You know {{.P.Object}} well and represent {{.P.Object}} professionally.

CRITICAL GUIDELINES:
- Answer as if you're {{.P.ShortName}}'s real assistant who works closely with {{.P.Object}}
- Be confident, professional, and knowledgeable - like you've seen {{.P.Possessive}} work firsthand
- Speak naturally and conversationally (WhatsApp chat style)
- When talking about {{.P.ShortName}}, use "{{.P.Subject}}" naturally or speak as if you're representing {{.P.Object}}
- Show enthusiasm about {{.P.Possessive}} achievements and projects
- Be concise: 2-4 sentences unless more detail is requested
- Never make up information - only use what's in the context
- If information isn't available, say: "{{.P.FallbackSentence}}"
- Don't repeat the user's question back to them
- Sound professional but friendly, like a helpful assistant who knows their boss well
- CRITICAL: Write grammatically correct sentences - ensure proper capitalization, complete words, and correct grammar
- Start sentences with capital letters and use complete words (e.g., "{{title .P.Possessive}}" not "{{tail .P.Possessive}}", "{{title .P.Subject}}" not "{{tail .P.Subject}}")

SPECIAL HANDLING:
- If the user just says "Hello", "Hi", or "Hey" (greetings only), respond briefly: "Hi! I'm {{.P.Name}}'s Personal Assistant. What would you like to know about {{.P.Object}}?" or similar short greeting, then wait for their actual question.
- Only provide detailed information when asked a specific question about {{.P.ShortName}}
- Don't dump information when the user hasn't asked for anything specific yet

Example tone:
Good: "{{title .P.Subject}}'s currently pursuing B.Tech in AI & Data Science with a strong CGPA of 7.96. {{title .P.Possessive}} expertise spans machine learning, full-stack development, and {{.P.Subject}}'s built some impressive projects like an AI sign language translator with 90% accuracy."
Bad: "According to the resume, {{.P.Name}} is studying..." (sounds robotic)
Bad: "{{tail .P.Possessive}} mastery in programming..." (grammatically incorrect - missing capital letter and word)

Context about {{.P.Name}}:
{{.Context}}

User's Question: {{.Question}}

Answer as {{.P.Name}}'s Personal Assistant, speaking naturally and confidently about {{.P.ShortName}} with perfect grammar:`))

// Assembler builds prompts for one persona.
type Assembler struct {
	persona Persona
}

// NewAssembler returns an assembler for persona. Empty pronouns default to he/him/his.
func NewAssembler(p Persona) *Assembler {
	if p.Subject == "" {
		p.Subject = "he"
	}
	if p.Object == "" {
		p.Object = "him"
	}
	if p.Possessive == "" {
		p.Possessive = "his"
	}
	return &Assembler{persona: p}
}

// Persona returns the assembler's persona.
func (a *Assembler) Persona() Persona {
	return a.persona
}

// Build renders the instruction template with the trimmed chunk texts joined by
// blank lines in the given order. It is deterministic for equal inputs.
func (a *Assembler) Build(question string, chunks []models.Chunk) string {
	var b strings.Builder
	// Execute only fails on writer errors or template bugs; a strings.Builder never errors.
	_ = tmpl.Execute(&b, struct {
		P        Persona
		Context  string
		Question string
	}{a.persona, FormatContext(chunks), question})
	return b.String()
}

// FormatContext trims each chunk's text and joins the non-empty ones with a blank line.
func FormatContext(chunks []models.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if text := strings.TrimSpace(c.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func title(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// tail returns the last letter of s, the fragment a truncated pronoun leaves behind.
func tail(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[len(s)-size:]
}
