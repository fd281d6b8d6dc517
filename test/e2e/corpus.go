// Package e2e runs retrieval over a realistic profile corpus written to disk in
// every supported text format.
package e2e

import (
	"fmt"
	"strings"
)

// Section is one profile document of the corpus.
type Section struct {
	Name    string
	Content string
}

// QueryTestCase is a question and the section names of which at least one must
// be retrieved for it.
type QueryTestCase struct {
	Query            string
	ExpectedSections []string
	Description      string
}

// Corpus holds profile sections and the questions asked against them.
type Corpus struct {
	Sections     []Section
	TestCases    []QueryTestCase
	TotalDocs    int
	TotalQueries int
}

var sections = []struct {
	name    string
	phrase  string
	content string
}{
	{"summary", "aspiring machine learning engineer", "Lok is an aspiring machine learning engineer who enjoys turning research prototypes into dependable services."},
	{"education", "Anna University", "He completed his B.Tech in Artificial Intelligence and Data Science at Anna University in Chennai."},
	{"gpa", "cumulative GPA", "He graduated with a cumulative GPA of 8.9 out of 10 and a distinction in the final semester."},
	{"school", "higher secondary school", "He finished higher secondary school at Velammal Matriculation with mathematics and computer science."},
	{"internship-zoho", "payment reconciliation", "At Zoho he interned on the payments team and built payment reconciliation services in Go."},
	{"internship-research", "medical imaging research", "He spent a summer on medical imaging research segmenting retinal scans with convolutional networks."},
	{"project-rag", "retrieval augmented chatbot", "He built a retrieval augmented chatbot that answers recruiter questions about his resume."},
	{"project-traffic", "traffic sign recognition", "His traffic sign recognition model reached 97 percent accuracy on the German benchmark."},
	{"project-stocks", "stock price forecasting", "He explored stock price forecasting with LSTM networks and gradient boosted trees."},
	{"skills-languages", "Python Go and SQL", "He writes Python Go and SQL daily and is comfortable with Bash scripting."},
	{"skills-ml", "PyTorch and scikit-learn", "His machine learning toolkit is PyTorch and scikit-learn with Hugging Face transformers."},
	{"skills-cloud", "Docker and Kubernetes", "He deploys services with Docker and Kubernetes on AWS and keeps infrastructure in Terraform."},
	{"certifications", "AWS Certified Cloud Practitioner", "He holds the AWS Certified Cloud Practitioner certificate and the TensorFlow Developer certificate."},
	{"publications", "IEEE conference paper", "He co-authored an IEEE conference paper on lightweight models for edge devices."},
	{"hackathons", "Smart India Hackathon", "His team won the Smart India Hackathon with an offline crop disease detector."},
	{"leadership", "coding club president", "As coding club president he organised weekly workshops for first year students."},
	{"volunteering", "teaching underprivileged children", "He volunteers on weekends teaching underprivileged children basic programming."},
	{"hobbies", "chess tournaments", "Outside work he plays rated chess tournaments and goes long distance cycling."},
	{"languages", "Tamil English and Japanese", "He speaks Tamil English and Japanese at a conversational level."},
	{"contact", "LinkedIn and GitHub", "Recruiters can reach him through LinkedIn and GitHub or by email."},
}

// BuildCorpus returns the profile sections and one question per section built
// from its signature phrase.
func BuildCorpus() *Corpus {
	docs := make([]Section, 0, len(sections))
	cases := make([]QueryTestCase, 0, len(sections))
	for _, s := range sections {
		docs = append(docs, Section{Name: s.name, Content: s.content})
		cases = append(cases, QueryTestCase{
			Query:            "Tell me about " + s.phrase,
			ExpectedSections: []string{s.name},
			Description:      fmt.Sprintf("%s finds %s", s.phrase, s.name),
		})
	}
	return &Corpus{
		Sections:     docs,
		TestCases:    cases,
		TotalDocs:    len(docs),
		TotalQueries: len(cases),
	}
}

// Section returns the named section.
func (c *Corpus) Section(name string) (Section, bool) {
	for _, s := range c.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

func containsPhrase(s Section, query string) bool {
	phrase := strings.TrimPrefix(query, "Tell me about ")
	return strings.Contains(s.Content, phrase)
}
