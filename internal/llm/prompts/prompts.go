package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Language selects the prompt wording.
type Language string

const (
	// LangIndonesian is the default prompt language.
	LangIndonesian Language = "id"
	// LangEnglish produces English prompts and replies.
	LangEnglish Language = "en"
)

var validLanguages = map[Language]bool{
	LangIndonesian: true,
	LangEnglish:    true,
}

// IsValidLanguage checks if a prompt language is supported.
func IsValidLanguage(l string) bool {
	return validLanguages[Language(l)]
}

const maxFieldRunes = 200

var controlRegex = regexp.MustCompile(`[\x00-\x1f\x7f]+`)

var (
	loadOnce          sync.Once
	loadErr           error
	generateTemplates map[Language]*template.Template
	feedbackTemplates map[Language]*template.Template
)

// GenerateData holds template data for worksheet generation prompts.
type GenerateData struct {
	Theme        string
	Level        string
	MinQuestions int
}

// FeedbackData holds template data for feedback prompts.
type FeedbackData struct {
	StudentName string
	Theme       string
	Score       float64
}

func load() error {
	loadOnce.Do(func() {
		generateTemplates = make(map[Language]*template.Template)
		feedbackTemplates = make(map[Language]*template.Template)

		for lang := range validLanguages {
			for name, dst := range map[string]map[Language]*template.Template{
				"generate": generateTemplates,
				"feedback": feedbackTemplates,
			} {
				file := "templates/" + name + "_" + string(lang) + ".tmpl"
				tmpl, err := template.ParseFS(templateFS, file)
				if err != nil {
					loadErr = fmt.Errorf("parse prompt template %s: %w", file, err)
					return
				}
				dst[lang] = tmpl
			}
		}
	})
	return loadErr
}

// BuildGenerate renders the worksheet generation prompt.
func BuildGenerate(lang Language, data GenerateData) (string, error) {
	if data.MinQuestions <= 0 {
		data.MinQuestions = 5
	}
	data.Theme = sanitizeField(data.Theme)
	data.Level = sanitizeField(data.Level)
	return render(generateTemplates, lang, data)
}

// BuildFeedback renders the student feedback prompt.
func BuildFeedback(lang Language, data FeedbackData) (string, error) {
	data.StudentName = sanitizeField(data.StudentName)
	data.Theme = sanitizeField(data.Theme)
	return render(feedbackTemplates, lang, data)
}

func render(set map[Language]*template.Template, lang Language, data any) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := set[lang]
	if !ok {
		return "", errors.New("unsupported prompt language: " + string(lang))
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitizeField flattens user-supplied text to a single bounded line before
// it is placed in a prompt.
func sanitizeField(s string) string {
	s = controlRegex.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxFieldRunes {
		s = string([]rune(s)[:maxFieldRunes])
	}
	return s
}
