package worksheet

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/eduai/lkpd/internal/model"
)

var jsonBlock = regexp.MustCompile(`\{[\s\S]*\}`)

// Parse extracts the outermost JSON object from a model reply and decodes it
// into a worksheet. Field names follow the prompt, with the Indonesian
// aliases bobot (score) and kunci (answer) also accepted.
func Parse(reply string) (model.Worksheet, error) {
	block := jsonBlock.FindString(reply)
	if block == "" {
		return model.Worksheet{}, fmt.Errorf("%w: no JSON object in reply", ErrMalformedOutput)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return model.Worksheet{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	items, _ := raw["questions"].([]any)
	if len(items) == 0 {
		items, _ = raw["soal"].([]any)
	}
	if len(items) == 0 {
		return model.Worksheet{}, fmt.Errorf("%w: no questions", ErrMalformedOutput)
	}

	w := model.Worksheet{
		Title:     str(raw["title"]),
		Questions: make([]model.Question, 0, len(items)),
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		w.Questions = append(w.Questions, question(m))
	}
	if len(w.Questions) == 0 {
		return model.Worksheet{}, fmt.Errorf("%w: no questions", ErrMalformedOutput)
	}
	assignIDs(w.Questions)
	return w, nil
}

// assignIDs keeps the first occurrence of every explicit ID and gives each
// question without one (or with a repeated one) the lowest free number at or
// after its 1-based position.
func assignIDs(qs []model.Question) {
	taken := make(map[string]bool, len(qs))
	var pending []int
	for i, q := range qs {
		if q.ID == "" || taken[q.ID] {
			pending = append(pending, i)
			continue
		}
		taken[q.ID] = true
	}
	for _, i := range pending {
		n := i + 1
		for taken[strconv.Itoa(n)] {
			n++
		}
		qs[i].ID = strconv.Itoa(n)
		taken[qs[i].ID] = true
	}
}

func question(m map[string]any) model.Question {
	q := model.Question{
		ID:      str(m["id"]),
		Type:    model.QuestionType(strings.ToUpper(str(m["type"]))),
		Prompt:  first(m, "question", "pertanyaan", "soal"),
		Options: options(m["options"]),
		Answer:  first(m, "answer", "kunci"),
		Score:   model.DefaultQuestionScore,
	}
	for _, k := range []string{"score", "bobot"} {
		// Negative weights are dropped in favour of the default.
		if v, ok := number(m[k]); ok && v >= 0 {
			q.Score = v
			break
		}
	}
	if q.Type == "" {
		if len(q.Options) > 0 {
			q.Type = model.QuestionMultipleChoice
		} else {
			q.Type = model.QuestionShortAnswer
		}
	}
	return q
}

func first(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// str renders strings and JSON numbers as text; other values yield "".
func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// options accepts {"A": "..."} or a plain list, labelled A, B, C, ...
func options(v any) map[string]string {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return nil
		}
		out := make(map[string]string, len(t))
		for k, o := range t {
			out[strings.ToUpper(strings.TrimSpace(k))] = str(o)
		}
		return out
	case []any:
		if len(t) == 0 {
			return nil
		}
		out := make(map[string]string, len(t))
		for i, o := range t {
			if i >= 26 {
				break
			}
			out[string(rune('A'+i))] = str(o)
		}
		return out
	}
	return nil
}
