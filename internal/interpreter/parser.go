package interpreter

import (
	"encoding/json"
	"strings"

	"liuyao/internal/models"
)

// fragment is a parsed model response before merging with the baseline.
// Empty fields inherit the baseline's value during merge.
type fragment struct {
	Meaning string
	Fortune string
	Advice  string
}

// strategy attempts to extract a fragment from raw model output. Returning
// nil means "no match", handing the content to the next strategy.
type strategy func(content string) *fragment

// strategies are tried in order. The first match wins; if none match the
// caller keeps its deterministic baseline.
var strategies = []strategy{
	parseJSON,
	parseSections,
	parseWholeText,
}

func parseResponse(content string) *fragment {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	for _, try := range strategies {
		if frag := try(content); frag != nil {
			return frag
		}
	}
	return nil
}

// parseJSON handles the well-behaved case: a JSON object with the three
// expected keys, possibly wrapped in a markdown code fence.
func parseJSON(content string) *fragment {
	stripped := stripCodeFence(content)

	var payload struct {
		OverallMeaning string `json:"overall_meaning"`
		Fortune        string `json:"fortune"`
		Advice         string `json:"advice"`
	}
	if err := json.Unmarshal([]byte(stripped), &payload); err != nil {
		return nil
	}
	if payload.OverallMeaning == "" {
		return nil
	}

	return &fragment{
		Meaning: strings.TrimSpace(payload.OverallMeaning),
		Fortune: normalizeFortune(payload.Fortune),
		Advice:  strings.TrimSpace(payload.Advice),
	}
}

// parseSections is the line-oriented fallback for prose answers. It scans
// for section headers (numbered or keyword-matched), accumulates the lines
// under each, and reads the fortune marker out of the fortune section.
func parseSections(content string) *fragment {
	var meaning, fortuneText, advice string
	section := ""
	var buffered []string

	flush := func() {
		if section == "" || len(buffered) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(buffered, "\n"))
		switch section {
		case "meaning":
			meaning = text
		case "fortune":
			fortuneText = text
		case "advice":
			advice = text
		}
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if next := classifyHeader(line); next != "" {
			flush()
			section = next
			buffered = nil
			// Headers often carry the content inline after a colon.
			if rest := afterColon(line); rest != "" {
				buffered = append(buffered, rest)
			}
			continue
		}

		// A fourth section terminates collection; the asks only go to three.
		if strings.HasPrefix(line, "4.") || strings.HasPrefix(line, "四、") {
			flush()
			section = ""
			buffered = nil
			continue
		}

		if section != "" {
			buffered = append(buffered, line)
		}
	}
	flush()

	if meaning == "" {
		return nil
	}
	return &fragment{
		Meaning: meaning,
		Fortune: normalizeFortune(fortuneText),
		Advice:  advice,
	}
}

// parseWholeText salvages responses with no recognizable structure: if the
// text at least mentions an interpretation, its head becomes the meaning and
// the fortune marker is read from the full text.
func parseWholeText(content string) *fragment {
	if !strings.Contains(content, "整体意义") && !strings.Contains(content, "解读") {
		return nil
	}

	runes := []rune(content)
	if len(runes) > 200 {
		runes = runes[:200]
	}
	return &fragment{
		Meaning: strings.TrimSpace(string(runes)),
		Fortune: normalizeFortune(content),
	}
}

func classifyHeader(line string) string {
	switch {
	case strings.HasPrefix(line, "1.") || strings.HasPrefix(line, "一、") ||
		strings.Contains(line, "整体意义") || strings.Contains(line, "解读"):
		return "meaning"
	case strings.HasPrefix(line, "2.") || strings.HasPrefix(line, "二、") ||
		strings.Contains(line, "吉凶判断") || strings.Contains(line, "吉凶"):
		return "fortune"
	case strings.HasPrefix(line, "3.") || strings.HasPrefix(line, "三、") ||
		strings.Contains(line, "建议") || strings.Contains(line, "行动建议"):
		return "advice"
	}
	return ""
}

// afterColon returns the text after the first ASCII or fullwidth colon.
func afterColon(line string) string {
	for _, sep := range []string{":", "："} {
		if _, rest, ok := strings.Cut(line, sep); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// normalizeFortune collapses free text into one of the three markers. The
// inauspicious marker wins when both appear.
func normalizeFortune(text string) string {
	switch {
	case strings.Contains(text, models.FortuneInauspicious):
		return models.FortuneInauspicious
	case strings.Contains(text, models.FortuneAuspicious):
		return models.FortuneAuspicious
	default:
		return models.FortuneNeutral
	}
}

// stripCodeFence removes a surrounding markdown fence, including an optional
// language tag on the opening line.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
