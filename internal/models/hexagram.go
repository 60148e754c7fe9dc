package models

// Fortune verdict values used across interpretations and history records.
const (
	FortuneAuspicious   = "吉"
	FortuneInauspicious = "凶"
	FortuneNeutral      = "平"
)

// HexagramResult is the outcome of one casting: the original hexagram, the
// changed hexagram derived by flipping moving lines, and the two King Wen
// numbers. Line index 0 is the bottom line, index 5 the top line.
type HexagramResult struct {
	Original       [6]int `json:"original"`
	Changed        [6]int `json:"changed"`
	Moving         [6]int `json:"moving"`
	OriginalNumber int    `json:"hexagram_original"`
	ChangedNumber  int    `json:"hexagram_changed"`
}

// HasMoving reports whether any line is marked as moving.
func (r *HexagramResult) HasMoving() bool {
	for _, m := range r.Moving {
		if m == 1 {
			return true
		}
	}
	return false
}

// ReferenceEntry holds the static text for one hexagram: display name, the
// classical judgment (gua ci), a short description and the per-line glosses
// (six lines, or seven for hexagrams 1 and 2 which carry an extra verse).
type ReferenceEntry struct {
	Number      int      `json:"-"`
	Name        string   `json:"name"`
	Verse       string   `json:"gua_ci"`
	Description string   `json:"description"`
	Lines       []string `json:"lines"`
}

// Interpretation is the assembled reading for one casting.
type Interpretation struct {
	Original           *ReferenceEntry `json:"original"`
	Changed            *ReferenceEntry `json:"changed"`
	MovingLinesMeaning []string        `json:"moving_lines_meaning"`
	OverallMeaning     string          `json:"overall_meaning"`
	Fortune            string          `json:"fortune"`
	Advice             string          `json:"advice"`
}

// DivinationResult is the full per-request payload returned by the service:
// the hexagram, its rendering, the interpretation and the caller's remaining
// daily quota.
type DivinationResult struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Method         string          `json:"method"`
	Question       string          `json:"question,omitempty"`
	Hexagram       *HexagramResult `json:"hexagram"`
	Rendering      string          `json:"rendering"`
	Interpretation *Interpretation `json:"interpretation"`
	Remaining      int             `json:"remaining"`
	CreatedAt      string          `json:"created_at"`
}

// DivineRequest is the request body for POST /api/divine.
type DivineRequest struct {
	UserID   string `json:"user_id"`
	Method   string `json:"method"`
	Question string `json:"question"`
	UseLLM   bool   `json:"use_llm"`
}
