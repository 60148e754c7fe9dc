package divination

import (
	"fmt"
	"strings"
)

// Rendering styles.
const (
	StyleSimple      = "simple"
	StyleTraditional = "traditional"
	StyleDetailed    = "detailed"
)

const (
	wholeLine  = "━━━"
	brokenLine = "━ ━"
	arrow      = "→"
)

// trigram holds the symbol, name and natural image of one of the eight
// trigrams, keyed by its 3-bit encoding (bottom line = bit 0).
type trigram struct {
	Symbol string
	Name   string
	Nature string
}

var trigrams = map[int]trigram{
	0b111: {"☰", "乾", "天"},
	0b011: {"☱", "兑", "泽"},
	0b101: {"☲", "离", "火"},
	0b001: {"☳", "震", "雷"},
	0b110: {"☴", "巽", "风"},
	0b010: {"☵", "坎", "水"},
	0b100: {"☶", "艮", "山"},
	0b000: {"☷", "坤", "地"},
}

// Render formats a hexagram triple in the given style. Unknown styles render
// detailed. Presentation only, no computation.
func Render(original, changed, moving [6]int, style string) string {
	switch style {
	case StyleSimple:
		return renderSimple(original, changed, moving)
	case StyleTraditional:
		return renderTraditional(original, changed, moving)
	default:
		return renderDetailed(original, changed, moving)
	}
}

// renderSimple uses the Unicode hexagram block (U+4DC0 .. U+4DFF, ordered by
// King Wen number).
func renderSimple(original, changed, moving [6]int) string {
	originalSymbol := hexagramRune(Number(original))
	if !anyMoving(moving) {
		return originalSymbol
	}
	return fmt.Sprintf("%s %s %s", originalSymbol, arrow, hexagramRune(Number(changed)))
}

func renderTraditional(original, changed, moving [6]int) string {
	name := trigramPairName(original)
	if !anyMoving(moving) {
		return name
	}
	return fmt.Sprintf("%s %s %s", name, arrow, trigramPairName(changed))
}

// renderDetailed draws the lines top to bottom, pairing the original and
// changed hexagrams and starring moving lines.
func renderDetailed(original, changed, moving [6]int) string {
	hasMoving := anyMoving(moving)

	var rows []string
	for i := 5; i >= 0; i-- {
		row := lineGlyph(original[i])
		if hasMoving {
			row += "  " + lineGlyph(changed[i])
			if moving[i] == 1 {
				row += " *"
			}
		}
		rows = append(rows, row)
	}

	if hasMoving {
		rows[0] += fmt.Sprintf("  %s（原卦）", Name(Number(original)))
		rows[len(rows)-1] += fmt.Sprintf("  %s（变卦）", Name(Number(changed)))
	} else {
		rows[0] += "  " + Name(Number(original))
	}

	return strings.Join(rows, "\n")
}

func lineGlyph(v int) string {
	if v == 1 {
		return wholeLine
	}
	return brokenLine
}

func hexagramRune(number int) string {
	if number < 1 || number > 64 {
		return "？"
	}
	return string(rune(0x4DC0 + number - 1))
}

func trigramPairName(lines [6]int) string {
	lower := trigrams[ToBinary(lines[:3])]
	upper := trigrams[ToBinary(lines[3:])]
	return lower.Name + upper.Name
}

func anyMoving(moving [6]int) bool {
	for _, m := range moving {
		if m == 1 {
			return true
		}
	}
	return false
}
