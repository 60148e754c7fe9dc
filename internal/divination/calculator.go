package divination

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"liuyao/internal/models"
)

// Casting methods accepted by the calculator.
const (
	MethodRandom = "random"
	MethodText   = "text"
	MethodNumber = "number"
	MethodTime   = "time"
)

// Calculator turns user input into a hexagram. It is stateless and safe for
// concurrent use; only the time method reads the wall clock.
type Calculator struct {
	now func() time.Time
}

// NewCalculator creates a calculator using the local wall clock.
func NewCalculator() *Calculator {
	return &Calculator{now: time.Now}
}

// Compute casts a hexagram with the given method and derives the changed
// hexagram and both King Wen numbers. Unknown methods fall back to text
// casting; an empty input always falls back to the random method. The result
// is either a fully populated HexagramResult or a typed error, never an
// empty value.
func (c *Calculator) Compute(method, inputText, userID string) (*models.HexagramResult, error) {
	var original, moving [6]int

	switch {
	case method == MethodRandom || strings.TrimSpace(inputText) == "" && method != MethodTime:
		original, moving = c.randomHexagram()
	case method == MethodNumber:
		original, moving = c.numberHexagram(inputText)
	case method == MethodTime:
		original, moving = c.timeHexagram()
	default:
		original, moving = c.textHexagram(inputText)
	}

	if err := validateLines(original[:]); err != nil {
		return nil, err
	}
	if err := validateLines(moving[:]); err != nil {
		return nil, err
	}

	changed := ChangedVector(original, moving)

	result := &models.HexagramResult{
		Original:       original,
		Changed:        changed,
		Moving:         moving,
		OriginalNumber: Number(original),
	}
	if result.HasMoving() {
		result.ChangedNumber = Number(changed)
	} else {
		result.ChangedNumber = result.OriginalNumber
	}

	if result.OriginalNumber < 1 || result.ChangedNumber < 1 {
		return nil, &models.ComputationError{
			Op:  "hexagram lookup",
			Err: fmt.Errorf("no King Wen number for vector %v", original),
		}
	}

	return result, nil
}

// ChangedVector flips every line marked as moving. Pure and total.
func ChangedVector(original, moving [6]int) [6]int {
	changed := original
	for i := range changed {
		changed[i] = original[i] ^ moving[i]
	}
	return changed
}

// randomHexagram simulates the traditional three-coin throw per line:
// three heads is old yang (1, moving), two heads young yang (1), one head
// young yin (0), no heads old yin (0, moving).
func (c *Calculator) randomHexagram() (original, moving [6]int) {
	for i := 0; i < 6; i++ {
		sum := rand.Intn(2) + rand.Intn(2) + rand.Intn(2)
		switch sum {
		case 3:
			original[i], moving[i] = 1, 1
		case 2:
			original[i], moving[i] = 1, 0
		case 1:
			original[i], moving[i] = 0, 0
		default:
			original[i], moving[i] = 0, 1
		}
	}
	return original, moving
}

// textHexagram derives a deterministic hexagram from the SHA-256 digest of
// the input. The first six hex digits give the lines (lowest bit of each
// digit), the last six give the moving marks (digit value below 5, roughly a
// 5/16 chance per line).
func (c *Calculator) textHexagram(text string) (original, moving [6]int) {
	sum := sha256.Sum256([]byte(text))
	digest := hex.EncodeToString(sum[:])

	for i := 0; i < 6; i++ {
		head := hexDigitValue(digest[i])
		original[i] = head & 1

		tail := hexDigitValue(digest[len(digest)-1-i])
		if tail < 5 {
			moving[i] = 1
		}
	}
	return original, moving
}

// numberHexagram reads the decimal digits of the integer magnitude right to
// left: odd digits are yang, even digits yin, and the digits 6 and 9 mark
// moving lines. Missing positions are filled by a fair coin with no moving
// mark. Non-numeric input falls back to text casting. The digits are walked
// directly rather than round-tripped through an int so a sign never reaches
// the parity arithmetic and arbitrarily long inputs stay on this method.
func (c *Calculator) numberHexagram(input string) (original, moving [6]int) {
	digits, ok := magnitudeDigits(input)
	if !ok {
		return c.textHexagram(input)
	}

	for i := 0; i < 6; i++ {
		if i < len(digits) {
			d := int(digits[len(digits)-1-i] - '0')
			original[i] = d % 2
			if d == 6 || d == 9 {
				moving[i] = 1
			}
		} else {
			original[i] = rand.Intn(2)
		}
	}
	return original, moving
}

// magnitudeDigits extracts the decimal digits of an integer's magnitude: an
// optional leading sign followed by ASCII digits, spaces ignored, leading
// zeros dropped. Anything else is not a number.
func magnitudeDigits(input string) (string, bool) {
	s := strings.ReplaceAll(input, " ", "")
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", false
		}
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	return s, true
}

// timeHexagram derives the lines from parity of the current local calendar
// and clock fields, with moving marks from fixed month/day/hour/minute
// membership sets. The sets are calibration choices kept for compatibility.
func (c *Calculator) timeHexagram() (original, moving [6]int) {
	now := c.now()
	month := int(now.Month())
	day := now.Day()
	hour := now.Hour()
	minute := now.Minute()
	second := now.Second()

	original = [6]int{
		month % 2,
		day % 2,
		(day / 10) % 2,
		hour % 2,
		minute % 2,
		second % 2,
	}

	if month == 1 || month == 6 || month == 8 {
		moving[0] = 1
	}
	switch day {
	case 1, 6, 9, 15, 18, 24, 27, 30:
		moving[1] = 1
	}
	if hour%6 == 0 {
		moving[2] = 1
	}
	if minute < 10 {
		moving[3] = 1
	}
	return original, moving
}

func validateLines(lines []int) error {
	if len(lines) != 6 {
		return &models.ValidationError{Field: "lines", Message: fmt.Sprintf("expected 6 lines, got %d", len(lines))}
	}
	for i, v := range lines {
		if v != 0 && v != 1 {
			return &models.ValidationError{Field: "lines", Message: fmt.Sprintf("line %d has non-binary value %d", i, v)}
		}
	}
	return nil
}

func hexDigitValue(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	default:
		return int(b-'a') + 10
	}
}
