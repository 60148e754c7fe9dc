package divination

import (
	"testing"
	"time"

	"liuyao/internal/models"
)

func mustCompute(t *testing.T, c *Calculator, method, input string) *models.HexagramResult {
	t.Helper()
	result, err := c.Compute(method, input, "user-1")
	if err != nil {
		t.Fatalf("Compute(%s, %q) returned error: %v", method, input, err)
	}
	return result
}

func assertValidResult(t *testing.T, r *models.HexagramResult) {
	t.Helper()
	for i := 0; i < 6; i++ {
		if r.Original[i] != 0 && r.Original[i] != 1 {
			t.Errorf("original line %d not binary: %d", i, r.Original[i])
		}
		if r.Moving[i] != 0 && r.Moving[i] != 1 {
			t.Errorf("moving line %d not binary: %d", i, r.Moving[i])
		}
		if r.Changed[i] != r.Original[i]^r.Moving[i] {
			t.Errorf("changed[%d] = %d, want original XOR moving = %d", i, r.Changed[i], r.Original[i]^r.Moving[i])
		}
	}
	if r.OriginalNumber < 1 || r.OriginalNumber > 64 {
		t.Errorf("original number out of range: %d", r.OriginalNumber)
	}
	if r.ChangedNumber < 1 || r.ChangedNumber > 64 {
		t.Errorf("changed number out of range: %d", r.ChangedNumber)
	}
	if !r.HasMoving() && r.ChangedNumber != r.OriginalNumber {
		t.Errorf("no moving lines but changed number %d != original %d", r.ChangedNumber, r.OriginalNumber)
	}
}

// TestRandomMethod runs many castings and checks the structural invariants
// hold for every one of them.
func TestRandomMethod(t *testing.T) {
	c := NewCalculator()
	for i := 0; i < 200; i++ {
		assertValidResult(t, mustCompute(t, c, MethodRandom, ""))
	}
}

// TestTextMethodDeterministic verifies identical input always produces the
// identical casting and that different inputs diverge.
func TestTextMethodDeterministic(t *testing.T) {
	c := NewCalculator()

	first := mustCompute(t, c, MethodText, "我的事业会顺利吗")
	for i := 0; i < 5; i++ {
		again := mustCompute(t, c, MethodText, "我的事业会顺利吗")
		if *again != *first {
			t.Fatalf("text casting not deterministic: %+v vs %+v", again, first)
		}
	}

	other := mustCompute(t, c, MethodText, "another question entirely")
	if other.Original == first.Original && other.Moving == first.Moving {
		t.Errorf("distinct inputs produced identical castings")
	}
	assertValidResult(t, first)
}

// TestNumberMethod123456 pins the canonical scenario: digits read right to
// left give parities 6,5,4,3,2,1 and the digit 6 at position 0 must be the
// only moving line.
func TestNumberMethod123456(t *testing.T) {
	c := NewCalculator()
	result := mustCompute(t, c, MethodNumber, "123456")

	wantOriginal := [6]int{0, 1, 0, 1, 0, 1} // 6,5,4,3,2,1 → even,odd,even,odd,even,odd
	if result.Original != wantOriginal {
		t.Errorf("original = %v, want %v", result.Original, wantOriginal)
	}
	wantMoving := [6]int{1, 0, 0, 0, 0, 0}
	if result.Moving != wantMoving {
		t.Errorf("moving = %v, want %v", result.Moving, wantMoving)
	}
	assertValidResult(t, result)
}

// TestNumberMethodNines checks the 9 digit also marks moving lines and that
// embedded whitespace is ignored.
func TestNumberMethodNines(t *testing.T) {
	c := NewCalculator()
	result := mustCompute(t, c, MethodNumber, "9 9 9 9 9 9")

	if result.Original != [6]int{1, 1, 1, 1, 1, 1} {
		t.Errorf("original = %v, want all yang", result.Original)
	}
	if result.Moving != [6]int{1, 1, 1, 1, 1, 1} {
		t.Errorf("moving = %v, want all moving", result.Moving)
	}
	if result.OriginalNumber != 1 {
		t.Errorf("original number = %d, want 1 (乾)", result.OriginalNumber)
	}
	if result.ChangedNumber != 2 {
		t.Errorf("changed number = %d, want 2 (坤)", result.ChangedNumber)
	}
}

// TestNumberMethodShortInput fills positions beyond the digits with coin
// flips but never marks them moving.
func TestNumberMethodShortInput(t *testing.T) {
	c := NewCalculator()
	for i := 0; i < 50; i++ {
		result := mustCompute(t, c, MethodNumber, "79")
		if result.Original[0] != 1 || result.Original[1] != 1 {
			t.Errorf("digit parities wrong: %v", result.Original)
		}
		if result.Moving[0] != 1 {
			t.Errorf("digit 9 at position 0 should be moving")
		}
		for pos := 2; pos < 6; pos++ {
			if result.Moving[pos] != 0 {
				t.Errorf("filled position %d must not be moving", pos)
			}
		}
		assertValidResult(t, result)
	}
}

// TestNumberMethodNegativeInput strips the sign and casts from the digits of
// the magnitude. Positions past the digits are fair coin fills, so the spot
// right after the last digit must vary across castings instead of being
// pinned by the sign character.
func TestNumberMethodNegativeInput(t *testing.T) {
	c := NewCalculator()
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		result := mustCompute(t, c, MethodNumber, "-123")
		wantParities := [3]int{1, 0, 1} // 3, 2, 1 right to left
		for pos := 0; pos < 3; pos++ {
			if result.Original[pos] != wantParities[pos] {
				t.Fatalf("digit parities wrong: %v", result.Original)
			}
		}
		for pos := 3; pos < 6; pos++ {
			if result.Moving[pos] != 0 {
				t.Fatalf("filled position %d must not be moving", pos)
			}
		}
		seen[result.Original[3]] = true
		assertValidResult(t, result)
	}
	if !seen[0] || !seen[1] {
		t.Errorf("position 3 never varied across castings: %v", seen)
	}

	positive := mustCompute(t, c, MethodNumber, "+48")
	if positive.Original[0] != 0 || positive.Original[1] != 0 {
		t.Errorf("plus-signed input cast wrong parities: %v", positive.Original)
	}
}

// TestNumberMethodLongInput keeps inputs far beyond machine integer range on
// the number method: only the rightmost six digits matter.
func TestNumberMethodLongInput(t *testing.T) {
	c := NewCalculator()
	result := mustCompute(t, c, MethodNumber, "1234567890123456789012345")

	wantOriginal := [6]int{1, 0, 1, 0, 1, 0} // 5,4,3,2,1,0 right to left
	if result.Original != wantOriginal {
		t.Errorf("original = %v, want %v", result.Original, wantOriginal)
	}
	if result.Moving != [6]int{} {
		t.Errorf("moving = %v, want none", result.Moving)
	}
	assertValidResult(t, result)
}

// TestNumberMethodFallsBackToText ensures non-numeric input degrades to the
// deterministic text casting rather than failing.
func TestNumberMethodFallsBackToText(t *testing.T) {
	c := NewCalculator()
	viaNumber := mustCompute(t, c, MethodNumber, "not a number")
	viaText := mustCompute(t, c, MethodText, "not a number")
	if *viaNumber != *viaText {
		t.Errorf("number fallback differs from text casting: %+v vs %+v", viaNumber, viaText)
	}
}

// TestTimeMethod pins the casting for a fixed clock reading.
func TestTimeMethod(t *testing.T) {
	c := NewCalculator()
	c.now = func() time.Time {
		// 2025-06-15 12:05:07 — month 6 (moving), day 15 (moving),
		// hour 12 (moving), minute 5 (moving).
		return time.Date(2025, 6, 15, 12, 5, 7, 0, time.Local)
	}

	result := mustCompute(t, c, MethodTime, "")
	wantOriginal := [6]int{0, 1, 1, 0, 1, 1} // month 6, day 15, tens 1, hour 12, minute 5, second 7
	if result.Original != wantOriginal {
		t.Errorf("original = %v, want %v", result.Original, wantOriginal)
	}
	wantMoving := [6]int{1, 1, 1, 1, 0, 0}
	if result.Moving != wantMoving {
		t.Errorf("moving = %v, want %v", result.Moving, wantMoving)
	}
	assertValidResult(t, result)
}

// TestChangedVectorXOR exercises the pure derivation over random pairs.
func TestChangedVectorXOR(t *testing.T) {
	for o := 0; o < 64; o++ {
		for m := 0; m < 64; m += 7 {
			var original, moving [6]int
			for i := 0; i < 6; i++ {
				original[i] = (o >> i) & 1
				moving[i] = (m >> i) & 1
			}
			changed := ChangedVector(original, moving)
			for i := 0; i < 6; i++ {
				if changed[i] != original[i]^moving[i] {
					t.Fatalf("changed[%d] wrong for o=%06b m=%06b", i, o, m)
				}
			}
			if m == 0 && changed != original {
				t.Fatalf("all-static mask must leave vector unchanged")
			}
		}
	}
}

// TestUnknownMethodUsesText mirrors the dispatch rule: unrecognized methods
// cast by text.
func TestUnknownMethodUsesText(t *testing.T) {
	c := NewCalculator()
	viaUnknown := mustCompute(t, c, "tarot", "same input")
	viaText := mustCompute(t, c, MethodText, "same input")
	if *viaUnknown != *viaText {
		t.Errorf("unknown method should fall back to text casting")
	}
}
