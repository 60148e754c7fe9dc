// Package interpreter assembles the human-readable reading for a cast:
// static reference texts, deterministic baseline templates, and an optional
// model-generated layer that overrides the baseline field by field when it
// parses cleanly. A failed or unparsable model response never surfaces as an
// error; the baseline always stands behind it.
package interpreter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"liuyao/internal/llm"
	"liuyao/internal/models"
	"liuyao/internal/reference"
)

// Source reports where the overriding interpretation fields came from.
type Source string

const (
	SourceBaseline Source = "baseline"
	SourceModel    Source = "model"
	SourceCache    Source = "cache"
)

// Identical prompts within the TTL reuse the parsed response instead of
// burning provider quota.
const (
	cacheTTL     = 30 * time.Minute
	cacheCleanup = 10 * time.Minute
)

type Interpreter struct {
	refs      *reference.Store
	generator llm.Generator
	cache     *cache.Cache
}

// New builds an Interpreter. generator may be nil, in which case every
// reading is the deterministic baseline.
func New(refs *reference.Store, generator llm.Generator) *Interpreter {
	return &Interpreter{
		refs:      refs,
		generator: generator,
		cache:     cache.New(cacheTTL, cacheCleanup),
	}
}

// Interpret builds the reading for an original/changed hexagram pair. The
// returned Source tells the caller whether the model layer was applied.
func (it *Interpreter) Interpret(ctx context.Context, originalNum, changedNum int, moving [6]int, question string, useLLM bool) (*models.Interpretation, Source) {
	original := it.refs.Get(originalNum)

	hasMoving := false
	for _, m := range moving {
		if m == 1 {
			hasMoving = true
			break
		}
	}

	// With no moving line the cast does not change; the changed entry
	// mirrors the original.
	changed := original
	if hasMoving {
		changed = it.refs.Get(changedNum)
	}

	// Line glosses read bottom-up; position i keeps its slot so callers can
	// match glosses to line numbers, with empty strings for static lines.
	glosses := make([]string, 6)
	for i := 0; i < 6; i++ {
		if moving[i] != 1 {
			continue
		}
		if i < len(original.Lines) {
			glosses[i] = original.Lines[i]
		} else {
			glosses[i] = "无爻辞。"
		}
	}

	var changedForText *models.ReferenceEntry
	if hasMoving {
		changedForText = changed
	}
	baseline := fragment{
		Meaning: generateOverallMeaning(original, changedForText),
		Fortune: determineFortune(original, changedForText),
		Advice:  generateAdvice(original, changedForText),
	}

	merged := baseline
	source := SourceBaseline
	if useLLM && question != "" && it.generator != nil {
		if frag, src := it.modelFragment(ctx, question, original.Name, changedName(changedForText), glosses); frag != nil {
			merged = baseline.overlay(frag)
			source = src
		}
	}

	return &models.Interpretation{
		Original:           original,
		Changed:            changed,
		MovingLinesMeaning: glosses,
		OverallMeaning:     merged.Meaning,
		Fortune:            merged.Fortune,
		Advice:             merged.Advice,
	}, source
}

// modelFragment calls the external model (or serves a cached parse) and
// returns nil whenever the baseline should stand.
func (it *Interpreter) modelFragment(ctx context.Context, question, originalName, changedName string, glosses []string) (*fragment, Source) {
	prompt := BuildPrompt(question, originalName, changedName, glosses)
	key := cacheKey(prompt)

	if hit, ok := it.cache.Get(key); ok {
		if frag, ok := hit.(*fragment); ok {
			return frag, SourceCache
		}
	}

	text, err := it.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("⚠️  [INTERPRET] Model call failed, keeping baseline reading: %v", err)
		return nil, SourceBaseline
	}

	frag := parseResponse(text)
	if frag == nil {
		log.Printf("⚠️  [INTERPRET] Model response did not parse, keeping baseline reading")
		return nil, SourceBaseline
	}

	it.cache.Set(key, frag, cache.DefaultExpiration)
	return frag, SourceModel
}

// overlay fills a parsed fragment's empty fields from the baseline.
func (base fragment) overlay(frag *fragment) fragment {
	out := *frag
	if out.Meaning == "" {
		out.Meaning = base.Meaning
	}
	if out.Fortune == "" {
		out.Fortune = base.Fortune
	}
	if out.Advice == "" {
		out.Advice = base.Advice
	}
	return out
}

func generateOverallMeaning(original, changed *models.ReferenceEntry) string {
	if changed == nil {
		return fmt.Sprintf("%s：%s卦辞：%s", original.Name, original.Description, original.Verse)
	}
	return fmt.Sprintf("%s变%s：从%s变化为%s。这表示情况正在发生转变。",
		original.Name, changed.Name, original.Description, changed.Description)
}

// determineFortune scans the judgment texts. The auspicious marker in either
// verse outranks an inauspicious one in the original; with neither present
// the reading is neutral.
func determineFortune(original, changed *models.ReferenceEntry) string {
	switch {
	case strings.Contains(original.Verse, models.FortuneAuspicious):
		return models.FortuneAuspicious
	case changed != nil && strings.Contains(changed.Verse, models.FortuneAuspicious):
		return models.FortuneAuspicious
	case strings.Contains(original.Verse, models.FortuneInauspicious):
		return models.FortuneInauspicious
	default:
		return models.FortuneNeutral
	}
}

func generateAdvice(original, changed *models.ReferenceEntry) string {
	if changed == nil {
		return fmt.Sprintf("请参考%s卦的卦辞进行决策。", original.Name)
	}
	return fmt.Sprintf("正处于从%s到%s的变化过程中，建议关注变化的动向，顺势而为。",
		original.Name, changed.Name)
}

func changedName(changed *models.ReferenceEntry) string {
	if changed == nil {
		return ""
	}
	return changed.Name
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
