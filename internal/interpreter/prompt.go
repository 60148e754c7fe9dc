package interpreter

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the model prompt from the question, hexagram names
// and the non-empty moving-line glosses. The numbered asks at the end shape
// the answer into the three sections the parser expects.
func BuildPrompt(question, originalName, changedName string, movingGlosses []string) string {
	parts := []string{
		fmt.Sprintf("请基于以下易经卦象信息，对问题「%s」进行解读:", question),
		fmt.Sprintf("原卦: %s", originalName),
	}

	if changedName != "" {
		parts = append(parts, fmt.Sprintf("变卦: %s", changedName))
	}

	var moving []string
	for _, gloss := range movingGlosses {
		if gloss != "" {
			moving = append(moving, gloss)
		}
	}
	if len(moving) > 0 {
		parts = append(parts, "动爻:")
		for _, gloss := range moving {
			parts = append(parts, "- "+gloss)
		}
	}

	parts = append(parts,
		"\n请提供:",
		"1. 整体意义解读（200字以内）",
		"2. 吉凶判断（用一个词：吉/凶/平）",
		"3. 针对问题的具体建议（100字以内）",
	)

	return strings.Join(parts, "\n")
}
