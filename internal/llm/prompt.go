package llm

import (
	"encoding/json"
	"strings"
)

// BuildTranslateSystemPrompt is the fixed instruction for body and abstract batches.
func BuildTranslateSystemPrompt(target string) string {
	parts := []string{
		"You are a professional translator of academic machine learning papers.",
		"Translate every input item into " + target + " using formal written prose.",
		"Keep technical terms, model names, dataset names and acronyms in English.",
		"Translate everything. Do not summarize, shorten or omit any sentence.",
		"Preserve Markdown, HTML table markup and LaTeX math exactly; translate only natural-language text inside them.",
		"Keep any [FIGURE:...] markers unchanged and do not introduce new bracketed markers.",
		"The input is a JSON array of strings. Return ONLY a JSON array of strings with exactly the same number of items in the same order.",
	}
	return strings.Join(parts, "\n")
}

// BuildTitleSystemPrompt is the instruction for paper titles.
func BuildTitleSystemPrompt(target string) string {
	parts := []string{
		"You translate academic paper titles into " + target + ".",
		"Keep model names, method names and acronyms in English. Keep it concise.",
		"The input is a JSON array of strings. Return ONLY a JSON array of translated titles with the same number of items.",
	}
	return strings.Join(parts, "\n")
}

// BuildBatchUserPrompt encodes the items as the JSON array the instructions refer to.
func BuildBatchUserPrompt(items []string) string {
	b, _ := json.Marshal(items)
	return string(b)
}

// BuildClassifySystemPrompt asks for the fixed facet object.
func BuildClassifySystemPrompt(domains []string) string {
	parts := []string{
		"You classify academic papers. Return ONLY a JSON object with exactly these keys:",
		`"domain": array of one or more values from [` + strings.Join(domains, ", ") + `],`,
		`"method": array of short method or technique names,`,
		`"task": array of short task names,`,
		`"dataset": array of dataset names used or introduced,`,
		`"open_source": boolean, true only if code or weights are publicly released.`,
		"Use English for every value. Use empty arrays when unknown.",
	}
	return strings.Join(parts, "\n")
}
