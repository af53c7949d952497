package prompt

import (
	"fmt"

	"github.com/safescanx/safescanx/internal/domain/scans"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior malware analyst. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Use lowercase risk values: critical, high, medium, low, clean.
- detection_percentage is taken verbatim from the prompt; never invent a different number.
- Keep the summary to at most three sentences and the advice actionable.
- You only see the detection ratio and the input identity, never the file content. Reason conservatively from those alone.

Schema (example with empty values):
{
  "input": "<string>",
  "detection_percentage": 0,
  "risk": "<critical|high|medium|low|clean>",
  "summary": "<string>",
  "advice": "<string>"
}`
}

// GetUserPrompt builds a compact user message around a stored scan record.
func GetUserPrompt(rec *scans.ScanRecord) string {
	input := rec.URL
	kind := "URL"
	if input == "" {
		input = rec.FileName
		kind = "file"
	}
	msg := fmt.Sprintf("Summarize this scan and respond with the JSON per schema. Kind: %s. Input: %s. Detection percentage: %.2f. Scanned at: %s.",
		kind, input, rec.CombinedResult, rec.ScannedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	if rec.FileURL != "" {
		msg += fmt.Sprintf(" Stored copy: %s.", rec.FileURL)
	}
	return msg
}
