package gemini

// FinishReasonStop is the completion reason of a normally finished candidate.
const FinishReasonStop = "STOP"

// FirstText returns the first text fragment of the first candidate.
// ok is false when any link in that chain is missing or the text is empty.
func (r *GenerateContentResponse) FirstText() (string, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return "", false
	}
	content := r.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", false
	}
	text := content.Parts[0].Text
	if text == "" {
		return "", false
	}
	return text, true
}

// BlockReason reports why the prompt was filtered, if it was.
func (r *GenerateContentResponse) BlockReason() string {
	if r == nil || r.PromptFeedback == nil {
		return ""
	}
	return r.PromptFeedback.BlockReason
}

// FinishReason returns the first candidate's completion reason when it is not STOP.
func (r *GenerateContentResponse) FinishReason() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	if reason := r.Candidates[0].FinishReason; reason != FinishReasonStop {
		return reason
	}
	return ""
}
