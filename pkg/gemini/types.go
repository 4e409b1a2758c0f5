package gemini

// GenerateContentRequest is the body of a generateContent call.
type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part holds either a text fragment or inline binary data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inline_data,omitempty"`
}

type Blob struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// GenerateContentResponse is the subset of the generateContent response that is read.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

type Candidate struct {
	Content      *ResponseContent `json:"content,omitempty"`
	FinishReason string           `json:"finishReason,omitempty"`
}

type ResponseContent struct {
	Parts []ResponsePart `json:"parts"`
}

type ResponsePart struct {
	Text string `json:"text,omitempty"`
}

type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type errorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}
