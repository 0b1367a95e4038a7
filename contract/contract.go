package contract

// Routes served by the backend.
const (
	PathFormat     = "/api/v1/format"
	PathTranscribe = "/api/v1/transcribe"
)

// HeaderAPIKey carries the caller credential.
const HeaderAPIKey = "X-API-Key"

// Multipart field names of a transcribe request.
const (
	FieldAudio            = "audio"
	FieldRequestID        = "requestId"
	FieldEnableFormatting = "enableFormatting"
	FieldPromptTemplate   = "promptTemplate"
	FieldModeTitle        = "modeTitle"
	FieldLanguage         = "language"
)

// FormatRequest is the body of a format call.
type FormatRequest struct {
	Transcript     string `json:"transcript" validate:"notblank"`
	RequestID      string `json:"requestId,omitempty" validate:"omitempty,max=128"`
	PromptTemplate string `json:"promptTemplate,omitempty"`
	ModeTitle      string `json:"modeTitle,omitempty"`
}

// Usage is token accounting from the formatting model.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Envelope is the success body of both operations. It is cached as is under
// the request id, so a replay is byte-identical to the first reply.
type Envelope struct {
	FormattedText    string `json:"formattedText"`
	RequestID        string `json:"requestId,omitempty"`
	ModeTitle        string `json:"modeTitle,omitempty"`
	RawTranscription string `json:"rawTranscription,omitempty"`
	Usage            *Usage `json:"usage,omitempty"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
}
