package models

// LiveMetrics is the AI sentiment panel of the selected conversation.
// It only ever comes from push events and is never persisted.
type LiveMetrics struct {
	Sentiment float64  `json:"sentiment"`
	Emotion   string   `json:"emotion"`
	KeyPoints []string `json:"keyPoints"`
	Log       []string `json:"log"`
}

// MetricsUpdate is one ai_metrics_update payload. Absent fields leave the current value alone.
type MetricsUpdate struct {
	ConversationID string   `json:"conversationId"`
	Sentiment      *float64 `json:"sentiment,omitempty"`
	Emotion        string   `json:"emotion,omitempty"`
	KeyPoints      []string `json:"keyPoints,omitempty"`
	Log            []string `json:"log,omitempty"`
}
