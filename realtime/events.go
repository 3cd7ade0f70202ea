package realtime

// Events pushed by the server.
const (
	EventNewMessage     = "new_message"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
	EventMessagesRead   = "messages_read"
	EventMetricsUpdate  = "ai_metrics_update"
	EventError          = "error"
)

// Events emitted by the client.
const (
	EmitJoinConversation  = "join_conversation"
	EmitLeaveConversation = "leave_conversation"
	EmitMarkRead          = "mark_read"
	EmitTyping            = "typing"
	EmitStopTyping        = "stop_typing"
)

// RoomPayload is the body of every room-scoped emit.
type RoomPayload struct {
	ConversationID string `json:"conversationId"`
}
