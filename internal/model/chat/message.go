package chat

// Request is the payload accepted by POST /api/chat.
type Request struct {
	Message string `json:"message"`
}

// Response is the payload returned by POST /api/chat.
type Response struct {
	Response string `json:"response"`
}

// User-facing texts returned instead of error details.
const (
	MessageRequiredText = "Message is required"
	UpstreamFailureText = "Sorry, something went wrong."
)
