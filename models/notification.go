package models

// NotifyPayload is the asynq task payload for one push notification.
type NotifyPayload struct {
	Target string            `json:"target"` // "client" or "provider"
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}
