package core

// Update is one inbound message event received from the bot API.
// Updates without a text message carry an empty Text.
type Update struct {
	ID     int64
	ChatID int64
	Text   string
}
