package vote

import "github.com/tbourn/go-curation-gateway/internal/domain"

// Level is the tone of a notification.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Notify(level Level, text string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, text string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(level Level, text string) { f(level, text) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(Level, string) {})

// Message is the success text for an outcome.
func Message(o domain.VoteOutcome) string {
	switch o {
	case domain.OutcomeUpdated:
		return "Vote updated successfully!"
	case domain.OutcomeRemoved:
		return "Vote removed successfully!"
	default:
		return "Vote submitted successfully!"
	}
}
