package domain

// InboundMessage is one flattened inbound chat event. Exactly one of
// Text, MediaID or ActionID carries the payload; button taps arrive as
// ActionID with the button title in Text.
type InboundMessage struct {
	From        string
	DisplayName string
	Text        string
	MediaID     string
	ActionID    string
}

// ChoiceOption is one button offered to a buyer (at most three per message).
type ChoiceOption struct {
	ID    string
	Title string
}
