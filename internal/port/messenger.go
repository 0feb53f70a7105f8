package port

import (
	"context"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// Messenger delivers outbound chat messages. Delivery is fire-and-forget
// from the core's perspective: errors are logged by the caller, never
// surfaced to the buyer flow.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error

	// SendMedia sends an image or document with a caption.
	SendMedia(ctx context.Context, to, mediaURL, caption string) error

	// SendChoice sends text with up to three tappable options.
	SendChoice(ctx context.Context, to, text string, options []domain.ChoiceOption) error
}
