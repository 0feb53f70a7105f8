// Package messenger holds outbound-message transports. LogMessenger is
// the development transport: it records every send instead of calling a
// provider, so the whole flow runs without real messaging credentials.
package messenger

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

type LogMessenger struct {
	log zerolog.Logger
}

func NewLogMessenger(log zerolog.Logger) *LogMessenger {
	return &LogMessenger{log: log.With().Str("component", "messenger").Logger()}
}

func (m *LogMessenger) SendText(_ context.Context, to, text string) error {
	m.log.Info().Str("to", to).Str("text", text).Msg("send text")
	return nil
}

func (m *LogMessenger) SendMedia(_ context.Context, to, mediaURL, caption string) error {
	m.log.Info().Str("to", to).Str("media", mediaURL).Str("caption", caption).Msg("send media")
	return nil
}

func (m *LogMessenger) SendChoice(_ context.Context, to, text string, options []domain.ChoiceOption) error {
	ev := m.log.Info().Str("to", to).Str("text", text)
	for _, opt := range options {
		ev = ev.Str("option:"+opt.ID, opt.Title)
	}
	ev.Msg("send choice")
	return nil
}
