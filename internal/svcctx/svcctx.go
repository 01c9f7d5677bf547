// Package svcctx carries the process-wide services through context.
// It is separate from the commands so packages can read services without
// importing cmd.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/destinator/internal/config"
	"github.com/jackzampolin/destinator/internal/home"
	"github.com/jackzampolin/destinator/internal/render"
)

// Services holds the core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Config   *config.Manager
	Home     *home.Dir
	Logger   *slog.Logger
	Renderer *render.Renderer
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// LoggerFrom extracts the logger from context, falling back to slog.Default.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// RendererFrom extracts the page renderer from context.
func RendererFrom(ctx context.Context) *render.Renderer {
	if s := ServicesFrom(ctx); s != nil {
		return s.Renderer
	}
	return nil
}
