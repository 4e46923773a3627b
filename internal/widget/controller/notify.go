package controller

import (
	"context"
	"log/slog"
)

// Notifier surfaces user-visible messages. Every failure the controller
// handles ends up here; none propagate further.
type Notifier interface {
	Info(msg string)
	Error(msg string, err error)
}

// SlogNotifier reports notifications through a slog.Logger.
type SlogNotifier struct {
	Logger *slog.Logger
}

func (n SlogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n SlogNotifier) Info(msg string) {
	n.logger().Info(msg)
}

func (n SlogNotifier) Error(msg string, err error) {
	n.logger().Error(msg, "error", err)
}

// Prompter asks the user for a line of text. ok is false when the user cancels.
type Prompter interface {
	Prompt(ctx context.Context, message string) (text string, ok bool)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(ctx context.Context, message string) (string, bool)

func (f PromptFunc) Prompt(ctx context.Context, message string) (string, bool) {
	return f(ctx, message)
}
