package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/widget/controller"
	"github.com/samirrijal/locallens/internal/widget/eventloop"
	"github.com/samirrijal/locallens/internal/widget/gateway"
	"github.com/samirrijal/locallens/internal/widget/geolocation"
	"github.com/samirrijal/locallens/internal/widget/mapview"
)

// stderrNotifier prints notifications and remembers failures for the exit code.
type stderrNotifier struct {
	mu     sync.Mutex
	failed []error
}

func (n *stderrNotifier) Info(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

func (n *stderrNotifier) Error(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s (%v)\n", msg, err)
	n.mu.Lock()
	n.failed = append(n.failed, fmt.Errorf("%s: %w", msg, err))
	n.mu.Unlock()
}

func (n *stderrNotifier) err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return errors.Join(n.failed...)
}

func (n *stderrNotifier) reset() {
	n.mu.Lock()
	n.failed = nil
	n.mu.Unlock()
}

type session struct {
	loop    *eventloop.Loop
	surface *mapview.MemorySurface
	ctrl    *controller.Controller
	notes   *stderrNotifier
	results []string
	cancel  context.CancelFunc
}

func source(cmd *cobra.Command) geolocation.Source {
	flags := cmd.Flags()
	switch {
	case flags.Changed("lat") || flags.Changed("lng"):
		return geolocation.Fixed{Position: domain.Coordinate{Lat: lat, Lng: lng}}
	case ipLocate:
		return geolocation.NewIPLocator(ipURL, time.Duration(timeout)*time.Second)
	default:
		return geolocation.Unsupported{}
	}
}

// boot starts the widget and waits for the bootstrap to settle.
func boot(cmd *cobra.Command, prompter controller.Prompter) *session {
	setupLogging()

	ctx, cancel := context.WithCancel(cmd.Context())
	s := &session{
		loop:    eventloop.New(),
		surface: mapview.NewMemorySurface(),
		notes:   &stderrNotifier{},
		cancel:  cancel,
	}
	go func() { _ = s.loop.Run(ctx) }()

	s.ctrl = controller.New(controller.Config{
		Loop:        s.loop,
		Geolocation: source(cmd),
		Gateway:     gateway.New(serverURL, gateway.WithTimeout(time.Duration(timeout)*time.Second)),
		Surface:     s.surface,
		Notifier:    s.notes,
		Prompter:    prompter,
		Results:     func(m string) { s.results = append(s.results, m) },
	})
	s.ctrl.Start(ctx)
	s.loop.Wait()
	return s
}

func (s *session) close() {
	s.cancel()
}

// do runs fn on the loop and waits for the work it triggers.
func (s *session) do(ctx context.Context, fn func()) error {
	if err := s.loop.Call(ctx, fn); err != nil {
		return err
	}
	s.loop.Wait()
	return nil
}

func (s *session) printGeoJSON(cmd *cobra.Command) error {
	raw, err := s.surface.MarshalGeoJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return nil
}
