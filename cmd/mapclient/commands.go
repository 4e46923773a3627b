package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/widget/controller"
)

func runLocate(cmd *cobra.Command, _ []string) error {
	s := boot(cmd, nil)
	defer s.close()

	snap, err := s.ctrl.Model().Snapshot()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "area %s radius %dm\n", snap.Center, snap.RadiusMeters)
	return s.printGeoJSON(cmd)
}

func runAddPOI(cmd *cobra.Command, _ []string) error {
	prompter := controller.PromptFunc(func(context.Context, string) (string, bool) {
		return description, description != ""
	})
	s := boot(cmd, prompter)
	defer s.close()
	s.notes.reset()

	at := domain.Coordinate{Lat: atLat, Lng: atLng}
	if err := at.Validate(); err != nil {
		return err
	}
	if err := s.do(cmd.Context(), func() { s.surface.ClickMap(at) }); err != nil {
		return err
	}
	return s.notes.err()
}

func runSearch(cmd *cobra.Command, args []string) error {
	s := boot(cmd, nil)
	defer s.close()
	s.notes.reset()

	s.ctrl.Search(args[0])
	s.loop.Wait()
	for _, r := range s.results {
		fmt.Fprintln(cmd.OutOrStdout(), r)
	}
	return s.notes.err()
}

func runSend(cmd *cobra.Command, _ []string) error {
	s := boot(cmd, nil)
	defer s.close()
	if !s.ctrl.Model().Active() {
		return fmt.Errorf("%s: %w", controller.MsgNoLocation, domain.ErrNoActiveArea)
	}
	s.notes.reset()

	if radius > 0 {
		circle, _ := s.ctrl.Binding().Circle()
		edit, _ := s.ctrl.Binding().EditControl()
		err := s.do(cmd.Context(), func() {
			if err := s.surface.ClickControl(edit); err != nil {
				s.notes.Error("edit", err)
				return
			}
			if err := s.surface.Resize(circle, radius); err != nil {
				s.notes.Error("resize", err)
				return
			}
			_ = s.surface.ClickControl(edit)
		})
		if err != nil {
			return err
		}
	}

	id, ok := s.ctrl.Popup().Popup()
	if !ok {
		return domain.ErrNoActiveArea
	}
	if err := s.do(cmd.Context(), func() {
		if err := s.surface.ClickPopupAction(id); err != nil {
			s.ctrl.SendArea()
		}
	}); err != nil {
		return err
	}
	return s.notes.err()
}

func runPOIs(cmd *cobra.Command, _ []string) error {
	s := boot(cmd, nil)
	defer s.close()
	return s.printGeoJSON(cmd)
}
