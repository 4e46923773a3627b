package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samirrijal/locallens/internal/pkg/logging"
)

var (
	serverURL string
	lat, lng  float64
	ipLocate  bool
	ipURL     string
	logLevel  string
	timeout   int
)

var rootCmd = &cobra.Command{
	Use:   "mapclient",
	Short: "Headless LocalLens map widget",
	Long: `Runs the LocalLens map widget against a backend without a browser.
The position comes from --lat/--lng, from an IP lookup with --ip-locate,
or is treated as unavailable.`,
	SilenceUsage: true,
}

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Locate and print the area of interest as GeoJSON",
	RunE:  runLocate,
}

var addPOICmd = &cobra.Command{
	Use:   "add-poi",
	Short: "Click the map at --at-lat/--at-lng and add a point of interest",
	RunE:  runAddPOI,
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search points of interest around the current position",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Forward the area of interest for a digest",
	RunE:  runSend,
}

var poisCmd = &cobra.Command{
	Use:   "pois",
	Short: "Load points of interest and print the map as GeoJSON",
	RunE:  runPOIs,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream area digests from the backend websocket",
	RunE:  runWatch,
}

var (
	atLat, atLng float64
	description  string
	radius       float64
	areaID       string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:5000", "LocalLens backend URL")
	rootCmd.PersistentFlags().Float64Var(&lat, "lat", 0, "Current latitude")
	rootCmd.PersistentFlags().Float64Var(&lng, "lng", 0, "Current longitude")
	rootCmd.PersistentFlags().BoolVar(&ipLocate, "ip-locate", false, "Approximate the position from the public IP")
	rootCmd.PersistentFlags().StringVar(&ipURL, "ip-endpoint", "", "ip-api compatible lookup URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	rootCmd.PersistentFlags().IntVarP(&timeout, "timeout", "t", 90, "Request timeout in seconds")

	addPOICmd.Flags().Float64Var(&atLat, "at-lat", 0, "Latitude of the clicked point")
	addPOICmd.Flags().Float64Var(&atLng, "at-lng", 0, "Longitude of the clicked point")
	addPOICmd.Flags().StringVarP(&description, "description", "d", "", "POI description")
	_ = addPOICmd.MarkFlagRequired("at-lat")
	_ = addPOICmd.MarkFlagRequired("at-lng")

	sendCmd.Flags().Float64VarP(&radius, "radius", "r", 0, "Resize the circle to this many meters before sending")

	watchCmd.Flags().StringVar(&areaID, "area", "", "Only relay the digest of this area id")

	rootCmd.AddCommand(locateCmd, addPOICmd, searchCmd, sendCmd, poisCmd, watchCmd)
}

// setupLogging sends logs to stderr so stdout carries only command output.
func setupLogging() {
	slog.SetDefault(logging.New(os.Stderr, logLevel, "text"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
