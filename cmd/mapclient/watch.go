package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/samirrijal/locallens/internal/core/domain"
)

type wsCommand struct {
	Action string `json:"action"`
	AreaID string `json:"area_id"`
}

// digestURL maps the backend URL onto its /ws endpoint.
func digestURL(server string) (string, error) {
	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	return u.String(), nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	setupLogging()
	ctx := cmd.Context()

	endpoint, err := digestURL(serverURL)
	if err != nil {
		return err
	}
	dialer := websocket.Dialer{HandshakeTimeout: time.Duration(timeout) * time.Second}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer conn.Close()
	slog.Info("watching digests", "endpoint", endpoint, "area", areaID)

	if areaID != "" {
		for _, m := range []wsCommand{{Action: "unsubscribe"}, {Action: "subscribe", AreaID: areaID}} {
			if err := conn.WriteJSON(m); err != nil {
				return err
			}
		}
	}

	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		var d domain.AreaDigest
		if err := json.Unmarshal(data, &d); err != nil || d.AreaID == "" {
			slog.Debug("ignoring ws frame", "data", string(data))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s radius %dm, %d pois\n%s\n\n",
			d.AreaID, d.Center, d.RadiusMeters, d.POICount, d.Summary)
	}
}
