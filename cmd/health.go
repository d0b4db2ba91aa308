package cmd

import (
	"fmt"
	"net/http"
	"time"
)

type panelTracker interface {
	MessageID() string
}

type lastCommand interface {
	Last() time.Time
}

func healthHandler(p panelTracker, c lastCommand) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "host-bot is running.")

		panelID := p.MessageID()
		if panelID == "" {
			panelID = "none"
		}
		fmt.Fprintf(w, "panel: %s\n", panelID)

		last := "never"
		if t := c.Last(); !t.IsZero() {
			last = t.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "last command: %s\n", last)
	})
	return mux
}
