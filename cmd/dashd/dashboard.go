// File: cmd/dashd/dashboard.go
// License: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patternforge/live-ws/server"
)

// toolkitEvent is the payload shape the dashboard page understands. In the
// full toolkit these originate from the pattern store and the healing
// pipeline; dashd synthesizes them so the socket path can be exercised
// standalone.
type toolkitEvent struct {
	Kind   string    `json:"kind"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

var demoPatterns = []string{
	"retry-with-backoff",
	"circuit-breaker",
	"sanitize-html-input",
	"bounded-worker-pool",
}

// publishDemoEvents broadcasts a toolkit event every two seconds until ctx
// is cancelled.
func publishDemoEvents(ctx context.Context, eng *server.Engine) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var ev toolkitEvent
		if i%3 == 2 {
			ev = toolkitEvent{
				Kind:   "healing.progress",
				Detail: fmt.Sprintf("%d%%", (i*17)%100),
				At:     time.Now().UTC(),
			}
		} else {
			ev = toolkitEvent{
				Kind:   "pattern.registered",
				Detail: demoPatterns[i%len(demoPatterns)],
				At:     time.Now().UTC(),
			}
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		eng.Broadcast(string(payload))
		i++
	}
}

func serveDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Pattern Toolkit - Live</title>
<style>
body { font-family: monospace; background: #111; color: #ddd; margin: 2em; }
h1 { font-size: 1.2em; }
#status { color: #8c8; }
#events li { margin: 2px 0; }
.kind { color: #6af; }
</style>
</head>
<body>
<h1>Pattern Toolkit: live events</h1>
<div id="status">connecting…</div>
<ul id="events"></ul>
<script>
const status = document.getElementById("status");
const list = document.getElementById("events");
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onopen = () => { status.textContent = "connected"; };
ws.onclose = () => { status.textContent = "disconnected"; };
ws.onmessage = (msg) => {
  const ev = JSON.parse(msg.data);
  const li = document.createElement("li");
  li.innerHTML = '<span class="kind">' + ev.kind + '</span> ' + ev.detail + ' @ ' + ev.at;
  list.prepend(li);
  while (list.childElementCount > 50) list.removeChild(list.lastChild);
};
</script>
</body>
</html>
`
