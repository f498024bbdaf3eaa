package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"hunt-and-hide/sim/internal/config"
	"hunt-and-hide/sim/logging"
	"hunt-and-hide/sim/logging/sinks"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	configPath := flag.String("config", "", "simulation config file (JSON)")
	logJSONPath := flag.String("log-json", "", "write structured event log to this file")
	flag.Parse()

	simCfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		simCfg = loaded
	}

	logCfg := logging.DefaultConfig()
	named := []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, logCfg.Console)},
	}
	if *logJSONPath != "" {
		file, err := os.OpenFile(*logJSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("open %s: %v", *logJSONPath, err)
		}
		defer file.Close()
		named = append(named, logging.NamedSink{
			Name: "json",
			Sink: sinks.NewJSON(file, logCfg.JSON.FlushInterval),
		})
		logCfg.EnabledSinks = append(logCfg.EnabledSinks, "json")
	}

	router, err := logging.NewRouter(nil, logCfg, named)
	if err != nil {
		log.Fatalf("construct logging router: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(ctx); cerr != nil {
			log.Printf("close logging router: %v", cerr)
		}
	}()

	world := NewWorld(simCfg, router)
	hub := newHub(world)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	http.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		stats := router.Stats()
		payload := struct {
			Status        string                `json:"status"`
			ServerTime    int64                 `json:"serverTime"`
			Observers     []diagnosticsObserver `json:"observers"`
			TickRate      int                   `json:"tickRate"`
			Heartbeat     int64                 `json:"heartbeatMillis"`
			EventsLogged  uint64                `json:"eventsLogged"`
			EventsDropped uint64                `json:"eventsDropped"`
		}{
			Status:        "ok",
			ServerTime:    time.Now().UnixMilli(),
			Observers:     hub.DiagnosticsSnapshot(),
			TickRate:      tickRate,
			Heartbeat:     heartbeatInterval.Milliseconds(),
			EventsLogged:  stats.EventsTotal,
			EventsDropped: stats.DroppedTotal,
		}

		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	http.HandleFunc("/join", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		join := hub.Join()
		data, err := json.Marshal(join)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		observerID := r.URL.Query().Get("id")
		if observerID == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade failed for %s: %v", observerID, err)
			return
		}

		sub, ok := hub.Subscribe(observerID, conn)
		if !ok {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown observer")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}

		serveObserver(hub, sub, observerID, conn)
	})

	log.Printf("server listening on %s", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// serveObserver runs the per-connection read loop until the socket closes
// or the observer is disconnected.
func serveObserver(hub *Hub, sub *subscriber, observerID string, conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			hub.Disconnect(observerID)
			go hub.broadcastState(nil)
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("discarding malformed message from %s: %v", observerID, err)
			continue
		}

		switch msg.Type {
		case "input":
			if !hub.UpdateIntent(observerID, msg.DX, msg.DZ) {
				log.Printf("input ignored for non-controlling observer %s", observerID)
			}
		case "emit-sound":
			if !hub.EmitSound(observerID, msg.X, msg.Z, msg.Radius, msg.Category) {
				log.Printf("emit-sound ignored for unknown observer %s", observerID)
			}
		case "heartbeat":
			now := time.Now()
			rtt, ok := hub.UpdateHeartbeat(observerID, now, msg.SentAt)
			if !ok {
				continue
			}

			ack := heartbeatMessage{
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}

			data, err := json.Marshal(ack)
			if err != nil {
				log.Printf("failed to marshal heartbeat ack for %s: %v", observerID, err)
				continue
			}

			sub.mu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				sub.mu.Unlock()
				hub.Disconnect(observerID)
				return
			}
			sub.mu.Unlock()
		default:
			log.Printf("unknown message type %q from %s", msg.Type, observerID)
		}
	}
}
