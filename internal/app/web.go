package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/smartinertia/flywheel/internal/archive"
	"github.com/smartinertia/flywheel/internal/config"
	"github.com/smartinertia/flywheel/internal/dsp"
	"github.com/smartinertia/flywheel/internal/engine"
	"github.com/smartinertia/flywheel/internal/sample"
	"github.com/smartinertia/flywheel/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local single-user deployment
	},
}

// RunWeb hosts the measurement engine: it ingests samples from MQTT, serves
// the live display over HTTP/websocket, runs the offline analysis on stop,
// and persists finished runs.
func RunWeb() error {
	cfg := config.Get()

	eng := engine.New(cfg.Engine())

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// ---- 1) Connect to MQTT and feed the engine ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicSamples, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s sample.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("web: sample unmarshal error: %v", err)
			return
		}
		eng.Add(s.T, s.F)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicSamples)

	var (
		mu         sync.RWMutex
		lastReport *engine.Report
	)

	// ---- 2) Republish the live bars for other consumers ----
	interval := time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if !eng.Running() {
				continue
			}
			payload, err := json.Marshal(eng.Bars())
			if err != nil {
				continue
			}
			client.Publish(cfg.TopicBars, 0, false, payload)
		}
	}()

	// ---- 3) HTTP API ----
	http.HandleFunc("/api/run/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		var rc engine.RunConfig
		if err := json.NewDecoder(r.Body).Decode(&rc); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		eng.Start(rc)
		log.Printf("web: run started for %q (weight=%.1f load=%.3f)", rc.Name, rc.Weight, rc.Load)
		w.WriteHeader(http.StatusNoContent)
	})

	http.HandleFunc("/api/run/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}

		rep, err := eng.Finish()
		switch {
		case errors.Is(err, engine.ErrInvalidMeasurement),
			errors.Is(err, dsp.ErrInsufficientSamples):
			log.Printf("web: run discarded: %v", err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		case errors.Is(err, dsp.ErrFilterUnstable):
			// Unrecoverable measurement: abandon the run, no report.
			log.Printf("web: run abandoned: %v", err)
			http.Error(w, "unrecoverable measurement", http.StatusInternalServerError)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// Persistence and archival are best-effort; a failed save must
		// not invalidate a finished measurement.
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if _, err := st.InsertRun(ctx, rep); err != nil {
			log.Printf("web: run couldn't be saved: %v", err)
		}
		if path, err := archive.WriteRaw(cfg.ArchiveDir, rep.StartedAt, rep.Raw); err != nil {
			log.Printf("web: raw data couldn't be archived: %v", err)
		} else {
			log.Printf("web: raw data archived to %s", path)
		}

		if payload, err := json.Marshal(rep); err == nil {
			client.Publish(cfg.TopicReport, 0, true, payload)
		}

		mu.Lock()
		lastReport = rep
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rep); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/bars", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(eng.Bars()); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/report", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()
		if lastReport == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastReport); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteJSON(eng.Bars()); err != nil {
				return
			}
		}
	})

	// ---- 4) Static files from ./web as the root ----
	http.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
