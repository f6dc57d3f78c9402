package app

import (
	"encoding/json"
	"log"
	"math"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/smartinertia/flywheel/internal/config"
	"github.com/smartinertia/flywheel/internal/sample"
)

// mockSource synthesizes a repetition-shaped frequency trace: a short idle
// lead-in followed by one-second repetitions whose frequency swings through
// the segmenter's hysteresis band.
type mockSource struct {
	start time.Time
}

// NewMockSource creates a sample source that behaves like an athlete on the
// flywheel, for development without the hardware.
func NewMockSource() sample.Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Next() (sample.Sample, error) {
	elapsed := time.Since(m.start).Seconds()
	f := 0.0
	if elapsed > 1 {
		t := elapsed - 1
		f = 2.5 + 2*math.Sin(2*math.Pi*t-math.Pi/2)
	}
	return sample.Sample{T: elapsed, F: f}, nil
}

// RunMockProducer publishes synthetic samples at a device-like rate.
func RunMockProducer() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("mock producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	src := NewMockSource()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		s, err := src.Next()
		if err != nil {
			log.Printf("mock producer: source error: %v", err)
			continue
		}

		payload, err := json.Marshal(s)
		if err != nil {
			log.Printf("mock producer: json marshal error: %v", err)
			continue
		}
		if token := client.Publish(cfg.TopicSamples, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("mock producer: MQTT publish error: %v", token.Error())
		}
	}
	return nil
}
