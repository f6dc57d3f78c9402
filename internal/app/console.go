package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/smartinertia/flywheel/internal/config"
	"github.com/smartinertia/flywheel/internal/engine"
)

// RunConsole subscribes to the live bar and report topics and prints them,
// a terminal stand-in for the graphical display.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	barsToken := client.Subscribe(cfg.TopicBars, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var bars []float64
		if err := json.Unmarshal(msg.Payload(), &bars); err != nil {
			log.Printf("console: bars unmarshal error: %v", err)
			return
		}
		if len(bars) == 0 {
			return
		}
		parts := make([]string, len(bars))
		for i, b := range bars {
			parts[i] = fmt.Sprintf("%6.1f", b)
		}
		fmt.Printf("[BARS] %s W\n", strings.Join(parts, " "))
	})
	barsToken.Wait()
	if barsToken.Error() != nil {
		return barsToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicBars)

	reportToken := client.Subscribe(cfg.TopicReport, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var rep engine.Report
		if err := json.Unmarshal(msg.Payload(), &rep); err != nil {
			log.Printf("console: report unmarshal error: %v", err)
			return
		}

		m := rep.Summary
		fmt.Printf("[RUN ] %s  weight=%.1fkg load=%.3fkg reps=%d", rep.Run.Name, rep.Run.Weight, rep.Run.Load, len(rep.Reps))
		if rep.Partial {
			fmt.Printf("  (partial)")
		}
		fmt.Println()
		fmt.Printf("[VEL ] con max=%6.3f mean=%6.3f | ecc max=%6.3f mean=%6.3f m/s\n",
			m.VConMax, m.VConMean, m.VEccMax, m.VEccMean)
		fmt.Printf("[FRC ] con max=%6.1f mean=%6.1f | ecc max=%6.1f mean=%6.1f N\n",
			m.FConMax, m.FConMean, m.FEccMax, m.FEccMean)
		fmt.Printf("[PWR ] con max=%6.1f mean=%6.1f | ecc max=%6.1f mean=%6.1f W\n",
			m.PConMax, m.PConMean, m.PEccMax, m.PEccMean)
	})
	reportToken.Wait()
	if reportToken.Error() != nil {
		return reportToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicReport)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("console: shutting down")
	return nil
}
