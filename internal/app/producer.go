package app

import (
	"bufio"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/smartinertia/flywheel/internal/config"
	"github.com/smartinertia/flywheel/internal/sample"
)

// RunProducer opens the flywheel's serial port, reads "<t>,<f>" lines, and
// publishes every well-formed sample as JSON on the samples topic. Malformed
// lines are dropped here; they never reach the engine.
func RunProducer() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open the flywheel serial port ----
	serialOpts := serial.OpenOptions{
		PortName:        cfg.SerialPort,
		BaudRate:        uint(cfg.SerialBaud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("producer: serial port opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaud)

	// Cooperative stop: closing the port unblocks the read loop.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Println("producer: shutting down")
		port.Close()
	}()

	reader := bufio.NewReader(port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("producer: serial read ended: %v", err)
			return nil
		}

		s, err := sample.ParseLine(strings.TrimSpace(line))
		if err != nil {
			// The device occasionally emits garbage on wake-up.
			continue
		}

		payload, err := json.Marshal(s)
		if err != nil {
			log.Printf("producer: json marshal error: %v", err)
			continue
		}
		if token := client.Publish(cfg.TopicSamples, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("producer: MQTT publish error: %v", token.Error())
		}
	}
}
