// Command wheel-speed measures bicycle wheel RPM from a GPIO edge sensor and
// reports RPM and linear speed to the console, a serial line, MQTT and an
// HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/wheel-speed/internal/config"
	"github.com/sweeney/wheel-speed/internal/gpio"
	"github.com/sweeney/wheel-speed/internal/logic"
	"github.com/sweeney/wheel-speed/internal/mqtt"
	"github.com/sweeney/wheel-speed/internal/report"
	"github.com/sweeney/wheel-speed/internal/status"
	"github.com/sweeney/wheel-speed/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/wheel-speed.yaml", "YAML config file (missing file = defaults)")
	chip := flag.String("chip", "", "GPIO chip of the wheel sensor")
	pin := flag.Int("pin", 0, "GPIO line offset of the wheel sensor (BCM numbering)")
	radius := flag.Float64("radius", 0, "Wheel radius in meters")
	interval := flag.Duration("interval", 0, "Report interval")
	stopTimeout := flag.Duration("stop-timeout", 0, "Time without an edge after which the wheel counts as stopped")
	poll := flag.Duration("poll", 0, "Main loop polling period")
	serialPort := flag.String("serial", "", "Serial port for the text reporter (empty to disable)")
	baud := flag.Int("baud", 0, "Serial baud rate")
	broker := flag.String("broker", "", `MQTT broker address ("off" disables)`)
	heartbeat := flag.Duration("heartbeat", 0, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", "", `HTTP status address ("off" disables)`)
	printState := flag.Bool("print-state", false, "Print the current sensor level and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: load config: %v", err)
	}

	// Flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "chip":
			cfg.Sensor.Chip = *chip
		case "pin":
			cfg.Sensor.Pin = *pin
		case "radius":
			cfg.Wheel.RadiusMeters = *radius
		case "interval":
			cfg.Sampling.Interval = *interval
		case "stop-timeout":
			cfg.Sampling.StopTimeout = *stopTimeout
		case "poll":
			cfg.Sampling.Poll = *poll
		case "serial":
			cfg.Serial.Port = *serialPort
		case "baud":
			cfg.Serial.BaudRate = *baud
		case "broker":
			cfg.MQTT.Broker = offToEmpty(*broker)
		case "heartbeat":
			cfg.MQTT.Heartbeat = *heartbeat
		case "http":
			cfg.HTTP.Addr = offToEmpty(*httpAddr)
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, printState bool) error {
	source := gpio.NewRealSource(cfg.Sensor.Chip, cfg.Sensor.Pin)

	// The edge timer is the line's event handler; the sampler reads the
	// shared state it writes.
	state := &logic.TimingState{}
	timer := logic.NewEdgeTimer(state)
	if err := source.Start(timer.OnEdge); err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer source.Close()

	// Print state mode
	if printState {
		v, err := source.Value()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("%s line %d: %d\n", cfg.Sensor.Chip, cfg.Sensor.Pin, v)
		return nil
	}

	reporters := report.Multi{report.NewLineReporter(os.Stdout)}

	if cfg.Serial.Port != "" {
		serialReporter, err := report.OpenSerial(cfg.Serial.Port, cfg.Serial.BaudRate)
		if err != nil {
			return fmt.Errorf("init serial: %w", err)
		}
		defer serialReporter.Close()
		reporters = append(reporters, serialReporter)
		log.Printf("serial reporter on %s at %d baud", cfg.Serial.Port, cfg.Serial.BaudRate)
	}

	// Initialize MQTT
	var publisher mqtt.Publisher = noopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		mqttPub := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		defer mqttPub.Close()
		publisher = mqttPub
		mqttStatus = mqttPub
	}
	reporters = append(reporters, report.Func(publisher.Publish))

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: chip=%s pin=%d radius=%.3fm interval=%v stop-timeout=%v poll=%v broker=%q heartbeat=%v",
		cfg.Sensor.Chip, cfg.Sensor.Pin, cfg.Wheel.RadiusMeters, cfg.Sampling.Interval,
		cfg.Sampling.StopTimeout, cfg.Sampling.Poll, cfg.MQTT.Broker, cfg.MQTT.Heartbeat)

	ticker := time.NewTicker(cfg.Sampling.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopDeps{
		state:      state,
		sampler:    cfg.SamplerConfig(),
		clock:      gpio.MonotonicClock{},
		reporter:   reporters,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		heartbeat:  cfg.MQTT.Heartbeat,
		now:        time.Now,
	}, ticker.C, sigCh)
}

// loopDeps holds everything runLoop reads from or reports to.
type loopDeps struct {
	state      *logic.TimingState
	sampler    logic.SamplerConfig
	clock      gpio.Clock
	reporter   report.Reporter
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus // may be nil
	tracker    *status.Tracker       // may be nil
	heartbeat  time.Duration
	now        func() time.Time
}

// runLoop polls the sampler on every tick until a signal arrives. The
// sampler decides on its own phase-locked schedule when a sample is due, so
// the tick period only bounds how late a sample can be.
func runLoop(d loopDeps, tick <-chan time.Time, sig <-chan os.Signal) error {
	sampler := logic.NewSampler(d.sampler, d.now())

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: d.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				d.refreshTracker(sampler)
				snap := d.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			}
			return nil

		case <-tick:
			t := d.now()
			reading := sampler.Poll(t, d.state, d.clock.Micros)
			if reading != nil {
				log.Printf("reading: rpm=%d speed=%.2fm/s stopped=%v edges=%d",
					reading.RPM, reading.SpeedMPS, reading.Stopped, reading.Edges)
				if err := d.reporter.Report(*reading); err != nil {
					log.Printf("report error: %v", err)
					// Don't crash on report failure
				}
				if d.tracker != nil {
					d.tracker.SetReading(*reading)
				}
			}

			// Check for heartbeat
			if hb := sampler.CheckHeartbeat(t, d.heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v ticks=%d reports=%d rpm=%d edges=%d distance=%.1fm",
					hb.Uptime, hb.Stats.Ticks, hb.Stats.Reports, hb.Stats.RPM, hb.Stats.Edges, hb.Stats.Distance)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if d.tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						d.tracker.SetNetwork(net)
					}
					d.refreshTracker(sampler)
					hbEvent.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := d.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if d.tracker != nil {
				d.refreshTracker(sampler)
			}
		}
	}
}

func (d loopDeps) refreshTracker(sampler *logic.Sampler) {
	d.tracker.Update(sampler.Stats())
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// noopPublisher stands in for MQTT when no broker is configured.
type noopPublisher struct{}

func (noopPublisher) Publish(logic.Reading) error          { return nil }
func (noopPublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (noopPublisher) Close() error                         { return nil }

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		Chip:          cfg.Sensor.Chip,
		Pin:           cfg.Sensor.Pin,
		WheelRadiusM:  cfg.Wheel.RadiusMeters,
		IntervalMs:    cfg.Sampling.Interval.Milliseconds(),
		StopTimeoutUs: cfg.Sampling.StopTimeout.Microseconds(),
		PollMs:        cfg.Sampling.Poll.Milliseconds(),
		HeartbeatMs:   cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:        cfg.MQTT.Broker,
		SerialPort:    cfg.Serial.Port,
		HTTPAddr:      cfg.HTTP.Addr,
	}
}

func offToEmpty(v string) string {
	if v == "off" {
		return ""
	}
	return v
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
