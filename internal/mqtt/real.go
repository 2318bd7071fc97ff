package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/wheel-speed/internal/logic"
)

// DefaultClientID is the MQTT client identifier used when none is configured.
const DefaultClientID = "wheel-speed"

// publishTimeout bounds the wait for retained lifecycle messages.
const publishTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker.
// Messages published while the connection is down are queued and replayed,
// oldest first, once the client reconnects.
type RealPublisher struct {
	client paho.Client
	topic  string

	mu        sync.Mutex
	queue     *pendingQueue
	connected bool // a connection has been made at least once
}

// NewRealPublisher creates a publisher for the given broker. It does not wait
// for the connection: the client keeps retrying in the background and
// publishes are queued until it succeeds.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	if clientID == "" {
		clientID = DefaultClientID
	}

	p := &RealPublisher{
		topic: Topic,
		queue: newPendingQueue(bufferCapacity),
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// onConnect replays queued messages. On reconnects it first announces
// RECONNECTED on the system topic.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	pending := p.queue.drain()
	p.mu.Unlock()

	log.Printf("mqtt: connected (reconnect=%v, queued=%d)", reconnect, len(pending))

	if reconnect {
		payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err == nil {
			c.Publish(TopicSystem, 1, false, payload)
		}
	}

	// The handler runs on paho's goroutine; don't wait on tokens here.
	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

// Publish sends a wheel reading to the MQTT broker.
func (p *RealPublisher) Publish(r logic.Reading) error {
	payload, err := FormatPayload(r)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	if err := p.send(pendingMsg{topic: p.topic, payload: payload}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	if err := p.send(pendingMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// send publishes m, or queues it while the connection is down. Only retained
// lifecycle messages wait for the broker; the rest are fire-and-forget so the
// sampling loop never stalls on a slow broker.
func (p *RealPublisher) send(m pendingMsg) error {
	// Checked under the lock: onConnect drains under it after the connection
	// is marked open, so a queued message is never left behind.
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.queue.push(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !m.retained {
		go func() {
			<-token.Done()
			if err := token.Error(); err != nil {
				log.Printf("mqtt: publish to %s failed: %v", m.topic, err)
			}
		}()
		return nil
	}
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout")
	}
	return token.Error()
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
