package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/jjroth89/sous-vide/internal/logger"
)

const (
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 1000 // ms
	closeWait         = 3 * time.Second
)

// Options configures a RealPublisher.
type Options struct {
	Broker   string // e.g. tcp://broker.local:1883
	ClientID string
	Device   string // topic segment, sousvide/<device>/...
	Buffer   int    // messages kept while disconnected
}

// client is the subset of paho.Client used by RealPublisher.
type client interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. Publish never waits on
// the network; messages produced while the broker is unreachable are kept in
// a ring buffer and replayed on reconnect.
type RealPublisher struct {
	client      client
	eventsTopic string
	systemTopic string
	log         *logger.Logger

	mu       sync.Mutex
	buf      *ringBuffer
	closing  bool // set by Close; guards inflight.Add
	inflight sync.WaitGroup
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is established in the background; an unreachable broker is not an error.
func NewRealPublisher(opts Options, log *logger.Logger) (*RealPublisher, error) {
	p := newPublisher(opts, log)

	co, err := clientOptions(opts, p.handleConnect, p.handleConnectionLost)
	if err != nil {
		return nil, err
	}
	c := paho.NewClient(co)
	p.client = c

	// With ConnectRetry set the token only completes once connected.
	c.Connect()
	log.Infow("mqtt connecting", "broker", opts.Broker, "client_id", opts.ClientID)
	return p, nil
}

func newPublisher(opts Options, log *logger.Logger) *RealPublisher {
	events, system := Topics(opts.Device)
	return &RealPublisher{
		eventsTopic: events,
		systemTopic: system,
		log:         log,
		buf:         newRingBuffer(opts.Buffer),
	}
}

// clientOptions builds the paho options: auto-reconnect, retained OFFLINE
// last will on the system topic.
func clientOptions(opts Options, onConnect paho.OnConnectHandler, onLost paho.ConnectionLostHandler) (*paho.ClientOptions, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mqtt broker not set")
	}
	_, system := Topics(opts.Device)
	will, err := FormatSystemPayload(SystemEvent{Event: "OFFLINE"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	return paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetMaxReconnectInterval(time.Minute).
		SetBinaryWill(system, will, 1, true).
		SetOnConnectHandler(onConnect).
		SetConnectionLostHandler(onLost), nil
}

// Publish sends a session event. QoS 0, not retained.
func (p *RealPublisher) Publish(event SessionEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	p.send(bufferedMsg{topic: p.eventsTopic, payload: payload})
	return nil
}

// PublishSystem sends a system lifecycle event. QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	p.send(bufferedMsg{topic: p.systemTopic, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client != nil && p.client.IsConnectionOpen()
}

// Close waits briefly for in-flight messages, then disconnects. Messages
// published or replayed after Close has started are discarded.
func (p *RealPublisher) Close() error {
	p.mu.Lock()
	p.closing = true
	pending := p.buf.len()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(closeWait):
		p.log.Warnw("mqtt close: in-flight messages not acknowledged")
	}

	if pending > 0 {
		p.log.Warnw("mqtt close: discarding buffered messages", "count", pending)
	}

	p.client.Disconnect(disconnectQuiesce)
	return nil
}

func (p *RealPublisher) send(msg bufferedMsg) {
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		p.log.Debugw("mqtt closing, message discarded", "topic", msg.topic)
		return
	}
	if !p.client.IsConnectionOpen() {
		if p.buf.push(msg) {
			p.log.Warnw("mqtt buffer full, dropping oldest messages", "capacity", p.buf.capacity)
		}
		p.mu.Unlock()
		return
	}
	p.inflight.Add(1)
	p.mu.Unlock()
	p.dispatch(msg)
}

// dispatch hands msg to the client and watches the token in the background.
// The caller has already counted msg in inflight while holding mu.
func (p *RealPublisher) dispatch(msg bufferedMsg) {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	go func() {
		defer p.inflight.Done()
		if !token.WaitTimeout(publishTimeout) {
			p.log.Warnw("mqtt publish timeout", "topic", msg.topic)
			return
		}
		if err := token.Error(); err != nil {
			p.log.Warnw("mqtt publish failed", "topic", msg.topic, "error", err)
		}
	}()
}

func (p *RealPublisher) handleConnect(paho.Client) {
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return
	}
	pending := p.buf.drainAll()
	p.inflight.Add(len(pending))
	p.mu.Unlock()

	p.log.Infow("mqtt connected", "replaying", len(pending))
	for _, msg := range pending {
		p.dispatch(msg)
	}
}

func (p *RealPublisher) handleConnectionLost(_ paho.Client, err error) {
	p.log.Warnw("mqtt connection lost", "error", err)
}
