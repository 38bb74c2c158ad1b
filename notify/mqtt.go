package notify

import (
	"encoding/json"
	"sync"
	"time"

	"dingwecker/log"
)

// DefaultTopic is the MQTT topic for chain notifications.
const DefaultTopic = "dingwecker/notify"

// queueSize bounds the messages waiting for the broker.
const queueSize = 64

// Publisher sends payloads to a broker.
type Publisher interface {
	// Publish returns an error if the broker did not accept the payload;
	// the caller logs it and carries on.
	Publish(topic string, payload []byte) error

	// Close disconnects from the broker.
	Close() error
}

// Payload is the JSON body of a notification.
type Payload struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// FormatPayload creates the JSON payload for message shown at at.
func FormatPayload(message string, at time.Time) ([]byte, error) {
	return json.Marshal(Payload{
		Message:   message,
		Timestamp: at.UTC().Format(time.RFC3339),
	})
}

// MQTT publishes notifications from a background goroutine so that
// ShowTransient never waits on the network. Messages arriving while the
// queue is full are dropped.
type MQTT struct {
	pub   Publisher
	topic string
	now   func() time.Time

	queue chan []byte
	done  chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

// NewMQTT starts a notifier publishing on topic.
func NewMQTT(pub Publisher, topic string) *MQTT {
	if topic == "" {
		topic = DefaultTopic
	}
	m := &MQTT{
		pub:   pub,
		topic: topic,
		now:   time.Now,
		queue: make(chan []byte, queueSize),
		done:  make(chan struct{}),
	}
	go m.publishLoop()
	return m
}

func (m *MQTT) ShowTransient(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	payload, err := FormatPayload(message, m.now())
	if err != nil {
		log.Warn("mqtt payload", "error", err)
		return
	}
	select {
	case m.queue <- payload:
	default:
		log.Warn("mqtt queue full, dropping notification", "message", message)
	}
}

// Close publishes what is queued, then disconnects.
func (m *MQTT) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		close(m.queue)
		m.mu.Unlock()

		<-m.done
		err = m.pub.Close()
	})
	return err
}

func (m *MQTT) publishLoop() {
	defer close(m.done)
	for payload := range m.queue {
		if err := m.pub.Publish(m.topic, payload); err != nil {
			log.Warn("mqtt publish failed", "topic", m.topic, "error", err)
		}
	}
}
