// Package eventbus fans out bot/crank/finalizer lifecycle events to
// in-process subscribers and, optionally, to an external Kafka topic
// (spec.md §4's UI Event Bus). Emit never blocks, but the bus is bounded:
// each subscriber has its own 256-event buffer, and an event for a
// subscriber whose buffer is full is dropped for that subscriber rather than
// queued. Grounded on event.TypeMux's
// mux.Post(...) usage throughout work/worker.go, generalized from a single
// typed feed to this repo's lifecycle event set, plus
// datasync/chaindatafetcher/event/kafka/repository.go's
// broker.Publish(topic, payload) for the optional external sink.
package eventbus

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/klaytn/boardrush/internal/chainlog"
)

var busLogger = chainlog.NewModuleLogger("eventbus")

// Event is one lifecycle message: a phase transition, deploy outcome,
// checkpoint result, claim, or winning-square announcement.
type Event struct {
	Kind      string                 `json:"kind"`
	Authority string                 `json:"authority,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	At        time.Time              `json:"at"`
}

// subscriberBuffer is generous enough that a slow renderer rarely backs up
// producers, without making Emit itself block indefinitely (spec.md §5:
// "Producers never block").
const subscriberBuffer = 256

// Bus is a multi-producer, single-consumer-per-subscription fan-out: each
// Subscribe call gets its own buffered channel fed by every Emit.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int

	kafka      sarama.AsyncProducer
	kafkaTopic string

	now func() time.Time
}

// New builds an in-process-only bus.
func New() *Bus {
	return &Bus{subscribers: make(map[int]chan Event), now: time.Now}
}

// WithKafka attaches an external fan-out: every emitted event is also
// published (best-effort, fire-and-forget) to topic.
func (b *Bus) WithKafka(producer sarama.AsyncProducer, topic string) {
	b.kafka = producer
	b.kafkaTopic = topic
	if producer != nil {
		go b.drainKafkaErrors()
	}
}

func (b *Bus) drainKafkaErrors() {
	for err := range b.kafka.Errors() {
		busLogger.Warn("kafka event publish failed", "err", err)
	}
}

// Subscribe registers a new in-process consumer and returns its channel plus
// an unsubscribe func.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subscribers[id] = ch
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
}

// Emit implements botstate.EventEmitter and matching duck-typed interfaces
// in crank/finalizer: it fans the event out to every subscriber without
// blocking on a full channel (a slow subscriber drops events rather than
// stalling producers), and publishes to Kafka if attached.
func (b *Bus) Emit(kind, authority string, data map[string]interface{}) {
	ev := Event{Kind: kind, Authority: authority, Data: data, At: b.now()}

	b.mu.RLock()
	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			busLogger.Debug("dropping event for slow subscriber", "subscriber", id, "kind", kind)
		}
	}
	b.mu.RUnlock()

	if b.kafka != nil {
		b.publishKafka(ev)
	}
}

func (b *Bus) publishKafka(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		busLogger.Warn("failed to marshal event for kafka", "err", err)
		return
	}
	b.kafka.Input() <- &sarama.ProducerMessage{
		Topic: b.kafkaTopic,
		Key:   sarama.StringEncoder(ev.Authority),
		Value: sarama.ByteEncoder(payload),
	}
}
