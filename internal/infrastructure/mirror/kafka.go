// Package mirror publica los avisos de los libros en Kafka.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
)

// Envelope mensaje publicado por cada aviso.
type Envelope struct {
	Origin  string    `json:"origin"`
	Ledger  string    `json:"ledger"`
	Op      string    `json:"op"`
	Subject string    `json:"subject"`
	At      time.Time `json:"at"`
}

// messageWriter parte de *kafka.Writer que usa el publicador.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher escribe un mensaje por aviso, con clave ledger/subject para que los
// avisos de un mismo agregado queden en la misma partición.
type KafkaPublisher struct {
	writer  messageWriter
	origin  string
	timeout time.Duration
}

// NewKafkaPublisher construye el publicador sobre los brokers dados.
func NewKafkaPublisher(brokers []string, topic, origin string) *KafkaPublisher {
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}, origin)
}

func newPublisher(w messageWriter, origin string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, origin: origin, timeout: 10 * time.Second}
}

// Publish serializa el aviso y lo escribe.
func (p *KafkaPublisher) Publish(ctx context.Context, c ports.Change) error {
	data, err := json.Marshal(Envelope{Origin: p.origin, Ledger: c.Ledger, Op: c.Op, Subject: c.Subject, At: c.At})
	if err != nil {
		return fmt.Errorf("serializar aviso: %w", err)
	}
	wctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	msg := kafka.Message{
		Key:   []byte(c.Ledger + "/" + c.Subject),
		Value: data,
		Headers: []kafka.Header{
			{Key: "ledger", Value: []byte(c.Ledger)},
			{Key: "op", Value: []byte(c.Op)},
		},
		Time: c.At,
	}
	if err := p.writer.WriteMessages(wctx, msg); err != nil {
		return fmt.Errorf("publicar aviso %s/%s: %w", c.Ledger, c.Op, err)
	}
	return nil
}

// Close cierra el writer.
func (p *KafkaPublisher) Close() error { return p.writer.Close() }
