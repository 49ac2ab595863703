package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartSettlementConsumer connects to RabbitMQ, declares the durable
// session.closed queue and starts consuming.  Each settlement is appended
// to logs/settlement.log as one human-readable line.  The function runs a
// reconnect loop with exponential backoff and keeps running across broker
// restarts; processing errors are logged and the offending message is
// rejected without requeue so the consumer never spins on a poison
// message.
func StartSettlementConsumer() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("settlement-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("settlement-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("settlement-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(sessionClosedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(sessionClosedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("settlement-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev SessionClosedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "settlement.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatSettlementLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatSettlementLine(ev SessionClosedEvent) string {
	sector := ev.Sector
	if sector == "" {
		sector = "-"
	}
	return fmt.Sprintf("[%s] Session settled | session=%s | plate=%s | sector=%s | factor=%d%% | amount=%d %s | entry=%s | exit=%s\n",
		ev.ClosedAt, ev.SessionID, ev.LicensePlate, sector, ev.FactorPct, ev.AmountCents, ev.Currency, ev.EntryTime, ev.ExitTime)
}
