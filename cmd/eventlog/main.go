// Command eventlog consumes the inventory event queue and writes each event
// to the structured log.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"garage/internal/config"
	"garage/internal/logging"
	"garage/internal/services"
	"garage/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL is not set")
	}

	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
	if err != nil {
		log.Fatalw("failed to initialize RabbitMQ client", "error", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Consume(ctx, logEvent(log)); err != nil {
		log.Errorw("consumer stopped", "error", err)
		return
	}
	log.Info("consumer stopped")
}

// logEvent logs one delivery. Undecodable bodies are logged and acked so
// they do not cycle through the queue forever.
func logEvent(log *zap.SugaredLogger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event services.Event
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			log.Warnw("discarding undecodable event", "delivery_tag", msg.DeliveryTag, "error", err)
			return nil
		}
		log.Infow("inventory event",
			"type", event.Type,
			"user_id", event.UserID,
			"box_id", event.BoxID,
			"item_id", event.ItemID,
			"from_box_id", event.FromBoxID,
			"name", event.Name,
			"occurred_at", event.OccurredAt,
		)
		return nil
	}
}
