// Command spammer publishes synthetic status-update events, useful for
// exercising the consumer under load.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

var statuses = []string{"Created", "Pending", "InProgress", "Completed", "Failed"}

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated broker list")
	topic := flag.String("topic", "order-status-events", "topic to publish to")
	rate := flag.Int("rate", 10, "messages per second")
	duration := flag.Duration("duration", 30*time.Second, "how long to publish")
	orders := flag.Int("orders", 100, "size of the synthetic order id pool")
	flag.Parse()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	defer writer.Close()

	pool := make([]uuid.UUID, *orders)
	for i := range pool {
		pool[i] = uuid.New()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	ticker := time.NewTicker(time.Second / time.Duration(*rate))
	defer ticker.Stop()

	log.Printf("publishing to %s at %d msg/s for %v", *topic, *rate, *duration)

	var sent int64
	for {
		select {
		case <-ctx.Done():
			log.Printf("done, sent %d messages", sent)
			return
		case <-ticker.C:
			ev := map[string]string{
				"order_id": pool[rand.Intn(len(pool))].String(),
				"status":   statuses[rand.Intn(len(statuses))],
			}
			value, _ := json.Marshal(ev)
			if err := writer.WriteMessages(ctx, kafka.Message{
				Key:   []byte(ev["order_id"]),
				Value: value,
			}); err != nil {
				if ctx.Err() != nil {
					log.Printf("done, sent %d messages", sent)
					return
				}
				log.Printf("write failed: %v", err)
				continue
			}
			sent++
		}
	}
}
