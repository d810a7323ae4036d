package pushbus

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vipul43/kiwis-monitor/internal/models"
	"github.com/vipul43/kiwis-monitor/internal/monitor"
)

// Bus adapts a NATS connection to the monitor's push channel. The worker
// publishes each sync event to sync.events.<user>.<kind>.<run>; delivery is
// best-effort and may duplicate what polling returns, which is fine because
// the ledger dedups.
type Bus struct {
	conn *nats.Conn
}

func Connect(url string) (*Bus, error) {
	conn, err := nats.Connect(url,
		nats.Name("kiwis-monitor"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("Warning: push channel disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Println("Push channel reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Bus{conn: conn}, nil
}

// Subscribe delivers decoded sync events for the subject to the handler
func (b *Bus) Subscribe(subject string, handler func(models.SyncEvent)) (monitor.PushSubscription, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		var event models.SyncEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("Warning: failed to decode push event on %s: %v", subject, err)
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return &subscription{sub: sub}, nil
}

// Close drains the connection
func (b *Bus) Close() {
	if err := b.conn.Drain(); err != nil {
		log.Printf("Warning: failed to drain NATS connection: %v", err)
	}
}

type subscription struct {
	sub *nats.Subscription
}

func (s *subscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}
