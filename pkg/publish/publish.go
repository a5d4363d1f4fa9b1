package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/itohio/dhtfw/pkg/logger"
	"github.com/itohio/dhtfw/pkg/sample"
)

// Publisher sends payloads to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Close()
}

// Topic returns the per-pin topic under root.
func Topic(root string, pin int) string {
	return strings.TrimSuffix(root, "/") + "/" + strconv.Itoa(pin)
}

// Forward publishes every sample from in as JSON to <root>/<pin> until in
// is closed or ctx is done. Publish failures are logged and do not stop forwarding.
func Forward(ctx context.Context, in <-chan sample.Sample, pub Publisher, root string, log logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-in:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(s)
			if err != nil {
				return fmt.Errorf("failed to encode sample: %w", err)
			}
			topic := Topic(root, s.Pin)
			if err := pub.Publish(topic, payload); err != nil {
				log.Warn("Failed to publish to %s: %v", topic, err)
			}
		}
	}
}
