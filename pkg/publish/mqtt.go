package publish

import (
	"fmt"
	"log"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"

	"github.com/itohio/dhtfw/pkg/config"
	"github.com/itohio/dhtfw/pkg/logger"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// MQTT publishes samples to a broker.
type MQTT struct {
	client mqttlib.Client
	log    logger.Logger
}

// Ensure MQTT implements Publisher.
var _ Publisher = (*MQTT)(nil)

func clientOptions(cfg config.MQTTConfig, l logger.Logger) *mqttlib.ClientOptions {
	opts := mqttlib.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetOnConnectHandler(func(mqttlib.Client) {
		l.Info("Connected to MQTT broker %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqttlib.Client, err error) {
		l.Warn("MQTT connection lost: %v", err)
	})
	return opts
}

// NewMQTT connects to the broker described by cfg.
func NewMQTT(cfg config.MQTTConfig, l logger.Logger) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("no MQTT broker configured")
	}
	if l == nil {
		l = logger.Discard()
	}

	mqttlib.ERROR = log.New(l.Writer(), "[mqtt] ", 0)

	client := mqttlib.NewClient(clientOptions(cfg, l))
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, err)
	}

	return &MQTT{client: client, log: l}, nil
}

// Publish sends payload to topic with QoS 0 and waits for the client to accept it.
func (m *MQTT) Publish(topic string, payload []byte) error {
	token := m.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
