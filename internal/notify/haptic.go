package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/vitalvision/backend/internal/config"
	"go.uber.org/zap"
)

// VibrationPattern is the on/off pattern in milliseconds sent to devices
var VibrationPattern = []int{200, 100, 200}

// Publisher publishes a payload to a device topic
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTClient wraps a paho client connected to the device broker
type MQTTClient struct {
	client  mqtt.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewMQTTClient connects to the device broker
func NewMQTTClient(cfg config.MQTTConfig, logger *zap.Logger) (*MQTTClient, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger.Info("connected to MQTT broker", zap.String("broker", cfg.BrokerURL))

	return &MQTTClient{
		client:  client,
		timeout: 10 * time.Second,
		logger:  logger,
	}, nil
}

// Publish sends a message and waits for the broker acknowledgment
func (c *MQTTClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("timed out publishing to topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

// Disconnect closes the broker connection
func (c *MQTTClient) Disconnect() {
	c.client.Disconnect(250)
}

// HapticMessage is the payload sent to the patient's device
type HapticMessage struct {
	Pattern []int  `json:"pattern"`
	Title   string `json:"title"`
	Detail  string `json:"detail"`
}

// HapticChannel asks the patient's device to vibrate
type HapticChannel struct {
	publisher   Publisher
	topicPrefix string
	qos         byte
	logger      *zap.Logger
}

// NewHapticChannel creates a new HapticChannel
func NewHapticChannel(publisher Publisher, topicPrefix string, qos byte, logger *zap.Logger) *HapticChannel {
	return &HapticChannel{
		publisher:   publisher,
		topicPrefix: topicPrefix,
		qos:         qos,
		logger:      logger,
	}
}

// Name returns the channel name
func (c *HapticChannel) Name() string { return "haptic" }

// Topic returns the device topic of a patient
func (c *HapticChannel) Topic(patientID string) string {
	return fmt.Sprintf("%s/%s/haptic", c.topicPrefix, patientID)
}

// Deliver publishes the vibration request
func (c *HapticChannel) Deliver(ctx context.Context, d *Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(HapticMessage{
		Pattern: VibrationPattern,
		Title:   d.Event.Title,
		Detail:  d.Event.Detail,
	})
	if err != nil {
		return fmt.Errorf("failed to encode haptic message: %w", err)
	}

	return c.publisher.Publish(c.Topic(d.Event.PatientID), c.qos, false, payload)
}
