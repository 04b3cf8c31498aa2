package botvac

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Broker is the publish/subscribe surface the command bridge needs.
type Broker interface {
	Subscribe(topic string, handler func(payload []byte)) error
	Publish(topic string, payload []byte) error
	Close()
}

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

type pahoBroker struct {
	client mqtt.Client
	mu     sync.Mutex
	subs   map[string]func([]byte)
}

// DialBroker connects to an MQTT broker. Subscriptions survive reconnects.
func DialBroker(opts MQTTOptions) (Broker, error) {
	brokerURL, err := url.Parse(opts.Broker)
	if err != nil {
		return nil, fmt.Errorf("parse mqtt broker: %w", err)
	}

	clientOpts := mqtt.NewClientOptions()
	if brokerURL.Scheme == "ssl" || brokerURL.Scheme == "tls" || brokerURL.Scheme == "mqtts" {
		clientOpts.SetTLSConfig(&tls.Config{})
	}
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetUsername(opts.Username)
	clientOpts.SetPassword(opts.Password)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.SetConnectTimeout(10 * time.Second)

	b := &pahoBroker{subs: make(map[string]func([]byte))}
	clientOpts.OnConnect = func(_ mqtt.Client) {
		b.resubscribeAll()
	}
	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	b.client = client
	return b, nil
}

func (b *pahoBroker) Subscribe(topic string, handler func([]byte)) error {
	b.mu.Lock()
	b.subs[topic] = handler
	b.mu.Unlock()

	if token := b.client.Subscribe(topic, 1, b.dispatch); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (b *pahoBroker) Publish(topic string, payload []byte) error {
	if token := b.client.Publish(topic, 1, false, payload); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (b *pahoBroker) Close() {
	b.client.Disconnect(250)
}

func (b *pahoBroker) dispatch(_ mqtt.Client, msg mqtt.Message) {
	b.mu.Lock()
	handler := b.subs[msg.Topic()]
	b.mu.Unlock()
	if handler != nil {
		handler(msg.Payload())
	}
}

func (b *pahoBroker) resubscribeAll() {
	b.mu.Lock()
	topics := make([]string, 0, len(b.subs))
	for topic := range b.subs {
		topics = append(topics, topic)
	}
	b.mu.Unlock()
	if b.client == nil {
		return
	}
	for _, topic := range topics {
		_ = b.client.Subscribe(topic, 1, b.dispatch).Wait()
	}
}

// CommandRequest is the JSON form of a command message. A bare operation
// name is accepted too.
type CommandRequest struct {
	ID        string `json:"id,omitempty"`
	Operation string `json:"operation"`
}

// CommandResult is published once a command finishes.
type CommandResult struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Bridge runs commands received on an MQTT topic and publishes results.
type Bridge struct {
	broker       Broker
	controller   *Controller
	commandTopic string
	resultTopic  string
	logger       log.Interface
	newID        func() string
	now          func() time.Time

	wg sync.WaitGroup
}

func NewBridge(broker Broker, controller *Controller, commandTopic, resultTopic string, logger log.Interface) *Bridge {
	return &Bridge{
		broker:       broker,
		controller:   controller,
		commandTopic: commandTopic,
		resultTopic:  resultTopic,
		logger:       loggerOrDiscard(logger).WithField("module", "mqtt-bridge"),
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// Start subscribes to the command topic. Commands run on ctx until it ends.
func (b *Bridge) Start(ctx context.Context) error {
	err := b.broker.Subscribe(b.commandTopic, func(payload []byte) {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.handle(ctx, payload)
		}()
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.commandTopic, err)
	}
	b.logger.WithField("topic", b.commandTopic).Info("listening for commands")
	return nil
}

// Wait blocks until in-flight commands have published their result.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

func (b *Bridge) handle(ctx context.Context, payload []byte) {
	started := b.now()
	req, err := parseCommand(payload)
	if req.ID == "" {
		req.ID = b.newID()
	}
	logger := b.logger.WithFields(log.Fields{"id": req.ID, "operation": req.Operation})

	result := CommandResult{ID: req.ID, Operation: req.Operation, StartedAt: started}
	if err != nil {
		result.Outcome = "invalid"
		result.Error = err.Error()
		logger.WithError(err).Warn("rejected command")
	} else {
		op, _ := ParseOperation(req.Operation)
		logger.Info("running command")
		err = b.controller.Run(ctx, op)
		result.Outcome = Outcome(err)
		if err != nil {
			result.Error = err.Error()
		}
	}
	result.FinishedAt = b.now()

	data, err := json.Marshal(result)
	if err != nil {
		logger.WithError(err).Error("encode result")
		return
	}
	if err := b.broker.Publish(b.resultTopic, data); err != nil {
		logger.WithError(err).Error("publish result")
	}
}

func parseCommand(payload []byte) (CommandRequest, error) {
	text := strings.TrimSpace(string(payload))
	var req CommandRequest
	if strings.HasPrefix(text, "{") {
		if err := json.Unmarshal([]byte(text), &req); err != nil {
			return req, fmt.Errorf("decode command: %w", err)
		}
	} else {
		req.Operation = text
	}
	op, err := ParseOperation(req.Operation)
	if err != nil {
		return req, err
	}
	req.Operation = string(op)
	return req, nil
}
