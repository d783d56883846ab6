// Package mqtt publishes polled variable values to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/go-sscp/go-sscp/internal/poller"
	"github.com/go-sscp/go-sscp/internal/pool"
	"github.com/go-sscp/go-sscp/logger"
)

// ErrNotConnected indicates a publish while the broker connection is down.
var ErrNotConnected = errors.New("mqtt: not connected")

// Config is the broker connection of a publisher.
type Config struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Username string
	Password string
	// Topic is the root topic, values go to <Topic>/<variable name>.
	Topic  string
	QoS    byte
	Retain bool

	ConnectTimeout time.Duration
}

// Message is the JSON payload published for a variable value.
type Message struct {
	Name      string `json:"name"`
	UID       uint32 `json:"uid"`
	Type      string `json:"type"`
	Value     any    `json:"value"`
	Timestamp string `json:"timestamp"`
}

// Publisher publishes changed samples of a poller. It implements poller.Sink.
type Publisher struct {
	cfg    Config
	client pahomqtt.Client
	logger logger.Logger
}

var _ poller.Sink = (*Publisher)(nil)

// NewPublisher creates a publisher for the broker of cfg. It doesn't connect.
func NewPublisher(cfg Config, l logger.Logger) *Publisher {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if l == nil {
		l = logger.GetLogger()
	}
	l = l.With("component", "mqtt", "broker", cfg.Broker)

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		l.Info("connected to MQTT broker")
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		l.Warn("MQTT connection lost", "error", err)
	})

	return newPublisher(cfg, pahomqtt.NewClient(opts), l)
}

func newPublisher(cfg Config, client pahomqtt.Client, l logger.Logger) *Publisher {
	return &Publisher{cfg: cfg, client: client, logger: l}
}

// Connect connects to the broker, waiting at most the connect timeout.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	if err := wait(ctx, token, p.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("mqtt: connect %s: %w", p.cfg.Broker, err)
	}

	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(500)
}

// Topic returns the topic values of the variable name are published to.
func (p *Publisher) Topic(name string) string {
	return strings.TrimSuffix(p.cfg.Topic, "/") + "/" + name
}

// Publish sends the value of s as a JSON Message.
func (p *Publisher) Publish(ctx context.Context, s poller.Sample) error {
	if !p.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	payload, err := EncodeMessage(s)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.Topic(s.Name), p.cfg.QoS, p.cfg.Retain, payload)
	if err := wait(ctx, token, p.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", s.Name, err)
	}

	p.logger.Debug("sample published", "name", s.Name, "topic", p.Topic(s.Name))

	return nil
}

// EncodeMessage encodes the value of s as the JSON payload of a Message.
//
// JSON has no NaN or infinity, so non-finite REAL and LREAL values are encoded as the
// strings "NaN", "+Inf" and "-Inf".
func EncodeMessage(s poller.Sample) ([]byte, error) {
	return json.Marshal(Message{
		Name:      s.Name,
		UID:       s.Variable.UID,
		Type:      s.Variable.Type.String(),
		Value:     jsonValue(s.Value),
		Timestamp: s.At.UTC().Format(time.RFC3339Nano),
	})
}

func jsonValue(v any) any {
	var f float64
	switch fv := v.(type) {
	case float32:
		f = float64(fv)
	case float64:
		f = fv
	default:
		return v
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	return v
}

func wait(ctx context.Context, token pahomqtt.Token, timeout time.Duration) error {
	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("timeout")
	}
}
