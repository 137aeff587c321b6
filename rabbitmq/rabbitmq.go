package rabbitmq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/plugins"
	"github.com/ziflex/lecho/v3"
)

//go:generate mockgen -destination=./mock_rabbitmq/rabbitmq.go -package=mock_rabbitmq github.com/unionhall/ledgerhub/rabbitmq AMQPClient,DomainEventHandler

// bufPool lets sequential publishes reuse one encode buffer.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

const (
	contentTypeJSON = "application/json"
)

// DomainEventHandler turns a domain event into charge plugin executions.
type DomainEventHandler interface {
	HandleDomainEvent(ctx context.Context, routingKey string, body []byte) ([]plugins.Notification, error)
}

type Client interface {
	// ConsumeDomainEvents blocks until ctx is done or the broker is gone for good.
	ConsumeDomainEvents(ctx context.Context, handler DomainEventHandler) error
	// Emit publishes a ledger event on the ledger exchange, routed by eventType.
	Emit(ctx context.Context, eventType string, payload interface{}) error
	// Close will close all connections to rabbitmq
	Close() error
}

type DefaultClient struct {
	amqpClient AMQPClient

	logger *lecho.Logger

	ledgerExchange          string
	domainExchange          string
	domainConsumerQueueName string

	declareOnce sync.Once
	declareErr  error
}

type ClientOption = func(client *DefaultClient)

func WithLedgerExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.ledgerExchange = exchange
	}
}

func WithDomainExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.domainExchange = exchange
	}
}

func WithDomainConsumerQueueName(name string) ClientOption {
	return func(client *DefaultClient) {
		client.domainConsumerQueueName = name
	}
}

func WithLogger(logger *lecho.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

func NewClient(amqpClient AMQPClient, options ...ClientOption) (Client, error) {
	client := &DefaultClient{
		amqpClient: amqpClient,

		logger: lecho.New(
			os.Stdout,
			lecho.WithLevel(log.DEBUG),
			lecho.WithTimestamp(),
		),

		ledgerExchange:          "ledger_events",
		domainExchange:          "domain_events",
		domainConsumerQueueName: "ledger_domain_consumer",
	}

	for _, opt := range options {
		opt(client)
	}
	if client.ledgerExchange == "" || client.domainExchange == "" {
		return nil, errors.New("rabbitmq: exchange names must not be empty")
	}

	return client, nil
}

func (client *DefaultClient) Close() error { return client.amqpClient.Close() }

// domainRoutingKeys are the events that fire charge plugins.
func domainRoutingKeys() []string {
	return []string{
		common.EventHoursSaved,
		common.EventDispatchAvailabilitySynced,
		common.EventWorkStatusChanged,
	}
}

func (client *DefaultClient) ConsumeDomainEvents(ctx context.Context, handler DomainEventHandler) error {
	deliveries, err := client.amqpClient.Listen(ctx, client.domainExchange, domainRoutingKeys(), client.domainConsumerQueueName)
	if err != nil {
		return err
	}

	client.logger.Infof("Starting domain event consumer on %s", client.domainConsumerQueueName)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq: disconnected from %s", client.domainExchange)
			}
			client.handleDelivery(ctx, handler, delivery)
		}
	}
}

func (client *DefaultClient) handleDelivery(ctx context.Context, handler DomainEventHandler, delivery amqp.Delivery) {
	notifications, err := handler.HandleDomainEvent(ctx, delivery.RoutingKey, delivery.Body)
	if err != nil {
		// a message that failed once fails again; do not requeue it
		client.captureErr(fmt.Errorf("rabbitmq: handling %s: %w", delivery.RoutingKey, err))
		if err := delivery.Nack(false, false); err != nil {
			client.captureErr(err)
		}
		return
	}

	for _, n := range notifications {
		client.logger.Debugf("%s %s: %s", delivery.RoutingKey, n.PluginID, n.Message)
	}
	if err := delivery.Ack(false); err != nil {
		client.captureErr(err)
	}
}

func (client *DefaultClient) declareLedgerExchange() error {
	client.declareOnce.Do(func() {
		client.declareErr = client.amqpClient.ExchangeDeclare(
			client.ledgerExchange,
			// topic: consumers filter on ledger.entry.* and friends
			"topic",
			// durable
			true,
			// auto-deleted
			false,
			// internal
			false,
			// no-wait
			false,
			// arguments
			nil,
		)
	})
	return client.declareErr
}

func (client *DefaultClient) Emit(ctx context.Context, eventType string, payload interface{}) error {
	if err := client.declareLedgerExchange(); err != nil {
		return err
	}

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return err
	}

	err := client.amqpClient.PublishWithContext(ctx,
		client.ledgerExchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			Body:         buf.Bytes(),
		},
	)
	if err != nil {
		client.captureErr(err)
		return err
	}

	client.logger.Debugf("Published %s to %s", eventType, client.ledgerExchange)
	return nil
}

func (client *DefaultClient) captureErr(err error) {
	client.logger.Error(err)
	sentry.CaptureException(err)
}
