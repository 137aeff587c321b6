package rabbitmq_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/plugins"
	"github.com/unionhall/ledgerhub/rabbitmq"
	"github.com/unionhall/ledgerhub/rabbitmq/mock_rabbitmq"
)

type ackRecorder struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []uint64
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestConsumeDomainEvents(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	handler := mock_rabbitmq.NewMockDomainEventHandler(ctrl)

	client, err := rabbitmq.NewClient(amqpClient,
		rabbitmq.WithDomainExchange("domain"),
		rabbitmq.WithDomainConsumerQueueName("ledger_test"),
	)
	require.NoError(t, err)

	ch := make(chan amqp.Delivery, 2)
	amqpClient.EXPECT().
		Listen(gomock.Any(), gomock.Eq("domain"), gomock.Any(), gomock.Eq("ledger_test")).
		Times(1).
		DoAndReturn(func(ctx context.Context, exchange string, keys []string, queue string, opts ...rabbitmq.AMQPListenOptions) (<-chan amqp.Delivery, error) {
			assert.ElementsMatch(t, []string{
				common.EventHoursSaved,
				common.EventDispatchAvailabilitySynced,
				common.EventWorkStatusChanged,
			}, keys)
			return ch, nil
		})

	good := []byte(`{"hoursId":"h1"}`)
	bad := []byte(`{`)

	handler.EXPECT().
		HandleDomainEvent(gomock.Any(), gomock.Eq(common.EventHoursSaved), gomock.Eq(good)).
		Times(1).
		Return([]plugins.Notification{{PluginID: "hour_rate", Message: "charged"}}, nil)
	handler.EXPECT().
		HandleDomainEvent(gomock.Any(), gomock.Eq(common.EventWorkStatusChanged), gomock.Eq(bad)).
		Times(1).
		Return(nil, errors.New("unexpected end of JSON input"))

	acks := &ackRecorder{}
	ch <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, RoutingKey: common.EventHoursSaved, Body: good}
	ch <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, RoutingKey: common.EventWorkStatusChanged, Body: bad}
	close(ch)

	err = client.ConsumeDomainEvents(context.Background(), handler)
	assert.Error(t, err)

	assert.Equal(t, []uint64{1}, acks.acked)
	assert.Equal(t, []uint64{2}, acks.nacked)
}

func TestConsumeDomainEventsListenError(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	handler := mock_rabbitmq.NewMockDomainEventHandler(ctrl)

	client, err := rabbitmq.NewClient(amqpClient)
	require.NoError(t, err)

	amqpClient.EXPECT().
		Listen(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("channel closed"))

	assert.EqualError(t, client.ConsumeDomainEvents(context.Background(), handler), "channel closed")
}

func TestConsumeDomainEventsStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	handler := mock_rabbitmq.NewMockDomainEventHandler(ctrl)

	client, err := rabbitmq.NewClient(amqpClient)
	require.NoError(t, err)

	ch := make(chan amqp.Delivery)
	amqpClient.EXPECT().
		Listen(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return((<-chan amqp.Delivery)(ch), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, client.ConsumeDomainEvents(ctx, handler), context.Canceled)
}

func TestEmitPublishesLedgerEvent(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	client, err := rabbitmq.NewClient(amqpClient, rabbitmq.WithLedgerExchange("ledger"))
	require.NoError(t, err)

	amqpClient.EXPECT().
		ExchangeDeclare(gomock.Eq("ledger"), gomock.Eq("topic"), true, false, false, false, gomock.Nil()).
		Times(1).
		Return(nil)

	var bodies [][]byte
	amqpClient.EXPECT().
		PublishWithContext(gomock.Any(), gomock.Eq("ledger"), gomock.Eq(common.EventLedgerEntryChanged), false, false, gomock.Any()).
		Times(2).
		DoAndReturn(func(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
			assert.Equal(t, "application/json", msg.ContentType)
			bodies = append(bodies, append([]byte(nil), msg.Body...))
			return nil
		})

	ctx := context.Background()
	require.NoError(t, client.Emit(ctx, common.EventLedgerEntryChanged, map[string]interface{}{"entryId": "e1", "amount": 5800}))
	require.NoError(t, client.Emit(ctx, common.EventLedgerEntryChanged, map[string]interface{}{"entryId": "e2", "amount": -2900}))

	require.Len(t, bodies, 2)
	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(bodies[0], &first))
	assert.Equal(t, "e1", first["entryId"])
	assert.EqualValues(t, 5800, first["amount"])
}

func TestEmitReturnsPublishError(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	amqpClient := mock_rabbitmq.NewMockAMQPClient(ctrl)
	client, err := rabbitmq.NewClient(amqpClient)
	require.NoError(t, err)

	amqpClient.EXPECT().ExchangeDeclare(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	amqpClient.EXPECT().
		PublishWithContext(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("broker gone"))

	assert.EqualError(t, client.Emit(context.Background(), "ledger.entry.changed", struct{}{}), "broker gone")
}
