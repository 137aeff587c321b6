package service

import (
	"fmt"
	"strings"
)

type Config struct {
	DatabaseUri                     string  `envconfig:"DATABASE_URI" required:"true"`
	DatabaseMaxConns                int     `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns            int     `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime         int     `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	DatabaseTimeout                 int     `envconfig:"DATABASE_TIMEOUT" default:"60"`             // 60 seconds
	SentryDSN                       string  `envconfig:"SENTRY_DSN"`
	SentryTracesSampleRate          float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	DatadogAgentUrl                 string  `envconfig:"DATADOG_AGENT_URL"`
	LogFilePath                     string  `envconfig:"LOG_FILE_PATH"`
	LogLevel                        string  `envconfig:"LOG_LEVEL" default:"info"`
	Port                            int     `envconfig:"PORT" default:"3000"`
	DefaultRateLimit                int     `envconfig:"DEFAULT_RATE_LIMIT" default:"10"`
	StrictRateLimit                 int     `envconfig:"STRICT_RATE_LIMIT" default:"10"`
	BurstRateLimit                  int     `envconfig:"BURST_RATE_LIMIT" default:"1"`
	EnablePrometheus                bool    `envconfig:"ENABLE_PROMETHEUS" default:"false"`
	PrometheusPort                  int     `envconfig:"PROMETHEUS_PORT" default:"9092"`
	EnableChargePlugins             bool    `envconfig:"ENABLE_CHARGE_PLUGINS" default:"true"`
	DefaultParticipantsLimit        int     `envconfig:"DEFAULT_PARTICIPANTS_LIMIT" default:"50"`
	MaxParticipantsLimit            int     `envconfig:"MAX_PARTICIPANTS_LIMIT" default:"500"`
	RabbitMQUri                     string  `envconfig:"RABBITMQ_URI"`
	RabbitMQLedgerExchange          string  `envconfig:"RABBITMQ_LEDGER_EXCHANGE" default:"ledger_events"`
	RabbitMQDomainExchange          string  `envconfig:"RABBITMQ_DOMAIN_EXCHANGE" default:"domain_events"`
	RabbitMQDomainConsumerQueueName string  `envconfig:"RABBITMQ_DOMAIN_CONSUMER_QUEUE_NAME" default:"ledger_domain_consumer"`
	KafkaBrokers                    Brokers `envconfig:"KAFKA_BROKERS"`
	KafkaTopic                      string  `envconfig:"KAFKA_TOPIC" default:"ledger_events"`
}

// Brokers decodes a comma separated host:port list.
type Brokers []string

func (b *Brokers) Decode(value string) error {
	list := []string{}
	for _, broker := range strings.Split(value, ",") {
		broker = strings.TrimSpace(broker)
		if broker == "" {
			continue
		}
		if !strings.Contains(broker, ":") {
			return fmt.Errorf("invalid broker address %q, expected host:port", broker)
		}
		list = append(list, broker)
	}
	*b = list
	return nil
}
