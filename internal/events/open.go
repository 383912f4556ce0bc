package events

import (
	"go.uber.org/zap"

	"github.com/basel-ax/imgworkshop/internal/config"
)

// Open builds a publisher from the configured sinks; none configured yields Noop
func Open(cfg config.EventsConfig, logger *zap.Logger) (Publisher, error) {
	var pubs Multi

	if cfg.SinkURL != "" {
		p, err := NewCloudEventsPublisher(cfg.SinkURL, cfg.Source)
		if err != nil {
			return nil, err
		}
		logger.Info("cloudevents sink enabled", zap.String("sink", cfg.SinkURL))
		pubs = append(pubs, p)
	}

	if cfg.AMQPURL != "" {
		p, err := NewRabbitMQPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			pubs.Close()
			return nil, err
		}
		logger.Info("rabbitmq sink enabled", zap.String("queue", cfg.AMQPQueue))
		pubs = append(pubs, p)
	}

	if len(pubs) == 0 {
		return Noop{}, nil
	}
	return pubs, nil
}
