package processing

import (
	"context"
	"fmt"
	"strings"

	"docdash-backend/internal/shared/config"
	"docdash-backend/internal/shared/telemetry"
)

// NewNotifier builds the notifier selected by cfg.Notifier.
func NewNotifier(ctx context.Context, cfg config.ProcessingConfig, awsRegion string) (Notifier, error) {
	switch cfg.Notifier {
	case "", "http":
		if strings.TrimSpace(cfg.ServiceURL) == "" {
			telemetry.Warn("processing.notifier_disabled", map[string]any{
				"detail": "PROCESSING_SERVICE_URL empty; processing notifications are dropped",
			})
			return NopNotifier{}, nil
		}
		return NewHTTPNotifier(ctx, HTTPConfig{
			BaseURL:      cfg.ServiceURL,
			Timeout:      cfg.Timeout,
			TokenURL:     cfg.TokenURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		})
	case "sqs":
		return NewSQSNotifier(ctx, awsRegion, cfg.SQSQueueURL)
	case "amqp":
		return NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPQueue)
	case "none":
		return NopNotifier{}, nil
	default:
		return nil, fmt.Errorf("unknown processing notifier %q", cfg.Notifier)
	}
}
