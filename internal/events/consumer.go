package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/exam-platform/grading-service/internal/services"
)

// NewKafkaSubscriber creates a consumer-group subscriber for submission events.
func NewKafkaSubscriber(brokers []string, consumerGroup string, wmLogger watermill.LoggerAdapter) (message.Subscriber, error) {
	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:       brokers,
			Unmarshaler:   kafka.DefaultMarshaler{},
			ConsumerGroup: consumerGroup,
		},
		wmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}
	return subscriber, nil
}

// Consumer routes submission events into the grading service. The broker
// delivers at least once; a handler error nacks the message so it is
// redelivered, and the grading service's claim makes redelivery harmless.
type Consumer struct {
	router *message.Router
	logger *slog.Logger
}

func NewConsumer(subscriber message.Subscriber, topic string, grading services.GradingService, logger *slog.Logger, wmLogger watermill.LoggerAdapter) (*Consumer, error) {
	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}

	handler := &submissionHandler{
		grading: grading,
		logger:  logger,
	}

	router.AddNoPublisherHandler(
		"grade_submission",
		topic,
		subscriber,
		handler.Handle,
	)

	return &Consumer{
		router: router,
		logger: logger,
	}, nil
}

// Run blocks until ctx is cancelled or the router fails.
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running closes when the router has started all handlers.
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

func (c *Consumer) Close() error {
	return c.router.Close()
}

type submissionHandler struct {
	grading services.GradingService
	logger  *slog.Logger
}

// Handle processes one submission message. A malformed payload is logged and
// acked: redelivering it can never succeed.
func (h *submissionHandler) Handle(msg *message.Message) error {
	var event services.SubmissionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Error("Dropping malformed submission message",
			"message_uuid", msg.UUID,
			"error", err)
		return nil
	}

	result, err := h.grading.GradeSubmission(msg.Context(), &event)
	if err != nil {
		h.logger.Error("Failed to grade submission, message will be redelivered",
			"message_uuid", msg.UUID,
			"student_id", event.StudentID,
			"page_id", event.PageID,
			"error", err)
		return err
	}

	if result.Duplicate {
		h.logger.Info("Duplicate submission delivery acknowledged",
			"message_uuid", msg.UUID,
			"student_id", event.StudentID,
			"page_id", event.PageID)
	}
	return nil
}
