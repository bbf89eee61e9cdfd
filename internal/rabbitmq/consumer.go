package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/zuora-adapter/pkg/model"
)

// Consumer consumes billing commands from RabbitMQ
type Consumer struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	billing      BillingService
	refundQueue  string
	billRunQueue string
	logger       *zap.Logger
	done         chan struct{}
}

// BillingService defines the billing operations the consumer invokes
type BillingService interface {
	CreateRefund(ctx context.Context, req model.RefundRequest) (*model.RequestRecord, error)
	CreateBillRun(ctx context.Context, req model.BillRunRequest) (*model.RequestRecord, error)
}

// NewConsumer creates a new RabbitMQ consumer
func NewConsumer(url, refundQueue, billRunQueue string, billing BillingService, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &Consumer{
		conn:         conn,
		channel:      channel,
		billing:      billing,
		refundQueue:  refundQueue,
		billRunQueue: billRunQueue,
		logger:       logger,
		done:         make(chan struct{}),
	}, nil
}

// Start starts consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	if _, err := c.channel.QueueDeclare(c.refundQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", c.refundQueue, err)
	}

	if _, err := c.channel.QueueDeclare(c.billRunQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", c.billRunQueue, err)
	}

	refundMsgs, err := c.channel.Consume(c.refundQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", c.refundQueue, err)
	}

	billRunMsgs, err := c.channel.Consume(c.billRunQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", c.billRunQueue, err)
	}

	c.logger.Info("Started consuming from RabbitMQ",
		zap.String("refundQueue", c.refundQueue),
		zap.String("billRunQueue", c.billRunQueue),
	)

	go c.consumeRefunds(ctx, refundMsgs)
	go c.consumeBillRuns(ctx, billRunMsgs)

	return nil
}

func (c *Consumer) consumeRefunds(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("Refund command channel closed")
				return
			}

			c.logger.Debug("Received refund command", zap.String("body", string(msg.Body)))

			var req model.RefundRequest
			if err := json.Unmarshal(msg.Body, &req); err != nil {
				c.logger.Error("Failed to unmarshal RefundRequest", zap.Error(err))
				msg.Nack(false, false)
				continue
			}

			if _, err := c.billing.CreateRefund(ctx, req); err != nil {
				c.logger.Error("Failed to create refund", zap.Error(err))
				msg.Nack(false, true) // Requeue on failure
				continue
			}

			msg.Ack(false)
		}
	}
}

func (c *Consumer) consumeBillRuns(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("Bill run command channel closed")
				return
			}

			c.logger.Debug("Received bill run command", zap.String("body", string(msg.Body)))

			var req model.BillRunRequest
			if err := json.Unmarshal(msg.Body, &req); err != nil {
				c.logger.Error("Failed to unmarshal BillRunRequest", zap.Error(err))
				msg.Nack(false, false)
				continue
			}

			if _, err := c.billing.CreateBillRun(ctx, req); err != nil {
				c.logger.Error("Failed to create bill run", zap.Error(err))
				msg.Nack(false, true) // Requeue on failure
				continue
			}

			msg.Ack(false)
		}
	}
}

// Close closes the consumer
func (c *Consumer) Close() error {
	close(c.done)

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
