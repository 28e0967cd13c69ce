package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nithish2321/EntraceEase/internal/logger"
	"github.com/nithish2321/EntraceEase/internal/model"
)

// StatusRecorder writes the delivery outcome back onto the assignment.
type StatusRecorder interface {
	MarkEmailStatus(ctx context.Context, assignmentID string, status model.EmailStatus) error
}

// Consumer delivers hall tickets from the dispatch queue.  Delivery appends
// one line per ticket to LogDir/hall_ticket.log; the real mail transport is
// outside this service.
type Consumer struct {
	URL      string
	Queue    string
	LogDir   string
	Recorder StatusRecorder
	Log      logger.Logger

	mu sync.Mutex // serialises writes to the log file
}

// StartHallTicketConsumer runs the consume loop until ctx is cancelled,
// reconnecting with exponential backoff (capped at 30s).
func StartHallTicketConsumer(ctx context.Context, c *Consumer) error {
	if c.Queue == "" {
		c.Queue = HallTicketQueue
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
	if c.Log == nil {
		c.Log = logger.NewNop()
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("hall-ticket-consumer: failed to dial broker", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("hall-ticket-consumer: consume loop ended; reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("hall-ticket-consumer: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(ctx, d.Body); err != nil {
				c.Log.Error("hall-ticket-consumer: handle message failed", "error", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handleMessage delivers one ticket and records sent or failed.  Only a
// malformed payload or a failed status write is returned as an error.
func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var ev HallTicketDispatchEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.AssignmentID == "" {
		return errors.New("event without assignment id")
	}

	status := model.EmailSent
	if err := c.deliver(ev); err != nil {
		c.logger().Warn("hall-ticket-consumer: delivery failed", "assignment_id", ev.AssignmentID, "error", err)
		status = model.EmailFailed
	}
	if c.Recorder == nil {
		return nil
	}
	if err := c.Recorder.MarkEmailStatus(ctx, ev.AssignmentID, status); err != nil {
		return fmt.Errorf("record status of %s: %w", ev.AssignmentID, err)
	}
	return nil
}

func (c *Consumer) logger() logger.Logger {
	if c.Log == nil {
		return logger.NewNop()
	}
	return c.Log
}

func (c *Consumer) deliver(ev HallTicketDispatchEvent) error {
	if ev.Email == "" {
		return errors.New("no email address")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// Ensure logs directory exists
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join(c.LogDir, "hall_ticket.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Hall ticket sent | assignment_id=%s | student_id=%s | to=%s | regno=%s | exam=%q | center=%q | location=%q | date=%s | slot=%s\n",
		ev.RequestedAt, ev.AssignmentID, ev.StudentID, ev.Email, ev.Regno, ev.ExamName, ev.TestCenterName, ev.Location, ev.ExamDate, ev.Slot)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
