package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fastbb/config"
	"github.com/oksasatya/fastbb/pkg/helpers"
	"github.com/oksasatya/fastbb/pkg/mailer"
)

// errPermanent marks jobs that will never succeed and must not be requeued.
var errPermanent = errors.New("permanent job failure")

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQEmailQueue, true, false, false, false, nil); err != nil {
		logger.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			err := handle(ctx, mg, msg.Body)
			log := logger.WithFields(logrus.Fields{"message_id": msg.MessageId, "redelivered": msg.Redelivered})
			switch {
			case err == nil:
				log.Debug("email sent")
				_ = msg.Ack(false)
			case errors.Is(err, errPermanent):
				log.WithError(err).Warn("dropping email job")
				_ = msg.Nack(false, false)
			default:
				log.WithError(err).Warn("send failed; requeueing")
				_ = msg.Nack(false, true)
			}
		}
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	<-stop
	logger.Info("shutting down...")
	cancel()
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// handle decodes and delivers one job. Jobs that can never be sent wrap
// errPermanent; delivery errors are worth retrying.
func handle(ctx context.Context, s mailer.Sender, body []byte) error {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return errors.Join(errPermanent, err)
	}
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	err := mailer.Deliver(c, s, job)
	if errors.Is(err, mailer.ErrEmptyJob) || errors.Is(err, mailer.ErrRender) {
		return errors.Join(errPermanent, err)
	}
	return err
}
