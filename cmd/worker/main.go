package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/roamerhq/roamer-api/config"
	"github.com/roamerhq/roamer-api/internal/storage"
	"github.com/roamerhq/roamer-api/pkg/helpers"
	"github.com/roamerhq/roamer-api/pkg/mailer"
)

// The worker drains the shared job queue: welcome emails after signup and
// artifact-sweep retries for files the API failed to delete in-request.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.RabbitMQURL == "" || cfg.RabbitMQJobQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	if _, err := ch.QueueDeclare(cfg.RabbitMQJobQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQJobQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	var mg *mailer.Mailgun
	if cfg.MailSendEnabled && cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" && cfg.MailgunSender != "" {
		mg = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	} else {
		log.Println("mailgun not configured; welcome emails will be dropped")
	}

	var store storage.ArtifactStore
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(context.Background(), cfg.GCSCredsJSON)
		if err != nil {
			log.Fatalf("gcs client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		store = storage.NewGCSStore(gcsClient, cfg.GCSBucket)
	} else {
		local, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			log.Fatalf("upload dir: %v", err)
		}
		store = local
	}

	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var job mailer.Job
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				log.Printf("bad message: %v", err)
				_ = msg.Nack(false, false)
				continue
			}

			switch job.Kind {
			case mailer.KindWelcomeEmail:
				if mg == nil {
					_ = msg.Ack(false)
					continue
				}
				subject := "Welcome to Roamer"
				text := fmt.Sprintf("Hi %s,\n\nYour account is ready. Start adding the places you love.\n", job.Name)
				c, cancel := context.WithTimeout(ctx, 15*time.Second)
				err := mg.Send(c, job.To, subject, text, "")
				cancel()
				if err != nil {
					log.Printf("welcome email to %s failed: %v", job.To, err)
					_ = msg.Nack(false, true)
					continue
				}
				_ = msg.Ack(false)

			case mailer.KindArtifactSweep:
				if err := store.Release(ctx, job.Artifact); err != nil && !os.IsNotExist(err) {
					log.Printf("sweep of %s failed: %v", job.Artifact, err)
					_ = msg.Nack(false, true)
					continue
				}
				_ = msg.Ack(false)

			default:
				log.Printf("unknown job kind %q", job.Kind)
				_ = msg.Nack(false, false)
			}
		}
		close(done)
	}()

	log.Printf("worker listening on queue=%s", cfg.RabbitMQJobQueue)
	<-stop
	log.Printf("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
