package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ecocycle/config"
	"ecocycle/models"
	"ecocycle/services/notification"
	"ecocycle/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitNotifyWorker runs the async push-notification worker in background.
// Identity lives outside this service, so delivery targets per-recipient FCM
// topics ("collector-<id>", "customer-<id>", "admin-<id>") that clients
// subscribe to on login.
func InitNotifyWorker(fcm *messaging.Client) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypePushNotify, handlePushTask(fcm))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[NotifyWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[NotifyWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[NotifyWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handlePushTask(fcm *messaging.Client) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		var p models.PushPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid push payload", zap.Error(err))
			return err
		}

		msg := &messaging.Message{
			Topic: fmt.Sprintf("%s-%s", p.Role, p.RecipientID),
			Notification: &messaging.Notification{
				Title: p.Title,
				Body:  p.Body,
			},
			Data: p.Data,
		}

		if _, err := fcm.Send(ctx, msg); err != nil {
			logger.Warn("push delivery failed",
				zap.String("event", p.Event),
				zap.String("recipient", p.RecipientID),
				zap.Error(err),
			)
			return err
		}

		logger.Info("push delivered",
			zap.String("event", p.Event),
			zap.String("recipient", p.RecipientID),
		)
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[NotifyWorker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
