package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/vitalvision/backend/internal/azure"
	"github.com/vitalvision/backend/internal/config"
	"github.com/vitalvision/backend/internal/notify"
	"go.uber.org/zap"
)

// dependencyCheck probes one external dependency
type dependencyCheck struct {
	name string
	run  func(ctx context.Context) error
}

// runChecks runs every check in order, reporting each on w, and fails when
// any check failed.
func runChecks(ctx context.Context, w io.Writer, timeout time.Duration, checks []dependencyCheck) error {
	failed := 0
	for _, c := range checks {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		err := c.run(cctx)
		cancel()

		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %-10s %v\n", c.name, err)
			continue
		}
		fmt.Fprintf(w, "ok   %-10s %s\n", c.name, time.Since(start).Round(time.Millisecond))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}

func dependencyChecks(cfg *config.Config, logger *zap.Logger) []dependencyCheck {
	return []dependencyCheck{
		{"database", func(ctx context.Context) error {
			pool, err := pgxpool.New(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			return pool.Ping(ctx)
		}},
		{"redis", func(ctx context.Context) error {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()
			return client.Ping(ctx).Err()
		}},
		{"mqtt", func(ctx context.Context) error {
			mqttCfg := cfg.MQTT
			mqttCfg.ClientID += "-check"
			client, err := notify.NewMQTTClient(mqttCfg, logger)
			if err != nil {
				return err
			}
			client.Disconnect()
			return nil
		}},
		{"openai", func(ctx context.Context) error {
			client, err := azure.NewOpenAIClient(cfg.Azure.OpenAI.Endpoint, cfg.Azure.OpenAI.APIKey, cfg.Azure.OpenAI.Deployment, logger)
			if err != nil {
				return err
			}
			reply, err := client.Prompt(ctx, "You are a connectivity probe.", "Reply with the word ok.")
			if err != nil {
				return err
			}
			if reply == "" {
				return errors.New("empty completion")
			}
			return nil
		}},
		{"speech", func(ctx context.Context) error {
			client, err := azure.NewSpeechServiceClient(cfg.Azure.Speech.SubscriptionKey, cfg.Azure.Speech.Region, cfg.Azure.Speech.Voice, logger)
			if err != nil {
				return err
			}
			audio, err := client.TextToSpeech(ctx, "Hora de tomar su medicamento.", cfg.Azure.Speech.Language)
			if err != nil {
				return err
			}
			if len(audio) == 0 {
				return errors.New("empty audio")
			}
			return nil
		}},
		{"storage", func(ctx context.Context) error {
			client, err := azure.NewBlobStorageClient(
				cfg.Azure.Storage.AccountName,
				cfg.Azure.Storage.AccountKey,
				cfg.Azure.Storage.ReportContainer,
				cfg.Azure.Storage.AnnouncementContainer,
				logger,
			)
			if err != nil {
				return err
			}
			payload := []byte("vitalctl check " + time.Now().UTC().Format(time.RFC3339))
			name, err := client.UploadReport(ctx, "vitalctl", "check.txt", "text/plain", payload)
			if err != nil {
				return err
			}
			got, err := client.DownloadReport(ctx, name)
			if err != nil {
				return err
			}
			if !bytes.Equal(got, payload) {
				return fmt.Errorf("downloaded %d bytes, uploaded %d", len(got), len(payload))
			}
			return nil
		}},
	}
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check connectivity to the database, Redis, MQTT and Azure services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.Server.Environment)
			if err != nil {
				return err
			}
			defer logger.Sync()

			timeout, _ := cmd.Flags().GetDuration("timeout")
			return runChecks(cmd.Context(), cmd.OutOrStdout(), timeout, dependencyChecks(cfg, logger))
		},
	}
	cmd.Flags().Duration("timeout", 30*time.Second, "Timeout of each check")
	return cmd
}
