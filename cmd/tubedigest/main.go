package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/hmorita/tubedigest/internal/config"
	"github.com/hmorita/tubedigest/internal/feed"
	"github.com/hmorita/tubedigest/internal/publisher"
	"github.com/hmorita/tubedigest/internal/retry"
	"github.com/hmorita/tubedigest/internal/runner"
	"github.com/hmorita/tubedigest/internal/summarize"
	"github.com/hmorita/tubedigest/internal/transcript"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run the digest once and exit")
	flag.Parse()

	// Optional; config values reference env vars via ${VAR} expansion.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Transcript.RequestsPerSecond), 1)
	transcripts, err := transcript.NewClient(
		cfg.Transcript.Provider,
		cfg.Transcript.BaseURL,
		cfg.Transcript.APIKey,
		retry.Config{
			MaxAttempts: cfg.Transcript.MaxAttempts,
			BaseDelay:   cfg.Transcript.BaseDelay(),
		},
		limiter,
	)
	if err != nil {
		log.Fatalf("Failed to build transcript client: %v", err)
	}

	summarizer, err := summarize.NewOpenAISummarizer(cfg.Summarizer.APIKey, cfg.Summarizer.Model)
	if err != nil {
		log.Fatalf("Failed to build summarizer: %v", err)
	}

	var pubs []publisher.Publisher
	var webPub *publisher.WebPublisher

	switch cfg.Publisher.Type {
	case "stdout":
		pubs = append(pubs, publisher.NewStdoutPublisher())
	case "email":
		pubs = append(pubs, publisher.NewEmailPublisher(
			cfg.Publisher.Email.SMTPHost,
			cfg.Publisher.Email.SMTPPort,
			cfg.Publisher.Email.Username,
			cfg.Publisher.Email.Password,
			cfg.Publisher.Email.From,
			cfg.Publisher.Email.To,
		))
	case "web":
		webPub = publisher.NewWebPublisher(cfg.Publisher.Web.Addr)
		pubs = append(pubs, webPub)
	case "discord":
		pubs = append(pubs, publisher.NewDiscordPublisher(cfg.Publisher.Discord.WebhookURL))
	default:
		log.Fatalf("Unknown publisher type: %s", cfg.Publisher.Type)
	}

	if webPub != nil {
		if err := webPub.Start(); err != nil {
			log.Fatalf("Failed to start web publisher: %v", err)
		}
	}

	r := runner.New(cfg, feed.NewResolver(), feed.NewLister(), transcripts, summarizer, pubs)

	if *once {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		log.Println("Running digest (once mode)...")
		if err := r.Run(ctx); err != nil {
			log.Fatalf("Digest run failed: %v", err)
		}
		log.Println("Done")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.RunOnStart {
		log.Println("Running initial digest...")
		if err := r.Run(ctx); err != nil {
			log.Printf("Initial run failed: %v", err)
		}
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Schedule, func() {
		log.Println("Cron triggered, running digest...")
		if err := r.Run(ctx); err != nil {
			log.Printf("Scheduled run failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to set up cron schedule %q: %v", cfg.Schedule, err)
	}
	c.Start()
	log.Printf("Scheduled digest with cron expression: %s", cfg.Schedule)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal %v, shutting down...", sig)

	cancel()
	c.Stop()

	if webPub != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := webPub.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web server shutdown error: %v", err)
		}
	}

	log.Println("Shutdown complete")
}
