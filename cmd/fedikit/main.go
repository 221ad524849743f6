// Copyright 2024-2026 Aiku AI

// Command fedikit is a terminal front-end for the engine: it verifies
// credentials, prints timelines and follows live streams against either
// supported server dialect.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/fedikit/pkg/fedi"
	"github.com/aiku/fedikit/pkg/fedi/emoji"
	"github.com/aiku/fedikit/pkg/fedi/timeline"
	"github.com/aiku/fedikit/pkg/mastodon"
	"github.com/aiku/fedikit/pkg/misskey"
	"github.com/aiku/fedikit/pkg/streaming"
)

func main() {
	configPath := flag.String("config", "fedikit.yaml", "path to the config file")
	kindFlag := flag.String("timeline", "home", "timeline kind: home, local, federated, notifications")
	limitFlag := flag.Int("limit", 20, "page size")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}).
		Level(level).
		With().Timestamp().Logger()

	acct, err := cfg.selectAccount()
	if err != nil {
		log.Fatal().Err(err).Msg("No usable account")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	client := fedi.NewClient(
		mastodon.New(httpClient, log),
		misskey.New(httpClient, log),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emojiCache, err := emoji.NewCache(16)
	if err != nil {
		log.Fatal().Err(err).Msg("Emoji cache init failed")
	}
	acct.Emojis, err = emojiCache.Ensure(ctx, acct.Endpoint, func(ctx context.Context) ([]fedi.CustomEmoji, error) {
		return client.CustomEmojis(ctx, acct)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Emoji catalog unavailable")
	}

	command := flag.Arg(0)
	if command == "" {
		command = "timeline"
	}

	switch command {
	case "verify":
		err = runVerify(ctx, client, acct, log)
	case "timeline":
		err = runTimeline(ctx, client, acct, fedi.TimelineKind(*kindFlag), *limitFlag)
	case "stream":
		err = runStream(ctx, client, acct, fedi.TimelineKind(*kindFlag), log)
	default:
		err = fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Command failed")
	}
}

func runVerify(ctx context.Context, client *fedi.Client, acct *fedi.Account, log zerolog.Logger) error {
	if err := client.VerifyCredentials(ctx, acct); err != nil {
		return err
	}
	info, err := client.InstanceInfo(ctx, acct)
	if err != nil {
		return err
	}
	log.Info().
		Str("handle", acct.Handle).
		Str("server", info.Name).
		Str("version", info.Version).
		Msg("Credentials verified")
	fmt.Printf("%s @ %s (%s)\n", acct.Handle, info.Name, info.Version)
	return nil
}

func runTimeline(ctx context.Context, client *fedi.Client, acct *fedi.Account, kind fedi.TimelineKind, limit int) error {
	statuses, err := client.Timeline(ctx, acct, kind, limit, "")
	if err != nil {
		return err
	}
	for _, st := range statuses {
		printStatus(st)
	}
	return nil
}

func runStream(ctx context.Context, client *fedi.Client, acct *fedi.Account, kind fedi.TimelineKind, log zerolog.Logger) error {
	feed := timeline.NewFeed()
	machine := streaming.New(
		client.For(acct).Subscriber(acct, kind),
		func(evt fedi.StreamingEvent) {
			feed.Apply(evt)
			switch evt.Kind {
			case fedi.EventUpdate, fedi.EventNotify:
				if evt.Status != nil {
					printStatus(evt.Status)
				}
			case fedi.EventDelete:
				fmt.Printf("[deleted %s]\n", evt.DeleteID)
			}
		},
		log,
	)
	machine.Start()
	<-ctx.Done()
	machine.Stop()
	return nil
}

func printStatus(st *fedi.Status) {
	author := st.Author.DisplayName
	if author == "" {
		author = st.Author.Handle
	}
	body := st.Content
	if st.Notification != nil {
		body = st.Notification.Label
		if st.Content != "" {
			body += ": " + st.Content
		}
		if st.Notification.Target != nil {
			body += " | " + st.Notification.Target.Content
		}
	} else if st.Reblog != nil {
		body = fmt.Sprintf("boosted %s: %s", st.Reblog.Author.Handle, st.Reblog.Content)
	}
	fmt.Printf("%s <%s> %s\n", st.CreatedAt.Format("15:04"), author, body)
}
