// Command viewer runs one of the three ledger viewers against a queue
// server: the ticket kiosk, the public display board, or the
// home-screen notifier.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/config"
	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/observability"
	"github.com/branchops/branch-queue/internal/syncclient"
	"github.com/branchops/branch-queue/internal/viewer"
)

func main() {
	mode := flag.String("mode", "display", "viewer mode: kiosk, display or notifier")
	branch := flag.String("branch", "BNI Harmoni", "branch label for drawn tickets")
	draw := flag.String("draw", "", "kiosk only: draw one ticket for this service and exit")
	statePath := flag.String("state", "data/my-ticket.json", "notifier only: remembered ticket file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := syncclient.NewBus()
	client := syncclient.New(syncclient.Config{
		BaseURL:      cfg.Sync.ServerURL,
		WSURL:        cfg.Sync.WSURL,
		PollInterval: cfg.Sync.PollInterval(),
		FetchTimeout: cfg.Sync.FetchTimeout(),
	}, logger, syncclient.WithBus(bus))

	switch *mode {
	case "kiosk":
		runKiosk(ctx, client, bus, *branch, *draw, logger)
	case "display":
		runDisplay(ctx, client, logger)
	case "notifier":
		runNotifier(ctx, client, *statePath, logger)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func runKiosk(ctx context.Context, client *syncclient.Client, bus *syncclient.Bus, branch, draw string, logger *zap.Logger) {
	kiosk := viewer.NewKiosk(client, bus, branch, logger)

	if draw != "" {
		// one-shot: fetch, draw, print the ticket
		if err := client.Refresh(ctx); err != nil {
			logger.Fatal("ledger unreachable", zap.Error(err))
		}
		ticket, err := kiosk.Draw(ctx, draw)
		if err != nil {
			logger.Fatal("draw failed", zap.Error(err))
		}
		fmt.Printf("%s  %s  %s\n", ticket.Number, ticket.Service, ticket.Branch)
		return
	}

	client.OnUpdate(func(syncclient.Snapshot) {
		printServiceBoard(kiosk)
	})
	client.Start(ctx)
	defer client.Stop()
	waitForInterrupt(logger)
}

func runDisplay(ctx context.Context, client *syncclient.Client, logger *zap.Logger) {
	display := viewer.NewDisplay(client, logger)
	client.OnUpdate(func(syncclient.Snapshot) {
		for _, row := range display.Board() {
			fmt.Printf("Loket %d  %-22s %s\n", row.Counter, row.Service, row.Number)
		}
		fmt.Println()
	})
	client.Start(ctx)
	defer client.Stop()
	waitForInterrupt(logger)
}

func runNotifier(ctx context.Context, client *syncclient.Client, statePath string, logger *zap.Logger) {
	notifier := viewer.NewNotifier(client, statePath, logger)
	notifier.OnAlert(func(a viewer.Alert) {
		fmt.Printf("*** %d remaining before %s, head to %s\n", a.Remaining, a.Number, a.Branch)
	})
	notifier.OnServed(func(t domain.Ticket) {
		fmt.Printf("*** %s has been called, ticket cleared\n", t.Number)
	})
	client.OnUpdate(func(syncclient.Snapshot) {
		if ticket, ok := notifier.Ticket(); ok {
			current, wait := notifier.Status()
			fmt.Printf("your ticket %s  now serving %s  ~%d min\n", ticket.Number, current, wait)
		}
	})
	client.Start(ctx)
	defer client.Stop()
	waitForInterrupt(logger)
}

func printServiceBoard(kiosk *viewer.Kiosk) {
	for _, row := range kiosk.Board() {
		fmt.Printf("%-22s active %s  estimated %s\n", row.Service, row.Active, row.Estimated)
	}
	fmt.Println()
}

func waitForInterrupt(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("viewer stopping", zap.String("signal", sig.String()))
}
