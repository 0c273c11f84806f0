// Package main starts the restaurant ordering bot and handles termination.
//
// The process serves the chat gateway endpoint; the chat platform itself is
// reached through whatever gateway posts updates to it.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	botcmd "github.com/louisbranch/restobot/internal/cmd/bot"
	entrypoint "github.com/louisbranch/restobot/internal/platform/cmd"
	"github.com/louisbranch/restobot/internal/platform/config"
)

func main() {
	cfg, err := botcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("restobot: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceBot))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := botcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
