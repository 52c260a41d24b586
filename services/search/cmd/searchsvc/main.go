package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"

	"atlas/agents/internal/agent"
	"atlas/agents/internal/config"
	"atlas/agents/internal/events"
	"atlas/agents/internal/httpx"
	"atlas/agents/internal/responses"
	"atlas/agents/services/search"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if err := config.LoadDotEnv(); err != nil {
		klog.Fatal(err)
	}
	cfg, err := config.LoadSearch()
	if err != nil {
		klog.Fatal(err)
	}
	if cfg.OpenAIAPIKey == "" {
		klog.Warning("OPENAI_API_KEY not set; /search will fail until it is")
	}

	runner := agent.NewRunner(responses.NewClient(cfg.OpenAIAPIKey, responses.WithBaseURL(cfg.OpenAIBaseURL)))

	pub := events.New(cfg.Events, "search")
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := httpx.Serve(ctx, "searchsvc", cfg.Port, search.NewRouter(search.NewHandler(runner, cfg.AgentModel), pub)); err != nil {
		klog.ErrorS(err, "server stopped")
		os.Exit(1)
	}
}
