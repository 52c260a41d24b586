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
	"atlas/agents/services/image"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if err := config.LoadDotEnv(); err != nil {
		klog.Fatal(err)
	}
	cfg, err := config.LoadImage()
	if err != nil {
		klog.Fatal(err)
	}
	if cfg.OpenAIAPIKey == "" {
		klog.Warning("OPENAI_API_KEY not set; /generate will fail until it is")
	}

	var gen image.Generator
	switch cfg.Backend {
	case config.BackendDirect:
		gen = image.NewDirectGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	default:
		client := responses.NewClient(cfg.OpenAIAPIKey, responses.WithBaseURL(cfg.OpenAIBaseURL))
		gen = image.NewAgentGenerator(agent.NewRunner(client), cfg.ControllerModel)
	}
	klog.InfoS("image generator ready", "backend", cfg.Backend, "controllerModel", cfg.ControllerModel)

	pub := events.New(cfg.Events, "image")
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := httpx.Serve(ctx, "imagesvc", cfg.Port, image.NewRouter(image.NewHandler(gen), pub)); err != nil {
		klog.ErrorS(err, "server stopped")
		os.Exit(1)
	}
}
