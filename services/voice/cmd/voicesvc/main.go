package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"

	"atlas/agents/internal/config"
	"atlas/agents/internal/events"
	"atlas/agents/internal/httpx"
	"atlas/agents/services/voice"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if err := config.LoadDotEnv(); err != nil {
		klog.Fatal(err)
	}
	cfg, err := config.LoadVoice()
	if err != nil {
		klog.Fatal(err)
	}
	if cfg.OpenAIAPIKey == "" {
		klog.Warning("OPENAI_API_KEY not set; /session will return 500 until it is")
	}

	h, err := voice.NewHandler(voice.NewMinter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.SessionTimeout), cfg)
	if err != nil {
		klog.Fatal(err)
	}

	pub := events.New(cfg.Events, "voice")
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	klog.InfoS("voice sessions", "model", cfg.DefaultModel, "voice", cfg.DefaultVoice, "origins", cfg.AllowedOrigins)
	if err := httpx.Serve(ctx, "voicesvc", cfg.Port, voice.NewRouter(h, cfg, pub)); err != nil {
		klog.ErrorS(err, "server stopped")
		os.Exit(1)
	}
}
