// FILE: lixenwraith/props/example/main.go
package main

import (
	"embed"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lixenwraith/props"
)

//go:embed conf
var confFS embed.FS

// AppConfig shows field tags, nested structures and containers.
type AppConfig struct {
	Name string `prop:"app.name" required:"true"`

	Server struct {
		Host   string         `prop:"host"`
		Port   int            `prop:"port"`
		Peers  []string       `prop:"peers"`
		Limits map[string]int `prop:"limits"`
		Wait   time.Duration  `prop:"wait" default:"5s"`
		Debug  bool           `prop:"debug" default:"false"`
	} `child:"server"`

	Data struct {
		Root  props.Path `prop:"root"`
		Cache props.Path `prop:"cache"`
	} `child:"data"`

	Features struct {
		RateLimit bool                `prop:"rate_limit"`
		Caching   bool                `prop:"caching"`
		Regions   map[string]struct{} `prop:"regions"`
	} `child:"features"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// PART 1: base settings from the embedded documents, dev context active
	var cfg AppConfig
	loader, err := props.NewBuilder().
		WithLogger(logger).
		WithFS(confFS, "").
		WithContext("dev").
		WithIncludes("include", "").
		WithResource(props.SourceFS, 1, "conf/app.properties").
		WithResource(props.SourceEnv, 2, "DEMO_").
		WithArgs(os.Args[1:]).
		BuildAndPopulate(&cfg)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	fmt.Printf("name=%s host=%s port=%d (dev variant)\n", cfg.Name, cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("peers=%v limits=%v wait=%s\n", cfg.Server.Peers, cfg.Server.Limits, cfg.Server.Wait)
	fmt.Printf("data root=%s cache=%s\n", cfg.Data.Root, cfg.Data.Cache)
	fmt.Printf("features rate_limit=%t caching=%t regions=%d\n",
		cfg.Features.RateLimit, cfg.Features.Caching, len(cfg.Features.Regions))

	// PART 2: a process override beats every resource
	props.SetOverride("server.port", "7070")
	defer props.ClearOverride("server.port")

	port, err := props.Value[int](loader, "server.port")
	if err != nil {
		log.Fatalf("failed to read port: %v", err)
	}
	fmt.Printf("port after override=%d\n", port)

	// PART 3: resolution errors name the key and wrap a sentinel
	if _, err := loader.Int64("app.name"); err != nil {
		fmt.Printf("expected failure: %v\n", err)
	}

	fmt.Print(loader.Debug())
}
