// SPDX-License-Identifier: MIT

// playctl-probe classifies a list of candidate media sources without
// starting playback: for each URI it reports whether a player should
// stream it or hand it to the browser as a download.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/MWieland/playctl/internal/classify"
	"github.com/MWieland/playctl/internal/config"
	"github.com/MWieland/playctl/internal/engine"
	"github.com/MWieland/playctl/internal/log"
	"github.com/MWieland/playctl/internal/source"
)

var (
	sourcesFlag     = flag.String("sources", "", "YAML file with a list of source descriptors")
	timeoutFlag     = flag.Duration("timeout", 0, "Per-probe timeout (default: PLAYCTL_PROBE_TIMEOUT or 5s)")
	concurrencyFlag = flag.Int("concurrency", 4, "Number of concurrent probes")
	jsonFlag        = flag.Bool("json", false, "Emit the report as JSON instead of text")
)

type Verdict struct {
	URI         string `json:"uri"`
	Label       string `json:"label,omitempty"`
	Streamable  bool   `json:"streamable"`
	ContentType string `json:"content_type,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Engine      string `json:"engine,omitempty"`
	LatencyMs   int64  `json:"latency_ms"`
}

type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Verdicts  []Verdict `json:"verdicts"`
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Configure(log.Config{Level: cfg.LogLevel, Service: "playctl-probe"})
	logger := log.WithComponent("probe-cli")

	sources, err := loadSources()
	if err != nil {
		return err
	}
	if err := sources.Validate(); err != nil {
		return err
	}

	timeout := cfg.ProbeTimeout
	if *timeoutFlag > 0 {
		timeout = *timeoutFlag
	}
	classifier := classify.New(classify.WithTimeout(timeout))

	logger.Info().
		Int("sources", len(sources)).
		Dur("timeout", timeout).
		Msg("probing sources")

	report := Report{
		Timestamp: time.Now(),
		Verdicts:  make([]Verdict, len(sources)),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*concurrencyFlag)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			start := time.Now()
			res := classifier.Classify(ctx, src.URI, src.Headers)
			v := Verdict{
				URI:         src.URI,
				Label:       src.Label,
				Streamable:  res.Streamable,
				ContentType: res.ContentType,
				Reason:      res.Reason,
				LatencyMs:   time.Since(start).Milliseconds(),
			}
			if res.Streamable {
				out := engine.Select(engine.Input{
					URI:             src.URI,
					MediaType:       src.MediaType,
					ClientAvailable: true,
				})
				v.Engine = string(out.Kind)
			}
			mu.Lock()
			report.Verdicts[i] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	downloads := 0
	for _, v := range report.Verdicts {
		if v.Streamable {
			fmt.Printf("STREAM   %-9s %4dms  %s\n", v.Engine, v.LatencyMs, v.URI)
			continue
		}
		downloads++
		fmt.Printf("DOWNLOAD %-9s %4dms  %s\n", v.ContentType, v.LatencyMs, v.URI)
	}
	fmt.Printf("%d sources, %d download-only\n", len(report.Verdicts), downloads)
	return nil
}

// loadSources reads the descriptor list from -sources, or builds one
// from positional URI arguments.
func loadSources() (source.List, error) {
	if *sourcesFlag != "" {
		data, err := os.ReadFile(*sourcesFlag)
		if err != nil {
			return nil, fmt.Errorf("read sources: %w", err)
		}
		var list source.List
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parse sources: %w", err)
		}
		return list, nil
	}

	args := flag.Args()
	if len(args) == 0 {
		return nil, fmt.Errorf("no sources: pass -sources file.yaml or URIs as arguments")
	}
	list := make(source.List, 0, len(args))
	for _, uri := range args {
		list = append(list, source.Descriptor{URI: uri})
	}
	return list, nil
}
