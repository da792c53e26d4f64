// Command preview_compare previews each target series, extends it with the same payload and reports
// every date whose extension outcome differs from the preview.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jdu211171/schedule-website-sub003/internal/dto"
)

type target struct {
	SeriesID string                  `json:"seriesId"`
	Request  dto.ExtendSeriesRequest `json:"request"`
	Critical bool                    `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type envelope struct {
	Data  *dto.ExtendSeriesResponse `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type comparison struct {
	Target          target
	PreviewStatus   int
	ExtendStatus    int
	Diffs           []string
	Error           error
	DurationPreview time.Duration
	DurationExtend  time.Duration
}

func main() {
	var (
		base        string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "preview_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range targets {
		comp := compareTarget(client, base, t)
		if comp.Error != nil || len(comp.Diffs) > 0 {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, base string, tgt target) comparison {
	comp := comparison{Target: tgt}

	preview, status, dur, err := post(client, base, tgt, "preview")
	comp.PreviewStatus, comp.DurationPreview = status, dur
	if err != nil {
		comp.Error = fmt.Errorf("preview failed: %w", err)
		return comp
	}
	extended, status, dur, err := post(client, base, tgt, "extend")
	comp.ExtendStatus, comp.DurationExtend = status, dur
	if err != nil {
		comp.Error = fmt.Errorf("extend failed: %w", err)
		return comp
	}

	comp.Diffs = diffOutcomes(preview, extended)
	return comp
}

func post(client *http.Client, base string, tgt target, action string) (*dto.ExtendSeriesResponse, int, time.Duration, error) {
	payload, err := json.Marshal(tgt.Request)
	if err != nil {
		return nil, 0, 0, err
	}
	url := fmt.Sprintf("%s/class-series/%s/%s", strings.TrimRight(base, "/"), tgt.SeriesID, action)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()
	elapsed := time.Since(start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, elapsed, fmt.Errorf("read body: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, resp.StatusCode, elapsed, fmt.Errorf("decode body: %w", err)
	}
	if env.Error != nil {
		return nil, resp.StatusCode, elapsed, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	if env.Data == nil {
		return nil, resp.StatusCode, elapsed, fmt.Errorf("empty response")
	}
	return env.Data, resp.StatusCode, elapsed, nil
}

// diffOutcomes compares per-date results. Session ids are ignored since previews have none.
func diffOutcomes(preview, extended *dto.ExtendSeriesResponse) []string {
	var diffs []string
	if preview.From != extended.From || preview.To != extended.To {
		diffs = append(diffs, fmt.Sprintf("window %s..%s vs %s..%s", preview.From, preview.To, extended.From, extended.To))
	}

	byDate := make(map[string]dto.OccurrenceOutcome, len(preview.Occurrences))
	for _, o := range preview.Occurrences {
		byDate[o.Date] = o
	}
	for _, o := range extended.Occurrences {
		p, ok := byDate[o.Date]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("%s created but not previewed", o.Date))
			continue
		}
		delete(byDate, o.Date)
		if p.Status != o.Status || p.Cancelled != o.Cancelled || p.StartTime != o.StartTime || p.EndTime != o.EndTime {
			diffs = append(diffs, fmt.Sprintf("%s previewed %s/%t at %s-%s, extended %s/%t at %s-%s",
				o.Date, p.Status, p.Cancelled, p.StartTime, p.EndTime, o.Status, o.Cancelled, o.StartTime, o.EndTime))
		}
	}
	for date := range byDate {
		diffs = append(diffs, fmt.Sprintf("%s previewed but not created", date))
	}
	return diffs
}

func printReport(results []comparison) {
	fmt.Println("Preview Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if len(res.Diffs) > 0 {
			status = "DIFF"
		}
		fmt.Printf("[%s] series %s\n", status, res.Target.SeriesID)
		fmt.Printf("  Preview Status: %d (%s)\n", res.PreviewStatus, res.DurationPreview)
		fmt.Printf("  Extend Status: %d (%s)\n", res.ExtendStatus, res.DurationExtend)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		for _, d := range res.Diffs {
			fmt.Printf("  - %s\n", d)
		}
	}
}
