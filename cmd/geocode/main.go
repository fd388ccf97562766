// Command geocode performs a single forward or reverse geocoding lookup
// against the configured upstream API and prints the resolved places.
//
// Usage:
//
//	go run ./cmd/geocode -token $MAPBOX_TOKEN "2200 Main St Austin TX"
//	go run ./cmd/geocode -reverse 30.2672,-97.7431
//	go run ./cmd/geocode -proximity -97.74,30.26 -json coffee
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coastalmesh/geocode-gateway/internal/adapter/mapbox"
	"github.com/coastalmesh/geocode-gateway/internal/config"
	"github.com/coastalmesh/geocode-gateway/internal/domain"
	"github.com/coastalmesh/geocode-gateway/internal/observability"
)

func main() {
	token := flag.String("token", os.Getenv("MAPBOX_TOKEN"), "upstream API access token (defaults to MAPBOX_TOKEN)")
	dataset := flag.String("dataset", "mapbox.places", "upstream dataset to query")
	baseURL := flag.String("base-url", "https://api.tiles.mapbox.com/v4", "upstream API base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "upstream request timeout")
	reverse := flag.String("reverse", "", "reverse geocode a \"lat,lon\" coordinate instead of a query")
	proximity := flag.String("proximity", "", "bias forward results toward a \"lon,lat\" coordinate")
	jsonOut := flag.Bool("json", false, "print results as JSON")
	flag.Parse()

	if code := run(*token, *dataset, *baseURL, *timeout, *reverse, *proximity, *jsonOut, flag.Args()); code != 0 {
		os.Exit(code)
	}
}

func run(token, dataset, baseURL string, timeout time.Duration, reverse, proximity string, jsonOut bool, args []string) int {
	if token == "" {
		fmt.Fprintln(os.Stderr, "FATAL: access token required (-token or MAPBOX_TOKEN)")
		return 1
	}
	if reverse == "" && len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: geocode [flags] <query>  |  geocode -reverse lat,lon")
		flag.Usage()
		return 1
	}

	cfg := &config.Config{
		MapboxToken:   token,
		MapboxDataset: dataset,
		MapboxBaseURL: baseURL,
		MapboxTimeout: timeout,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := mapbox.NewClient(cfg, observability.NewMetrics(), logger)

	type outcome struct {
		places []domain.PlaceRecord
		err    error
	}
	done := make(chan outcome, 1)
	complete := func(places []domain.PlaceRecord, err error) {
		done <- outcome{places: places, err: err}
	}

	if reverse != "" {
		coord, err := parseCoord(reverse, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: invalid -reverse coordinate: %v\n", err)
			return 1
		}
		client.ReverseGeocode(coord, complete)
	} else {
		var prox *domain.Coordinate
		if proximity != "" {
			coord, err := parseCoord(proximity, true)
			if err != nil {
				fmt.Fprintf(os.Stderr, "FATAL: invalid -proximity coordinate: %v\n", err)
				return 1
			}
			prox = &coord
		}
		client.ForwardGeocode(args[0], prox, complete)
	}

	out := <-done
	if out.err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", out.err)
		return 1
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out.places); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: encode results: %v\n", err)
			return 1
		}
		return 0
	}

	if len(out.places) == 0 {
		fmt.Println("no results")
		return 0
	}
	for _, p := range out.places {
		fmt.Printf("%s\t%s\n", p.Name(), p.Coordinate().String())
	}
	return 0
}

// parseCoord parses a comma-separated coordinate pair. Reverse lookups take
// "lat,lon"; proximity bias takes "lon,lat" to match the upstream query form.
func parseCoord(s string, lonFirst bool) (domain.Coordinate, error) {
	first, second, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("expected two comma-separated values, got %q", s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
	if err != nil {
		return domain.Coordinate{}, err
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(second), 64)
	if err != nil {
		return domain.Coordinate{}, err
	}
	if lonFirst {
		return domain.Coordinate{Lat: b, Lon: a}, nil
	}
	return domain.Coordinate{Lat: a, Lon: b}, nil
}
