// Command spectator-load connects many spectators to a running
// "ghosthunt serve" and measures event delivery.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/network"
)

// Config for the load run.
type Config struct {
	ServerURL      string
	NumClients     int
	ChangeInterval time.Duration
	TestDuration   time.Duration
}

// Stats tracks delivery across all spectators.
type Stats struct {
	Connected        int64
	FilterChanges    int64
	MessagesReceived int64
	Errors           int64

	mu        sync.Mutex
	Latencies []time.Duration // event timestamp to receipt
}

// filters a spectator cycles through.
var filters = []network.Filter{
	{},
	{Types: []events.EventType{events.EventTypeGhostMove, events.EventTypeGhostEvidence}},
	{Types: []events.EventType{events.EventTypeHunterExit, events.EventTypeRunComplete}},
	{Actor: "hunter-1"},
	{Actor: "hunter-2"},
}

func main() {
	var cfg Config
	rootCmd := &cobra.Command{
		Use:          "spectator-load",
		Short:        "Load a ghosthunt spectator server with websocket clients",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.TestDuration)
			defer cancel()
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server: %s  Clients: %d  Duration: %s\n", cfg.ServerURL, cfg.NumClients, cfg.TestDuration)
			stats := runLoad(ctx, cfg)
			return printResults(out, stats, cfg)
		},
	}
	f := rootCmd.Flags()
	f.StringVar(&cfg.ServerURL, "url", "ws://localhost:8080/ws", "Spectator websocket URL")
	f.IntVar(&cfg.NumClients, "clients", 50, "Concurrent spectators")
	f.DurationVar(&cfg.ChangeInterval, "interval", 2*time.Second, "How often each spectator changes filter")
	f.DurationVar(&cfg.TestDuration, "duration", 60*time.Second, "Test duration")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runLoad(ctx context.Context, cfg Config) *Stats {
	stats := &Stats{Latencies: make([]time.Duration, 0, 10000)}

	var wg sync.WaitGroup
	for i := 0; i < cfg.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, cfg, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, cfg Config, stats *Stats) {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	if clientID%2 == 1 {
		q := u.Query()
		q.Set("type", string(events.EventTypeHunterMove))
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()
	atomic.AddInt64(&stats.Connected, 1)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received := time.Now()
			// The hub batches queued events into one frame, one per line.
			for _, line := range bytes.Split(data, []byte{'\n'}) {
				var e events.GameEvent
				if err := json.Unmarshal(line, &e); err != nil {
					atomic.AddInt64(&stats.Errors, 1)
					continue
				}
				atomic.AddInt64(&stats.MessagesReceived, 1)
				stats.mu.Lock()
				stats.Latencies = append(stats.Latencies, received.Sub(e.Timestamp))
				stats.mu.Unlock()
			}
		}
	}()

	ticker := time.NewTicker(cfg.ChangeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cmd := network.SpectatorCommand{Type: "SUBSCRIBE", Filter: filters[rand.IntN(len(filters))]}
			if err := conn.WriteJSON(cmd); err != nil {
				if ctx.Err() == nil {
					atomic.AddInt64(&stats.Errors, 1)
				}
				return
			}
			atomic.AddInt64(&stats.FilterChanges, 1)
		}
	}
}

func printResults(out io.Writer, stats *Stats, cfg Config) error {
	connected := atomic.LoadInt64(&stats.Connected)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Fprintf(out, "\nConnected:         %d/%d\n", connected, cfg.NumClients)
	fmt.Fprintf(out, "Filter changes:    %d\n", atomic.LoadInt64(&stats.FilterChanges))
	fmt.Fprintf(out, "Events received:   %d\n", recv)
	fmt.Fprintf(out, "Errors:            %d\n", errs)
	fmt.Fprintf(out, "Throughput:        %.2f events/sec\n", float64(recv)/cfg.TestDuration.Seconds())

	stats.mu.Lock()
	lat := slices.Clone(stats.Latencies)
	stats.mu.Unlock()
	if len(lat) > 0 {
		slices.Sort(lat)
		fmt.Fprintf(out, "\nDelivery latency:\n")
		fmt.Fprintf(out, "  p50: %v\n", lat[len(lat)/2])
		fmt.Fprintf(out, "  p99: %v\n", lat[len(lat)*99/100])
		fmt.Fprintf(out, "  max: %v\n", lat[len(lat)-1])
	}

	if connected < int64(cfg.NumClients) {
		return fmt.Errorf("%d spectators failed to connect", int64(cfg.NumClients)-connected)
	}
	return nil
}
