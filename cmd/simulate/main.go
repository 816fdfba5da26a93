// Package main drives synthetic load against a running taskd server. It
// submits a random mix of echo, sleep and batch tasks on a ticker and prints
// every task_finished event from the stream until the run ends.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sellerdesk/taskd/internal/api"
	"github.com/sellerdesk/taskd/internal/executors"
	"github.com/sellerdesk/taskd/internal/task"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "taskd base URL")
	token := flag.String("token", os.Getenv("TASKD_SERVER_ADMIN_TOKEN"), "admin token, if the server requires one")
	duration := flag.Duration("duration", 2*time.Minute, "how long to inject tasks")
	interval := flag.Duration("interval", 2*time.Second, "time between injections")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &client{base: strings.TrimRight(*addr, "/"), token: *token, http: &http.Client{Timeout: 10 * time.Second}}

	go func() {
		if err := c.watch(ctx); err != nil && ctx.Err() == nil {
			log.Printf("stream closed: %v", err)
		}
	}()

	fmt.Printf("Injecting tasks into %s for %s...\n", c.base, *duration)

	deadline := time.After(*duration)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	submitted := 0
	for {
		select {
		case <-ctx.Done():
			c.printStats()
			return
		case <-deadline:
			fmt.Printf("\nSimulation complete, %d tasks submitted.\n", submitted)
			c.printStats()
			return
		case <-ticker.C:
			n := rand.IntN(5) + 1
			fmt.Printf("\n[generator] injecting %d tasks\n", n)
			for i := 0; i < n; i++ {
				req := randomTask(submitted)
				if err := c.submit(req); err != nil {
					log.Printf("submit %s failed: %v", req.Type, err)
					continue
				}
				submitted++
			}
		}
	}
}

func randomTask(seq int) api.SubmitTaskRequest {
	label := fmt.Sprintf("sim-%d", seq)
	switch r := rand.Float64(); {
	case r < 0.3:
		return api.SubmitTaskRequest{
			Type:    executors.TypeEcho,
			Message: label,
			Payload: mustJSON(map[string]any{"message": label + " done"}),
		}
	case r < 0.6:
		return api.SubmitTaskRequest{
			Type:    executors.TypeSleep,
			Message: label,
			Payload: mustJSON(map[string]any{"duration_ms": 500 + rand.IntN(4500)}),
		}
	default:
		items := make([]string, rand.IntN(8)+2)
		fail := []string{}
		for i := range items {
			items[i] = fmt.Sprintf("%s-item-%d", label, i)
			if rand.Float64() < 0.15 {
				fail = append(fail, items[i])
			}
		}
		return api.SubmitTaskRequest{
			Type:    executors.TypeBatch,
			Message: label,
			Payload: mustJSON(map[string]any{
				"items":         items,
				"fail":          fail,
				"item_delay_ms": 200 + rand.IntN(800),
			}),
		}
	}
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) do(method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *client) submit(req api.SubmitTaskRequest) error {
	var created api.TaskResponse
	if err := c.do(http.MethodPost, "/api/tasks", req, &created); err != nil {
		return err
	}
	fmt.Printf("   submitted %-5s %s (%s)\n", created.Type, created.ID, created.Message)
	return nil
}

func (c *client) printStats() {
	var stats task.Stats
	if err := c.do(http.MethodGet, "/api/tasks/stats", nil, &stats); err != nil {
		log.Printf("fetch stats: %v", err)
		return
	}
	fmt.Printf("total=%d pending=%d running=%d completed=%d failed=%d cancelled=%d\n",
		stats.Total, stats.Pending, stats.Running, stats.Completed, stats.Failed, stats.Cancelled)
}

// watch prints finished tasks from the stream until ctx ends.
func (c *client) watch(ctx context.Context) error {
	u, err := url.Parse(c.base + "/api/tasks/stream")
	if err != nil {
		return err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	if c.token != "" {
		q := u.Query()
		q.Set("access_token", c.token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var msg api.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		if msg.Event != api.EventTaskFinished || msg.Task == nil {
			continue
		}

		t := msg.Task
		switch t.Status {
		case task.StatusFailed:
			fmt.Printf("   [stream] %s %s failed: %s\n", t.Type, t.ID, t.Error)
		default:
			fmt.Printf("   [stream] %s %s %s (%d ok, %d failed)\n",
				t.Type, t.ID, t.Status, t.CompletedItems, t.FailedItems)
		}
	}
}
