package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

func main() {
	var (
		model, mmproj, host string
		port, ctxSize, ngl  int
		offline             bool
		unready             int
		exitCode            int
		argsOut             string
		ignoreTerm          bool
	)
	// Accept the llama-server flags the manager passes.
	flag.StringVar(&model, "m", "", "model path")
	flag.StringVar(&mmproj, "mmproj", "", "projection path")
	flag.StringVar(&host, "host", "127.0.0.1", "host")
	flag.IntVar(&port, "port", 8080, "port")
	flag.IntVar(&ctxSize, "c", 0, "context size")
	flag.IntVar(&ngl, "ngl", 0, "gpu layers")
	flag.BoolVar(&offline, "offline", false, "offline")
	// Test knobs.
	flag.IntVar(&unready, "fake-unready", 0, "answer 503 this many times before ready")
	flag.IntVar(&exitCode, "fake-exit", -1, "exit immediately with this code")
	flag.StringVar(&argsOut, "fake-args-out", "", "write received args to this file")
	flag.BoolVar(&ignoreTerm, "fake-ignore-term", false, "ignore SIGTERM")
	flag.Parse()

	if argsOut != "" {
		if err := os.WriteFile(argsOut, []byte(strings.Join(os.Args[1:], "\n")), 0o644); err != nil {
			log.Fatalf("write args: %v", err)
		}
	}
	if exitCode >= 0 {
		fmt.Fprintf(os.Stderr, "error: failed to load model '%s'\n", model)
		os.Exit(exitCode)
	}

	var checks atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if checks.Add(1) <= int64(unready) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"Loading model","type":"unavailable_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`<html>llama</html>`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
			return
		}
		var parts []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		_ = json.Unmarshal(req.Messages[len(req.Messages)-1].Content, &parts)
		text := ""
		if len(parts) > 0 {
			text = parts[0].Text
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": "echo: " + text}}},
		})
	})
	mux.HandleFunc("/completion", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt json.RawMessage `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
			return
		}
		var text string
		if err := json.Unmarshal(req.Prompt, &text); err != nil {
			var mm struct {
				PromptString string `json:"prompt_string"`
			}
			_ = json.Unmarshal(req.Prompt, &mm)
			text = mm.PromptString
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"content": "echo: " + text})
	})

	srv := &http.Server{Addr: fmt.Sprintf("%s:%d", host, port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for SIGTERM then shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	for range sigCh {
		if !ignoreTerm {
			break
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
