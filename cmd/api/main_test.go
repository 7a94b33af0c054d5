package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/cleantech-assistant/backend/internal/config"
)

func TestBuildResponderSelectsKind(t *testing.T) {
	cfg := &config.Config{
		Responder: config.ResponderConfig{Kind: config.ResponderRules},
		OpenAI:    config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini"},
	}

	r, err := buildResponder(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "rules", r.Name())

	cfg.Responder.Kind = config.ResponderOpenAI
	r, err = buildResponder(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", r.Name())

	cfg.Responder.Kind = config.ResponderArk
	_, err = buildResponder(context.Background(), cfg)
	assert.Error(t, err, "ark without credentials must fail")

	cfg.Responder.Kind = "bogus"
	_, err = buildResponder(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRunServerStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := &http.Server{Addr: addr, Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
