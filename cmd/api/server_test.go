package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeDrainsInFlightRequests(t *testing.T) {
	var released atomic.Bool
	var sawReleased atomic.Bool
	started := make(chan struct{})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(300 * time.Millisecond)
		sawReleased.Store(released.Load())
		_, _ = w.Write([]byte(`{"predicted_class":"IA1"}`))
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &http.Server{Handler: handler}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		defer released.Store(true)
		done <- serve(ctx, server, listener, 5*time.Second)
	}()

	respCh := make(chan *http.Response, 1)
	go func() {
		res, err := http.Post("http://"+listener.Addr().String()+"/predict", "application/json", nil)
		if err != nil {
			respCh <- nil
			return
		}
		respCh <- res
	}()

	<-started
	cancel()

	require.NoError(t, <-done)
	assert.False(t, sawReleased.Load(), "resources released while a request was running")

	res := <-respCh
	require.NotNil(t, res)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"predicted_class":"IA1"}`, string(body))
}

func TestServeReportsListenerFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, listener.Close())

	err = serve(context.Background(), &http.Server{Handler: http.NotFoundHandler()}, listener, time.Second)
	require.Error(t, err)
}

func TestServeShutdownTimeout(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	defer close(unblock)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-unblock
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		res, err := http.Get("http://" + listener.Addr().String() + "/")
		if err == nil {
			res.Body.Close()
		}
	}()

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, &http.Server{Handler: handler}, listener, 50*time.Millisecond)
	}()

	<-started
	cancel()

	err = <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forced to shutdown")
}
