package main

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"rand2m/model"
)

func loopbackConfig(t *testing.T, addr string) model.ClientConfig {
	t.Helper()
	tcp, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	cfg := model.DefaultClientConfig()
	cfg.Host, cfg.Port = "127.0.0.1", tcp.Port
	cfg.Interval = 5 * time.Millisecond
	cfg.Seed = 1
	return cfg
}

func TestRunFailsWhenArenaUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if err := run(context.Background(), loopbackConfig(t, addr)); err == nil {
		t.Fatal("expected an error for a closed port")
	}
}

func TestRunInterruptedExitsCleanly(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(first)
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		if scanner.Scan() {
			first <- scanner.Text()
		}
		close(first)
		// Interrupt once the bot has introduced itself.
		cancel()
		for scanner.Scan() {
		}
	}()

	done := make(chan error, 1)
	go func() { done <- run(ctx, loopbackConfig(t, ln.Addr().String())) }()

	select {
	case line := <-first:
		if line != "NAME rand2m" {
			t.Fatalf("first line %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no NAME line received")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v after interrupt", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after interrupt")
	}
}

func TestRunCancelledBeforeDialExitsCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	if err := run(ctx, loopbackConfig(t, ln.Addr().String())); err != nil {
		t.Fatalf("run returned %v for a cancelled context", err)
	}
}

func TestRootCmdRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for positional arguments")
	}
}
