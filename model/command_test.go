package model

import (
	"errors"
	"testing"
)

func TestCommandTable(t *testing.T) {
	want := []string{"FORWARD\n", "BACKWARD\n", "STRAFE_RIGHT\n", "STRAFE_LEFT\n", "FIRE\n"}
	for i, line := range want {
		cmd, err := CommandFromIndex(i)
		if err != nil {
			t.Fatalf("index %d: %v", i, err)
		}
		if got := (Message{Command: cmd}).Line(); got != line {
			t.Errorf("index %d: got %q, want %q", i, got, line)
		}
	}

	cmd, err := CommandFromIndex(5)
	if err != nil || cmd != PointAt {
		t.Fatalf("index 5: got %v, %v", cmd, err)
	}
	if _, err := CommandFromIndex(CommandCount); err == nil {
		t.Error("expected error for index past the table")
	}
	if _, err := CommandFromIndex(-1); err == nil {
		t.Error("expected error for negative index")
	}
}

func TestPointAtLine(t *testing.T) {
	got := Message{Command: PointAt, X: 400, Y: 812.5}.Line()
	if got != "POINT_AT 400 812.5\n" {
		t.Errorf("got %q", got)
	}
}

func TestNameLine(t *testing.T) {
	if got := NameLine("rand2m"); got != "NAME rand2m\n" {
		t.Errorf("got %q", got)
	}
}

func TestParseLineReadsWhatClientWrites(t *testing.T) {
	msgs := []Message{
		{Command: Forward},
		{Command: StrafeLeft},
		{Command: Fire},
		{Command: PointAt, X: 1599.999, Y: 0.125},
	}
	for _, m := range msgs {
		in, err := ParseLine(m.Line())
		if err != nil {
			t.Fatalf("%q: %v", m.Line(), err)
		}
		if in.IsName() || in.Message != m {
			t.Errorf("%q: parsed %+v", m.Line(), in)
		}
	}

	in, err := ParseLine("NAME bot7\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if !in.IsName() || in.Name != "bot7" {
		t.Errorf("parsed %+v", in)
	}
}

func TestParseLineNullaryIgnoresArguments(t *testing.T) {
	in, err := ParseLine("FIRE now please")
	if err != nil {
		t.Fatal(err)
	}
	if in.Message.Command != Fire {
		t.Errorf("parsed %+v", in)
	}
}

func TestParseLineErrors(t *testing.T) {
	cases := []struct {
		line string
		err  error
	}{
		{"", ErrEmptyLine},
		{"\n", ErrEmptyLine},
		{"JUMP", ErrUnknownCommand},
		{"forward", ErrUnknownCommand},
		{"NAME", ErrBadArguments},
		{"NAME a b", ErrBadArguments},
		{"POINT_AT 1", ErrBadArguments},
		{"POINT_AT 1 2 3", ErrBadArguments},
		{"POINT_AT x 2", ErrBadArguments},
		{"POINT_AT 1 y", ErrBadArguments},
	}
	for _, c := range cases {
		_, err := ParseLine(c.line)
		if !errors.Is(err, c.err) {
			t.Errorf("%q: got %v, want %v", c.line, err, c.err)
		}
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := DefaultClientConfig()
	if cfg.Address() != "localhost:1337" {
		t.Errorf("got %s", cfg.Address())
	}
	cfg.Host = "::1"
	if cfg.Address() != "[::1]:1337" {
		t.Errorf("got %s", cfg.Address())
	}
	if DefaultArenaConfig().Address() != ":1337" {
		t.Errorf("got %s", DefaultArenaConfig().Address())
	}
}
