package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Command is one discrete action a bot can ask the arena for.
type Command int

// The order is part of the wire contract: a draw of i in [0, CommandCount) selects Command(i).
const (
	Forward Command = iota
	Backward
	StrafeRight
	StrafeLeft
	Fire
	PointAt
)

const CommandCount = 6

// NameKeyword opens the identification line.
const NameKeyword = "NAME"

// Screen bounds used for POINT_AT coordinates.
const (
	ScreenWidth  = 1600.0
	ScreenHeight = 1200.0
)

var commandKeywords = [CommandCount]string{
	"FORWARD",
	"BACKWARD",
	"STRAFE_RIGHT",
	"STRAFE_LEFT",
	"FIRE",
	"POINT_AT",
}

var (
	ErrEmptyLine      = errors.New("empty command line")
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("bad command arguments")
)

func (c Command) String() string {
	if c < 0 || int(c) >= CommandCount {
		return fmt.Sprintf("Command(%d)", int(c))
	}
	return commandKeywords[c]
}

// CommandFromIndex maps a random draw onto the command table.
func CommandFromIndex(i int) (Command, error) {
	if i < 0 || i >= CommandCount {
		return 0, fmt.Errorf("command index %d out of range [0, %d)", i, CommandCount)
	}
	return Command(i), nil
}

func lookupCommand(keyword string) (Command, bool) {
	for i, k := range commandKeywords {
		if k == keyword {
			return Command(i), true
		}
	}
	return 0, false
}

// Message is a single command as sent over the wire.
type Message struct {
	Command Command
	X, Y    float64 // POINT_AT only
}

// Line serializes the message into its newline terminated form.
func (m Message) Line() string {
	if m.Command == PointAt {
		return m.Command.String() + " " + formatCoord(m.X) + " " + formatCoord(m.Y) + "\n"
	}
	return m.Command.String() + "\n"
}

// NameLine builds the one-time identification line.
func NameLine(id string) string {
	return NameKeyword + " " + id + "\n"
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Instruction is a decoded line as the arena sees it: either a NAME or a command.
type Instruction struct {
	Keyword string
	Name    string // NAME only
	Message Message
}

func (in Instruction) IsName() bool {
	return in.Keyword == NameKeyword
}

// ParseLine decodes one line received from a bot. The trailing newline is optional.
func ParseLine(text string) (Instruction, error) {
	text = strings.TrimRight(text, "\r\n")
	fields := strings.Split(text, " ")
	if len(fields) == 0 || fields[0] == "" {
		return Instruction{}, ErrEmptyLine
	}

	keyword, args := fields[0], fields[1:]
	if keyword == NameKeyword {
		if len(args) != 1 || args[0] == "" {
			return Instruction{}, fmt.Errorf("%w: NAME expects one argument, got %d", ErrBadArguments, len(args))
		}
		return Instruction{Keyword: keyword, Name: args[0]}, nil
	}

	cmd, ok := lookupCommand(keyword)
	if !ok {
		return Instruction{}, fmt.Errorf("%w '%s'", ErrUnknownCommand, keyword)
	}

	inst := Instruction{Keyword: keyword, Message: Message{Command: cmd}}
	if cmd != PointAt {
		return inst, nil
	}

	if len(args) != 2 {
		return Instruction{}, fmt.Errorf("%w: POINT_AT expects two coordinates, got %d", ErrBadArguments, len(args))
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: POINT_AT x: %v", ErrBadArguments, err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: POINT_AT y: %v", ErrBadArguments, err)
	}
	inst.Message.X, inst.Message.Y = x, y
	return inst, nil
}
