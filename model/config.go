package model

import (
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultHost     = "localhost"
	DefaultPort     = 1337
	DefaultName     = "rand2m"
	DefaultInterval = 100 * time.Millisecond
)

// ClientConfig holds everything the bot needs to reach the arena.
type ClientConfig struct {
	Host     string        // Arena host name or IP
	Port     int           // Arena TCP port
	Name     string        // Sent once in the NAME line
	Interval time.Duration // Pause before every command
	Seed     int64         // 0 seeds from the clock
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:     DefaultHost,
		Port:     DefaultPort,
		Name:     DefaultName,
		Interval: DefaultInterval,
	}
}

func (c ClientConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ArenaConfig configures the receiving side.
type ArenaConfig struct {
	Host      string // empty listens on all interfaces
	Port      int
	Multicore bool   // one event loop per CPU
	Filter    string // optional expression selecting forwarded commands
}

func DefaultArenaConfig() ArenaConfig {
	return ArenaConfig{Port: DefaultPort}
}

func (c ArenaConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Event is one decoded line attributed to a connected bot.
type Event struct {
	Session     uuid.UUID
	Player      string // last NAME seen on the session, empty before it
	Instruction Instruction
	At          time.Time
}
