package handler

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"rand2m/model"
)

// Source is the randomness the client draws commands from. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// CommandClient owns one connection to the arena and feeds it random commands.
type CommandClient struct {
	cfg    model.ClientConfig
	conn   net.Conn
	writer *bufio.Writer
	rnd    Source
	log    *logrus.Entry

	identified bool
	sent       int
	closeOnce  sync.Once
	closeErr   error
}

// DialCommandClient connects to cfg.Address(). There is no dial timeout; ctx only cancels the attempt.
func DialCommandClient(ctx context.Context, cfg model.ClientConfig, rnd Source) (*CommandClient, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.Address())
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Address(), err)
	}
	return NewCommandClient(conn, cfg, rnd), nil
}

func NewCommandClient(conn net.Conn, cfg model.ClientConfig, rnd Source) *CommandClient {
	return &CommandClient{
		cfg:    cfg,
		conn:   conn,
		writer: bufio.NewWriter(conn),
		rnd:    rnd,
		log: logrus.WithFields(logrus.Fields{
			"component": "sender",
			"remote":    conn.RemoteAddr().String(),
		}),
	}
}

// Next draws one command. POINT_AT takes two more draws for its coordinates.
// A source that breaks the Intn contract is reported, not remapped.
func (c *CommandClient) Next() (model.Message, error) {
	cmd, err := model.CommandFromIndex(c.rnd.Intn(model.CommandCount))
	if err != nil {
		return model.Message{}, fmt.Errorf("drawing command: %w", err)
	}

	msg := model.Message{Command: cmd}
	if cmd == model.PointAt {
		msg.X = c.rnd.Float64() * model.ScreenWidth
		msg.Y = c.rnd.Float64() * model.ScreenHeight
	}
	return msg, nil
}

// Send writes a single command line.
func (c *CommandClient) Send(msg model.Message) error {
	if err := c.writeLine(msg.Line()); err != nil {
		return err
	}
	c.sent++
	return nil
}

func (c *CommandClient) identify() error {
	if c.identified {
		return nil
	}
	if err := c.writeLine(model.NameLine(c.cfg.Name)); err != nil {
		return err
	}
	c.identified = true
	c.log.WithField("name", c.cfg.Name).Info("identified")
	return nil
}

func (c *CommandClient) writeLine(line string) error {
	if _, err := c.writer.WriteString(line); err != nil {
		return fmt.Errorf("sending %q: %w", line, err)
	}
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("sending %q: %w", line, err)
	}
	return nil
}

// Run identifies the bot and then sends one command per interval until ctx is done
// or the connection fails. The server is never read from.
func (c *CommandClient) Run(ctx context.Context) error {
	if err := c.identify(); err != nil {
		return err
	}

	pause := time.NewTimer(c.cfg.Interval)
	defer pause.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pause.C:
		}

		msg, err := c.Next()
		if err != nil {
			return err
		}
		if err := c.Send(msg); err != nil {
			return err
		}
		c.log.Debugf("sent %s", strings.TrimSuffix(msg.Line(), "\n"))

		pause.Reset(c.cfg.Interval)
	}
}

// Sent returns the number of command lines written so far, NAME excluded.
func (c *CommandClient) Sent() int {
	return c.sent
}

// Close releases the connection. Later calls return the first result.
func (c *CommandClient) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
		c.log.WithField("sent", c.sent).Info("connection closed")
	})
	return c.closeErr
}
