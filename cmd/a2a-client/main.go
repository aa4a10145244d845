// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Command a2a-client talks to an A2A agent from the command line.
//
// Usage:
//
//	a2a-client card
//	a2a-client send hello world
//	a2a-client stream --task-id 1234 bonjour
//	a2a-client get 1234 --history-length 2
//	a2a-client cancel 1234
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/client"
	"github.com/go-a2a/a2a-agent/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Card   CardCmd   `cmd:"" help:"Print the agent card."`
	Send   SendCmd   `cmd:"" help:"Send a message and print the reply."`
	Stream StreamCmd `cmd:"" help:"Send a message and print each streamed event."`
	Get    GetCmd    `cmd:"" help:"Print a task."`
	Cancel CancelCmd `cmd:"" help:"Cancel a task."`

	URL      string            `short:"u" help:"Base URL of the agent." default:"http://localhost:9999" env:"A2A_AGENT_URL"`
	Timeout  time.Duration     `help:"Overall request timeout." default:"1m"`
	Header   map[string]string `short:"H" help:"Extra HTTP headers (key=value)."`
	Retries  int               `help:"Retries when the agent is unreachable or busy." default:"0"`
	LogLevel string            `name:"log-level" help:"Log level (debug, info, warn, error)." default:"warn" env:"LOG_LEVEL"`
}

func (cli *CLI) connect() (context.Context, context.CancelFunc, *client.Client, error) {
	logCfg := config.LogConfig{Level: cli.LogLevel, Format: config.LogFormatText}
	logger, err := logCfg.NewLogger(os.Stderr)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, cli.Timeout)
	done := func() {
		cancel()
		stop()
	}

	var interceptors []client.Interceptor
	if cli.Retries > 0 {
		retry := client.DefaultRetryConfig()
		retry.MaxAttempts = cli.Retries + 1
		interceptors = append(interceptors, client.RetryInterceptor(retry))
	}
	for k, v := range cli.Header {
		interceptors = append(interceptors, client.HeaderInterceptor(k, v))
	}
	c, err := client.NewFromBaseURL(ctx, cli.URL,
		client.WithLogger(logger),
		client.WithInterceptors(interceptors...),
	)
	if err != nil {
		done()
		return nil, nil, nil, err
	}
	slog.SetDefault(logger)
	return ctx, done, c, nil
}

func printJSON(v any) error {
	if err := json.MarshalWrite(os.Stdout, v, jsontext.WithIndent("  ")); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

// CardCmd prints the resolved agent card.
type CardCmd struct{}

func (c *CardCmd) Run(cli *CLI) error {
	_, done, cl, err := cli.connect()
	if err != nil {
		return err
	}
	defer done()
	return printJSON(cl.Card())
}

// messageFlags are shared by the send and stream commands.
type messageFlags struct {
	Text      []string `arg:"" help:"Message text."`
	TaskID    string   `name:"task-id" help:"Continue an existing task."`
	ContextID string   `name:"context-id" help:"Context to send the message in."`
	JSON      bool     `help:"Print raw JSON instead of text."`
}

func (f *messageFlags) params() *a2a.MessageSendParams {
	msg := a2a.NewUserTextMessage(strings.Join(f.Text, " "))
	msg.TaskID = f.TaskID
	msg.ContextID = f.ContextID
	return &a2a.MessageSendParams{Message: msg}
}

// SendCmd sends a message and prints the reply.
type SendCmd struct {
	messageFlags
}

func (c *SendCmd) Run(cli *CLI) error {
	ctx, done, cl, err := cli.connect()
	if err != nil {
		return err
	}
	defer done()

	reply, err := cl.SendMessage(ctx, c.params())
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(reply)
	}
	fmt.Println(reply.Text(" "))
	return nil
}

// StreamCmd sends a message and prints every event as it arrives.
type StreamCmd struct {
	messageFlags
}

func (c *StreamCmd) Run(cli *CLI) error {
	ctx, done, cl, err := cli.connect()
	if err != nil {
		return err
	}
	defer done()

	for ev, err := range cl.SendMessageStreaming(ctx, c.params()) {
		if err != nil {
			return err
		}
		if c.JSON {
			if err := printJSON(ev); err != nil {
				return err
			}
			continue
		}
		switch {
		case ev.StatusUpdate != nil:
			fmt.Printf("[%s] %s\n", ev.StatusUpdate.Status.State, ev.Text())
		default:
			fmt.Println(ev.Text())
		}
	}
	return nil
}

// GetCmd prints a task.
type GetCmd struct {
	ID            string `arg:"" help:"Task ID."`
	HistoryLength *int   `name:"history-length" help:"Return at most this many history messages."`
}

func (c *GetCmd) Run(cli *CLI) error {
	ctx, done, cl, err := cli.connect()
	if err != nil {
		return err
	}
	defer done()

	task, err := cl.GetTask(ctx, &a2a.TaskQueryParams{ID: c.ID, HistoryLength: c.HistoryLength})
	if err != nil {
		return err
	}
	return printJSON(task)
}

// CancelCmd cancels a task.
type CancelCmd struct {
	ID string `arg:"" help:"Task ID."`
}

func (c *CancelCmd) Run(cli *CLI) error {
	ctx, done, cl, err := cli.connect()
	if err != nil {
		return err
	}
	defer done()

	task, err := cl.CancelTask(ctx, &a2a.TaskIDParams{ID: c.ID})
	if err != nil {
		return err
	}
	return printJSON(task)
}

func main() {
	_ = config.LoadDotEnv()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("a2a-client"),
		kong.Description("Command-line client for A2A agents."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
