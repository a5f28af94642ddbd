package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iTrooz/caching-http-client/internal/client"
	"github.com/iTrooz/caching-http-client/internal/config"
	"github.com/iTrooz/caching-http-client/internal/session"
	"github.com/iTrooz/caching-http-client/internal/transport"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		logrus.Fatal(err)
	}
}

// run sends one request repeat times within a single session, e.g.
//
//	fetch -config configs/config.yaml -repeat 2 GET /attractions city=Cairo
func run(ctx context.Context, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("fetch", flag.ContinueOnError)
	configPath := flags.String("config", "configs/config.yaml", "path to the YAML configuration")
	token := flags.String("token", os.Getenv("FETCH_TOKEN"), "bearer token sent with every request")
	repeat := flags.Int("repeat", 1, "number of times the request is sent")
	body := flags.String("data", "", "request body")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 2 {
		return errors.New("usage: fetch [flags] METHOD PATH [name=value...]")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.SetupLogging(); err != nil {
		return err
	}

	tr, err := newTransport(cfg)
	if err != nil {
		return err
	}

	s, err := session.Start(ctx, cfg, tr, session.Options{Token: *token})
	if err != nil {
		return err
	}
	defer func() {
		if err := s.End(ctx); err != nil {
			logrus.Warnf("Failed to end session: %v", err)
		}
	}()

	params, err := parseParams(flags.Args()[2:])
	if err != nil {
		return err
	}

	method := strings.ToUpper(flags.Arg(0))
	opts := client.Options{Params: params}
	if *body != "" {
		opts.Body = []byte(*body)
		opts.Headers = map[string][]string{"Content-Type": {"application/json"}}
	}

	for i := 0; i < *repeat; i++ {
		resp, err := s.Client.Request(ctx, method, flags.Arg(1), opts)
		if err != nil {
			return err
		}
		source := "network"
		if resp.FromCache {
			source = "cache"
		}
		fmt.Fprintf(out, "%d (%s) %s\n", resp.Status, source, resp.Body)
	}
	return nil
}

func newTransport(cfg *config.Config) (transport.Transport, error) {
	timeout, err := cfg.GetClientTimeout()
	if err != nil {
		return nil, err
	}

	var tr transport.Transport
	tr, err = transport.NewHTTP(cfg.Client.BaseURL, timeout)
	if err != nil {
		return nil, err
	}
	if cfg.Client.Coalesce {
		tr = transport.Coalesce(tr)
	}
	return tr, nil
}

// parseParams reads name=value arguments
func parseParams(args []string) (url.Values, error) {
	params := url.Values{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", arg)
		}
		params.Add(name, value)
	}
	return params, nil
}
