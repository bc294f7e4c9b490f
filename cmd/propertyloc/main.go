// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package main implements the propertyloc service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/wneessen/propertyloc/internal/config"
	"github.com/wneessen/propertyloc/internal/i18n"
	"github.com/wneessen/propertyloc/internal/logger"
	"github.com/wneessen/propertyloc/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type options struct {
	ConfigFile string `short:"c" long:"config" env:"PROPERTYLOC_CONFIG_FILE" description:"Path to the config file"`
	Addr       string `short:"a" long:"addr" description:"Address to listen on, overrides the config file"`
	Version    bool   `short:"v" long:"version" description:"Print the version and exit"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		printVersion(os.Stdout)
		os.Exit(0)
	}

	log := logger.New(slog.LevelError)

	conf, err := loadConfig(opts.ConfigFile)
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}
	if opts.Addr != "" {
		conf.HTTP.Addr = opts.Addr
	}

	log = logger.New(conf.LogLevel)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		os.Exit(1)
	}

	serv, err := service.New(conf, log, t)
	if err != nil {
		log.Error("failed to initialize propertyloc service", logger.Err(err))
		os.Exit(1)
	}

	log.Info("starting propertyloc service", slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date))
	if err = serv.Run(ctx); err != nil {
		log.Error("propertyloc service failed", logger.Err(err))
		os.Exit(1)
	}
	log.Info("shutting down propertyloc service")
}

func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "propertyloc %s (commit: %s, built: %s)\n", version, commit, date)
}

// loadConfig reads the given config file, the first config file found in the default location,
// or the defaults and environment only.
func loadConfig(confPath string) (*config.Config, error) {
	if confPath != "" {
		return config.NewFromFile(filepath.Dir(confPath), filepath.Base(confPath))
	}
	if path, file := findConfigFile(); path != "" && file != "" {
		return config.NewFromFile(path, file)
	}
	return config.New()
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "propertyloc", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
