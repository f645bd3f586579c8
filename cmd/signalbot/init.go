package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/klima7/signalbot/internal/config"
)

var initPhonePattern = regexp.MustCompile(`^\+[0-9]{5,15}$`)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Interactively create a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "signalbot.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}
			return runInitWizard(path)
		},
	}
	return cmd
}

func runInitWizard(path string) error {
	var (
		service    = "127.0.0.1:8080"
		number     string
		logLevel   = "info"
		adminBind  string
		enableHist bool
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Relay address").
				Description("host:port of your signal-cli-rest-api instance").
				Value(&service).
				Validate(func(s string) error {
					if _, _, err := net.SplitHostPort(s); err != nil {
						return errors.New("must be host:port")
					}
					return nil
				}),
			huh.NewInput().
				Title("Phone number").
				Description("the bot account, in E.164 form (e.g. +4915551234567)").
				Value(&number).
				Validate(func(s string) error {
					if !initPhonePattern.MatchString(s) {
						return errors.New("must be + followed by 5-15 digits")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&logLevel),
			huh.NewInput().
				Title("Admin bind address").
				Description("leave empty to disable the admin server").
				Value(&adminBind).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					if _, _, err := net.SplitHostPort(s); err != nil {
						return errors.New("must be host:port or empty")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Keep a local message history?").
				Value(&enableHist),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg := config.Config{
		SignalService: service,
		PhoneNumber:   number,
		LogLevel:      logLevel,
	}
	cfg.Admin.Listen = adminBind
	if enableHist {
		cfg.History.Path = filepath.Join("data", "history.db")
	}

	raw, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Start the bot with: signalbot run -c", path)
	return nil
}
