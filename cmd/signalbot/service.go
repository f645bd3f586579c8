package main

import (
	"context"
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/klima7/signalbot/internal/config"
)

// program adapts the bot to the service manager's start/stop lifecycle.
type program struct {
	cfg    *config.Config
	cancel context.CancelFunc
	done   chan error
}

func (p *program) Start(_ service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)
	go func() {
		p.done <- runWith(ctx, p.cfg)
	}()
	return nil
}

func (p *program) Stop(_ service.Service) error {
	if p.cancel != nil {
		p.cancel()
		return <-p.done
	}
	return nil
}

func newService(cfgPath string) (service.Service, error) {
	svcConfig := &service.Config{
		Name:        "signalbot",
		DisplayName: "signalbot",
		Description: "Signal bot connected to a signal-cli-rest-api instance",
		Arguments:   []string{"service", "exec", "-c", cfgPath},
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return service.New(&program{cfg: cfg}, svcConfig)
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Run signalbot under the system service manager",
	}
	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")

	configPath := func(c *cobra.Command) (string, error) {
		path, _ := c.Flags().GetString("config")
		if path != "" {
			return path, nil
		}
		return resolveConfigPath()
	}

	for _, action := range []string{"install", "uninstall", "start", "stop", "restart"} {
		action := action
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the signalbot system service", action),
			RunE: func(c *cobra.Command, _ []string) error {
				path, err := configPath(c)
				if err != nil {
					return err
				}
				svc, err := newService(path)
				if err != nil {
					return err
				}
				if err := service.Control(svc, action); err != nil {
					return err
				}
				fmt.Printf("service %s: done\n", action)
				return nil
			},
		})
	}

	// exec is what the service manager itself invokes; not for direct use.
	cmd.AddCommand(&cobra.Command{
		Use:    "exec",
		Hidden: true,
		RunE: func(c *cobra.Command, _ []string) error {
			path, err := configPath(c)
			if err != nil {
				return err
			}
			svc, err := newService(path)
			if err != nil {
				return err
			}
			return svc.Run()
		},
	})

	return cmd
}
