package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/srlehn/kioskimg/internal/errors"
)

func init() {
	rootCmd.AddCommand(serviceCmd)
	for _, action := range []string{`install`, `uninstall`, `start`, `stop`, `restart`} {
		serviceCmd.AddCommand(serviceControlCmd(action))
	}
	serviceCmd.AddCommand(serviceRunCmd, serviceStatusCmd)
}

const serviceName = `kioskimg`

// serviceStopTimeout bounds the wait for the agent after a stop request.
const serviceStopTimeout = 30 * time.Second

var serviceCmd = &cobra.Command{
	Use:   `service`,
	Short: `manage the system service`,
	Long:  `install, control or run kioskimg as a system service`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// program runs the agent on the calling goroutine while the service
// manager loop runs in the background.
type program struct {
	cancel context.CancelFunc
	done   chan struct{}
}

var _ service.Interface = (*program)(nil)

func (p *program) Start(service.Service) error { return nil }

func (p *program) Stop(service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.done == nil {
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(serviceStopTimeout):
		return errors.New(`timeout waiting for the agent to stop`)
	}
}

func serviceConfig() (*service.Config, error) {
	args := []string{`service`, `run`}
	if len(configFlag) > 0 {
		abs, err := filepath.Abs(configFlag)
		if err != nil {
			return nil, errors.New(err)
		}
		args = append(args, `--config`, abs)
	}
	for _, envFile := range envFileFlags {
		abs, err := filepath.Abs(envFile)
		if err != nil {
			return nil, errors.New(err)
		}
		args = append(args, `--env-file`, abs)
	}
	return &service.Config{
		Name:         serviceName,
		DisplayName:  `Kiosk Image Display`,
		Description:  `Shows the image selected in Redis on the attached display`,
		Arguments:    args,
		Dependencies: []string{`After=network-online.target`, `Wants=network-online.target`},
		Option: service.KeyValue{
			`Restart`: `always`,
		},
	}, nil
}

func newService(p *program) (service.Service, error) {
	svcConfig, err := serviceConfig()
	if err != nil {
		return nil, err
	}
	s, err := service.New(p, svcConfig)
	if err != nil {
		return nil, errors.New(err)
	}
	return s, nil
}

func serviceControlCmd(action string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: action + ` the system service`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			run(func() error {
				s, err := newService(&program{})
				if err != nil {
					return err
				}
				if err := service.Control(s, action); err != nil {
					return errors.New(err)
				}
				fmt.Printf("service %s: %s done\n", serviceName, action)
				return nil
			})
		},
	}
}

var serviceStatusCmd = &cobra.Command{
	Use:   `status`,
	Short: `print the service status`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func() error {
			s, err := newService(&program{})
			if err != nil {
				return err
			}
			st, err := s.Status()
			if err != nil {
				return errors.New(err)
			}
			fmt.Printf("service %s: %s\n", serviceName, statusString(st))
			return nil
		})
	},
}

var serviceRunCmd = &cobra.Command{
	Use:   `run`,
	Short: `run the agent under the service manager`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func() error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			p := &program{cancel: cancel, done: make(chan struct{})}
			s, err := newService(p)
			if err != nil {
				return err
			}
			go func() {
				_ = s.Run()
				cancel()
			}()
			err = runAgent(ctx, cfg)
			close(p.done)
			return err
		})
	},
}

func statusString(st service.Status) string {
	switch st {
	case service.StatusRunning:
		return `running`
	case service.StatusStopped:
		return `stopped`
	default:
		return `unknown`
	}
}
