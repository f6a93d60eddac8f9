package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arnavshah/staffmonitr-go/internal/app"
	"github.com/arnavshah/staffmonitr-go/internal/config"
	"github.com/arnavshah/staffmonitr-go/internal/console"
	"github.com/arnavshah/staffmonitr-go/internal/logger"
)

type cli struct {
	configPath string
	accountID  string
	app        *app.App
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "staffmonitr",
		Short:         "Staffing schedule console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.start(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&c.accountID, "account", "", "account group id to work in")

	root.AddCommand(
		c.loginCommand(),
		c.signupCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.accountsCommand(),
		c.dashboardCommand(),
		c.calendarCommand(),
		c.ratioCommand(),
		c.openShiftsCommand(),
		c.requestCommand(),
		c.kidsCommand(),
		c.deviceCommand(),
		c.teamCommand(),
		c.onsiteCommand(),
		c.reportCommand(),
	)
	return root
}

func (c *cli) start(cmd *cobra.Command) error {
	config.LoadEnv()

	conf, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(conf.Log.Environment); err != nil {
		return err
	}

	c.app, err = app.New(conf, zap.L())
	if err != nil {
		return err
	}
	return c.app.Start(cmd.Context(), c.accountID)
}

func (c *cli) requireSession() error {
	if !c.app.Session.State().IsAuthenticated() {
		return fmt.Errorf("%w: run `staffmonitr login` first", console.ErrNotAuthenticated)
	}
	return nil
}

// displayError unwraps action errors to the message shown to users
func displayError(err error) error {
	var actionErr *console.ActionError
	if errors.As(err, &actionErr) {
		return errors.New(actionErr.Message)
	}
	return err
}
