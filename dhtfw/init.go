package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/itohio/dhtfw/pkg/config"
)

func (a *app) initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with every field filled in",
		Long: `Write the --settings file with defaults for every field it does not
set yet. Environment overrides are not written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.settingsPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			settings, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := settings.Save(path); err != nil {
				return err
			}
			a.log.Info("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")
	return cmd
}
