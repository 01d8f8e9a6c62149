package main

import (
	"github.com/spf13/cobra"

	"github.com/bmad-code-org/bmad-beads/internal/provision"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Run bd init in the project root",
	Long: `Initialize the Beads database for this project using the provisioned bd
(or bd on PATH). Does nothing if .beads/ already exists.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		prefix, _ := cmd.Flags().GetString("prefix")

		cfg := loadConfig()
		release := acquireRunLock(cfg, "provision")
		defer release()

		p := provision.New(cfg.BMADPath())
		res := p.Initialize(rootCtx, cfg.ProjectDir, cfg.TrackerPath(), prefix)
		if res.Success && res.AlreadyInitialized {
			progress("Beads database already initialized")
		}
		reportProvision(res)
	},
}

func init() {
	initCmd.Flags().String("prefix", "", "Issue ID prefix passed to bd init")
	rootCmd.AddCommand(initCmd)
}
