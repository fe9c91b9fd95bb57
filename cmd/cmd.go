package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ndnfwd/corefwd/core"
	"github.com/spf13/cobra"
)

var config = core.DefaultConfig()

// CmdCorefwd is the daemon's root cobra command: corefwd CONFIG-FILE.
var CmdCorefwd = &cobra.Command{
	Use:   "corefwd CONFIG-FILE",
	Short: "A minimal NDN forwarding daemon",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	CmdCorefwd.Flags().StringVar(&config.CpuProfile, "cpu-profile", "", "Write CPU profile to file")
	CmdCorefwd.Flags().StringVar(&config.MemProfile, "mem-profile", "", "Write memory profile to file")
	CmdCorefwd.Flags().StringVar(&config.BlockProfile, "block-profile", "", "Write block profile to file")
}

func run(cmd *cobra.Command, args []string) error {
	configFile := args[0]
	config.BaseDir = filepath.Dir(configFile)

	if err := core.ReadYamlConfig(config, configFile); err != nil {
		return err
	}

	daemon, err := NewDaemon(config)
	if err != nil {
		return err
	}
	daemon.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	core.Log.Info(logDaemon, "received signal, exiting", "signal", sig)

	daemon.Stop()
	return nil
}
