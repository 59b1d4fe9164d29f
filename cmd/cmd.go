package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dszqbsm/volby/version"
	"github.com/spf13/cobra"
)

// 根命令：volby <地区地址> <CSV文件>，子命令version打印版本信息
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags runFlags
	rootCmd := &cobra.Command{
		Use:   "volby <regionURL> <outputPath>",
		Short: "collect election results of a region into a CSV file.",
		Long: "collect election results of every municipality in a region from volby.cz,\n" +
			"summing precinct pages where a municipality has no direct results, and write them to a CSV file.",
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 参数个数正确后，后续错误不再打印用法
			cmd.SilenceUsage = true
			return run(cmd.Context(), cmd, flags, args[0], args[1])
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.Flags().StringVar(&flags.configPath, "config", "", "path of the yaml config file")
	rootCmd.Flags().StringVar(&flags.listingURL, "listing", "", "listing page the region address is validated against")
	rootCmd.Flags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.Flags().StringVar(&flags.logFile, "log-file", "", "also write logs to this file")
	rootCmd.Flags().IntVar(&flags.workers, "workers", 0, "number of municipalities processed at the same time")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print version.",
		Long:  "print version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version.Printer(cmd.OutOrStdout())
		},
	})
	return rootCmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		stop()
		os.Exit(1)
	}
}
