package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "toolctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toolctl",
		Short: "Tool crib code and maintenance CLI",
		Long: `toolctl generates tool identifiers, barcodes, QR payloads and barcode images
offline, checks workshop access rules, and runs database maintenance against the
server's configured database.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newIDCmd(),
		newBarcodeCmd(),
		newQRCmd(),
		newImageCmd(),
		newAccessCmd(),
		newSeedCmd(),
		newExportCmd(),
	)
	return cmd
}
