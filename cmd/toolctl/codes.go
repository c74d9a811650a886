package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/codegen"
	"github.com/zaqqye/toolcrib/internal/repository"
)

func newIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "id <workshop> [existing-id...]",
		Short: "Print the next tool identifier for a workshop",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workshop := args[0]
			store := repository.NewMemoryIdentifierStore(args[1:]...)
			existing, err := store.ListIdentifiers(cmd.Context(), workshop)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), codegen.GenerateToolID(workshop, existing))
			return nil
		},
	}
	return cmd
}

func newBarcodeCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "barcode <workshop>",
		Short: "Generate 12-digit barcodes for a workshop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be at least 1")
			}
			g := codegen.NewGenerator()
			for i := 0; i < count; i++ {
				fmt.Fprintln(cmd.OutOrStdout(), g.GenerateBarcode(args[0]))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of barcodes to print")
	return cmd
}

func newQRCmd() *cobra.Command {
	var parse bool
	cmd := &cobra.Command{
		Use:   "qr <workshop|payload>",
		Short: "Generate a QR payload, or decode one with --parse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !parse {
				fmt.Fprintln(cmd.OutOrStdout(), codegen.GenerateQRCode(args[0]))
				return nil
			}
			p, err := codegen.ParseQRCode(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "workshop=%s created_at=%s\n", p.Workshop, p.CreatedAt.UTC().Format(time.RFC3339Nano))
			return nil
		},
	}
	cmd.Flags().BoolVar(&parse, "parse", false, "Decode the argument as a QR payload")
	return cmd
}

func newImageCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "image <barcode>",
		Short: "Render a barcode as a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			png, err := codegen.GenerateBarcodeImage(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				if output, err = defaultImagePath(args[0]); err != nil {
					return err
				}
			}
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(png))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <barcode>.png)")
	return cmd
}

// defaultImagePath names the file after the barcode. Only all-digit barcodes
// qualify; anything else could name a path outside the working directory.
func defaultImagePath(barcode string) (string, error) {
	if barcode == "" || strings.Trim(barcode, "0123456789") != "" {
		return "", fmt.Errorf("barcode %q is not all digits, pass -o", barcode)
	}
	return barcode + ".png", nil
}

func newAccessCmd() *cobra.Command {
	var role, workshop string
	cmd := &cobra.Command{
		Use:   "access <target-workshop>",
		Short: "Evaluate the workshop access rules for a role and workshop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := access.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			u := access.User{Role: r, Workshop: access.Workshop(workshop)}
			fmt.Fprintf(cmd.OutOrStdout(), "can_access=%t can_edit=%t\n",
				access.CanAccessWorkshop(u, args[0]), access.CanEditTool(u, args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(access.RoleStudent), "Acting user's role")
	cmd.Flags().StringVar(&workshop, "workshop", "", "Acting user's workshop")
	return cmd
}
