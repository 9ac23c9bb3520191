package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"KLife/internal/catalog"
	"KLife/internal/config"
	"KLife/pkg/kit"
)

const cmdTimeout = 30 * time.Second

type rootOpts struct {
	file string
	dsn  string

	metricsSecret string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Operate the K-LIFE product catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadTool()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("file") {
				opts.file = cfg.Catalog.File
			}
			if !cmd.Flags().Changed("dsn") {
				opts.dsn = cfg.Catalog.DSN
			}
			opts.metricsSecret = cfg.MetricsSecret
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.file, "file", "", "catalog YAML file (default: embedded catalog, env CATALOG_FILE)")
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "catalog database DSN (env CATALOG_DSN)")

	root.AddCommand(
		newValidateCmd(opts),
		newGetCmd(opts),
		newFetchCmd(),
		newSeedCmd(opts),
		newScrapeTokenCmd(opts),
	)
	return root
}

func newValidateCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a catalog YAML file for unknown fields and duplicate ids",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.file
			if len(args) == 1 {
				path = args[0]
			}

			var (
				products []catalog.Product
				err      error
			)
			if path == "" {
				path = "embedded"
				products, err = catalog.DefaultProducts()
			} else {
				products, err = catalog.LoadFile(path)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d products\n", path, len(products))
			return nil
		},
	}
}

func newGetCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Print the response /api/products would give for id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), cmdTimeout)
			defer cancel()

			store, err := catalog.OpenStore(ctx, catalog.Source{File: opts.file, DSN: opts.dsn})
			if err != nil {
				return err
			}

			var id string
			if len(args) == 1 {
				id = args[0]
			}
			resp, err := catalog.BuildProductResponse(ctx, store, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %d\n", resp.Status)
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(resp.Body)
		},
	}
}

func newFetchCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "fetch [id]",
		Short: "Query a running catalog service and print its response",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			}

			status, hdr, raw, err := catalog.NewClient(baseURL).Response(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %d\n", status)
			if cc := hdr.Get("Cache-Control"); cc != "" {
				fmt.Fprintf(out, "cache-control: %s\n", cc)
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, raw, "", "  "); err != nil {
				_, err = out.Write(raw)
				return err
			}
			pretty.WriteByte('\n')
			_, err = pretty.WriteTo(out)
			return err
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8082", "catalog service base URL")
	return cmd
}

func newSeedCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace the products table at --dsn with the catalog from --file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.dsn == "" {
				return errors.New("seed: --dsn is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cmdTimeout)
			defer cancel()

			products, err := catalog.LoadProducts(ctx, catalog.Source{File: opts.file})
			if err != nil {
				return err
			}

			db, dialect, err := catalog.OpenDB(opts.dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := catalog.NewSQLStore(db, dialect).Seed(ctx, products); err != nil {
				return fmt.Errorf("seed %s: %w", dialect, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products into %s\n", len(products), dialect)
			return nil
		},
	}
}

func newScrapeTokenCmd(opts *rootOpts) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scrape-token",
		Short: "Mint a bearer token for reading /metrics (uses METRICS_SECRET)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.metricsSecret == "" {
				return errors.New("scrape-token: METRICS_SECRET is not set")
			}

			tok, err := kit.NewScrapeTokens(opts.metricsSecret).New(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "prometheus", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	return cmd
}
