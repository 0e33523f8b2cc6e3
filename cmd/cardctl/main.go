package main

import (
	"cardbook/internal/config"
	"cardbook/internal/engine"
	"cardbook/internal/geo"
	"cardbook/internal/logging"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cardctl",
		Short:         "Query a contacts file from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newListCmd(), newFacetsCmd(), newGeocodeCmd())
	return root
}

func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

type listOptions struct {
	search    string
	industry  string
	country   string
	date      string
	sort      string
	dir       string
	page      int
	columns   []string
	selectAll bool
	selected  []string
	format    string
}

func newListCmd() *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Filter, sort and page the contact table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, err := engine.LoadFile(cfg.Data.Path, log)
			if err != nil {
				return err
			}
			state, err := opts.state(cfg.Table.PageSize)
			if err != nil {
				return err
			}
			view := engine.Derive(store, state, time.Now())
			return renderView(cmd.OutOrStdout(), view, opts.format)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.search, "search", "s", "", "case-insensitive text search")
	f.StringVar(&opts.industry, "industry", engine.All, "industry filter")
	f.StringVar(&opts.country, "country", engine.All, "country filter")
	f.StringVar(&opts.date, "date", string(engine.BucketAll), "collected within: all, 7d, 30d, 60d")
	f.StringVar(&opts.sort, "sort", "", "sort column")
	f.StringVar(&opts.dir, "dir", string(engine.Ascending), "sort direction: asc, desc")
	f.IntVarP(&opts.page, "page", "p", 1, "page number")
	f.StringSliceVar(&opts.columns, "columns", nil, "visible columns (default all)")
	f.BoolVar(&opts.selectAll, "select-all", false, "select every filtered row")
	f.StringSliceVar(&opts.selected, "select", nil, "select rows by id")
	f.StringVarP(&opts.format, "format", "o", "table", "output format: table, json")
	return cmd
}

// state replays the options through the reducer, in the order a user would
// click them.
func (o listOptions) state(pageSize int) (engine.State, error) {
	bucket, err := engine.ParseDateBucket(o.date)
	if err != nil {
		return engine.State{}, err
	}
	actions := []engine.Action{
		engine.SetPageSize{Size: pageSize},
		engine.SetSearch{Query: o.search},
		engine.SetIndustry{Value: o.industry},
		engine.SetCountry{Value: o.country},
		engine.SetDateBucket{Bucket: bucket},
	}
	if o.sort != "" {
		dir, err := engine.ParseDirection(o.dir)
		if err != nil {
			return engine.State{}, err
		}
		actions = append(actions, engine.SetSort{Sort: engine.SortDescriptor{Column: o.sort, Direction: dir}})
	}
	if len(o.columns) > 0 {
		actions = append(actions, engine.SetVisibleColumns{Keys: o.columns})
	}
	switch {
	case o.selectAll:
		actions = append(actions, engine.SelectAllRows{})
	case len(o.selected) > 0:
		actions = append(actions, engine.SelectKeys{IDs: o.selected})
	}
	actions = append(actions, engine.SetPage{Page: o.page})

	// Round-trip through JSON so bad column names are rejected the same way
	// the API rejects them.
	s := engine.DefaultState()
	for _, a := range actions {
		s = engine.Reduce(s, a)
	}
	raw, err := s.MarshalJSON()
	if err != nil {
		return engine.State{}, err
	}
	var checked engine.State
	if err := checked.UnmarshalJSON(raw); err != nil {
		return engine.State{}, err
	}
	return checked, nil
}

func newFacetsCmd() *cobra.Command {
	var attribute string
	cmd := &cobra.Command{
		Use:   "facets",
		Short: "List the distinct values of an attribute",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, err := engine.LoadFile(cfg.Data.Path, log)
			if err != nil {
				return err
			}
			values, err := engine.DistinctValues(store.Rows, attribute)
			if err != nil {
				return err
			}
			return renderList(cmd.OutOrStdout(), attribute, values)
		},
	}
	cmd.Flags().StringVarP(&attribute, "attribute", "a", "industry", "industry, country, city or company")
	return cmd
}

func newGeocodeCmd() *cobra.Command {
	var address, city, country string
	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Resolve a location with API and fallback table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			g, err := geo.New(geo.Config{
				BaseURL:   cfg.Geocoder.BaseURL,
				UserAgent: cfg.Geocoder.UserAgent,
				RPS:       cfg.Geocoder.RPS,
				Timeout:   cfg.Geocoder.Timeout,
				CacheSize: cfg.Geocoder.CacheSize,
			}, log)
			if err != nil {
				return err
			}
			res := g.SmartGeocode(cmd.Context(), address, city, country)
			if res == nil {
				return fmt.Errorf("no location found for %q", joinNonEmpty(address, city, country))
			}
			return renderLocation(cmd.OutOrStdout(), res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&address, "address", "", "street address")
	f.StringVar(&city, "city", "", "city")
	f.StringVar(&country, "country", "", "country")
	return cmd
}
