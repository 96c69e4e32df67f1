package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/godilite/urbanscore/internal/config"
	"github.com/godilite/urbanscore/internal/datasource"
	"github.com/godilite/urbanscore/internal/ranking"
	"github.com/godilite/urbanscore/internal/service"
	"github.com/godilite/urbanscore/internal/state"
)

func main() {
	_ = godotenv.Load(".env")
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.LoadFromEnv()

	fs := flag.NewFlagSet("rankings", flag.ContinueOnError)
	fs.SetOutput(stderr)
	profileFlag := fs.String("profile", "all", "resident profile: all, general, family, student, senior, low_budget")
	orderFlag := fs.String("order", "desc", "sort order: desc (best first) or asc (worst first)")
	limit := fs.Int("limit", cfg.RankingLimit, "maximum number of neighborhoods")
	baseURL := fs.String("base-url", cfg.APIURL, "ranking data source base URL")
	timeout := fs.Duration("timeout", cfg.DataSourceTimeout, "data source request timeout")
	verbose := fs.Bool("v", false, "log data source requests")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	profile, err := ranking.ParseProfile(*profileFlag)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	order, err := ranking.ParseSortOrder(*orderFlag)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = config.NewLogger(cfg); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer func() { _ = logger.Sync() }()
	}

	source, err := datasource.New(
		datasource.WithBaseURL(*baseURL),
		datasource.WithTimeout(*timeout),
		datasource.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	controller := service.NewController(
		service.NewRankingService(source, *limit, logger),
		state.Selection{Profile: profile, Order: order},
		nil,
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+time.Second)
	defer cancel()

	snap := controller.Refresh(ctx)
	if snap.Status == state.StatusFailed {
		fmt.Fprintln(stderr, snap.Message)
		return 1
	}

	printRanking(stdout, snap)
	return 0
}

func printRanking(w io.Writer, snap state.Snapshot) {
	fmt.Fprintf(w, "Profile: %s, %s\n\n", snap.Selection.Profile, snap.Selection.Order)
	if len(snap.Entries) == 0 {
		fmt.Fprintln(w, "No neighborhoods to display.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"#", "NEIGHBORHOOD", "SCORE", "STARS"}
	for _, c := range ranking.Categories {
		header = append(header, strings.ToUpper(string(c)))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, e := range snap.Entries {
		row := []string{
			fmt.Sprint(e.Rank),
			e.Name,
			fmt.Sprintf("%.1f", e.GlobalScore),
			strings.Repeat("*", e.Stars),
		}
		for _, s := range e.Scores {
			row = append(row, fmt.Sprintf("%.0f", s.Value))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}
