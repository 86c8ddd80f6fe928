package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/luxapientia/alphacore-sub000/config"
	"github.com/luxapientia/alphacore-sub000/ledger"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "print recent round summaries from the ledger directory",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Value: 10, Usage: "max number of rounds to show"},
	},
	Action: statusAction,
}

func statusAction(cliCtx *cli.Context) error {
	cfg, err := config.Load(cliCtx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	summaries, err := ledger.ListSummaries(cfg.LedgerDir + "/rounds")
	if err != nil {
		return fmt.Errorf("listing round summaries: %w", err)
	}
	if limit := cliCtx.Int("limit"); limit > 0 && limit < len(summaries) {
		summaries = summaries[:limit]
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"round", "phase", "finished", "tasks", "miners", "top uid", "top weight"})
	for _, s := range summaries {
		topUID, topWeight := topWeight(s.SettledWeights)
		table.Append([]string{
			s.RoundID,
			s.Phase,
			s.FinishedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(s.TaskCount),
			strconv.Itoa(s.ActiveMiners),
			topUID,
			topWeight,
		})
	}
	table.Render()
	return nil
}

// topWeight returns the uid/weight pair with the largest settled weight,
// the same "who won this round" glance an operator wants from the table.
func topWeight(weights map[int64]float64) (string, string) {
	if len(weights) == 0 {
		return "-", "-"
	}
	uids := make([]int64, 0, len(weights))
	for uid := range weights {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return weights[uids[i]] > weights[uids[j]] })
	best := uids[0]
	return strconv.FormatInt(best, 10), strconv.FormatFloat(weights[best], 'f', 4, 64)
}
