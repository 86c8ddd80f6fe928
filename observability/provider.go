package observability

import (
	"github.com/luxapientia/alphacore-sub000/ledger"
)

// FileSummaryProvider satisfies SummaryProvider by reading the round summary
// JSON files the round gate writes under <ledger_dir>/rounds, so the GraphQL
// and status surfaces never need their own copy of round state in memory.
type FileSummaryProvider struct {
	dir string
}

// NewFileSummaryProvider builds a provider reading round summaries from dir
// (normally Config.LedgerDir + "/rounds").
func NewFileSummaryProvider(dir string) *FileSummaryProvider {
	return &FileSummaryProvider{dir: dir}
}

// RoundSummary looks up one round by id.
func (p *FileSummaryProvider) RoundSummary(roundID string) (RoundSummaryView, bool) {
	summaries, err := ledger.ListSummaries(p.dir)
	if err != nil {
		return RoundSummaryView{}, false
	}
	for _, s := range summaries {
		if s.RoundID == roundID {
			return toView(s), true
		}
	}
	return RoundSummaryView{}, false
}

// RecentRoundSummaries returns up to limit summaries, most recently finished
// first.
func (p *FileSummaryProvider) RecentRoundSummaries(limit int) []RoundSummaryView {
	summaries, err := ledger.ListSummaries(p.dir)
	if err != nil {
		return nil
	}
	if limit > 0 && limit < len(summaries) {
		summaries = summaries[:limit]
	}
	out := make([]RoundSummaryView, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toView(s))
	}
	return out
}

func toView(s ledger.RoundSummary) RoundSummaryView {
	return RoundSummaryView{
		RoundID:      s.RoundID,
		Phase:        s.Phase,
		TaskCount:    s.TaskCount,
		ActiveMiners: s.ActiveMiners,
		Scores:       s.Scores,
	}
}
