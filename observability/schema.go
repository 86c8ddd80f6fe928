package observability

import (
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

const schemaString = `
	schema {
		query: Query
	}

	type Query {
		round(roundID: String!): RoundSummary
		rounds(limit: Int!): [RoundSummary!]!
	}

	type RoundSummary {
		roundID: String!
		phase: String!
		taskCount: Int!
		activeMiners: Int!
		scores: [MinerScore!]!
	}

	type MinerScore {
		uid: Int!
		score: Float!
	}
`

// SummaryProvider is the read-only data source the GraphQL resolver queries.
// FileSummaryProvider, reading the round summary files, is the production
// implementer; nothing in this package ever writes through it.
type SummaryProvider interface {
	RoundSummary(roundID string) (RoundSummaryView, bool)
	RecentRoundSummaries(limit int) []RoundSummaryView
}

// RoundSummaryView is the subset of round state the GraphQL schema exposes.
type RoundSummaryView struct {
	RoundID      string
	Phase        string
	TaskCount    int
	ActiveMiners int
	Scores       map[int64]float64
}

type minerScoreResolver struct {
	uid   int64
	score float64
}

func (r *minerScoreResolver) UID() int32   { return int32(r.uid) }
func (r *minerScoreResolver) Score() float64 { return r.score }

type roundSummaryResolver struct{ v RoundSummaryView }

func (r *roundSummaryResolver) RoundID() string { return r.v.RoundID }
func (r *roundSummaryResolver) Phase() string   { return r.v.Phase }
func (r *roundSummaryResolver) TaskCount() int32 { return int32(r.v.TaskCount) }
func (r *roundSummaryResolver) ActiveMiners() int32 { return int32(r.v.ActiveMiners) }
func (r *roundSummaryResolver) Scores() []*minerScoreResolver {
	out := make([]*minerScoreResolver, 0, len(r.v.Scores))
	for uid, score := range r.v.Scores {
		out = append(out, &minerScoreResolver{uid: uid, score: score})
	}
	return out
}

type queryResolver struct{ provider SummaryProvider }

func (q *queryResolver) Round(args struct{ RoundID string }) *roundSummaryResolver {
	v, ok := q.provider.RoundSummary(args.RoundID)
	if !ok {
		return nil
	}
	return &roundSummaryResolver{v: v}
}

func (q *queryResolver) Rounds(args struct{ Limit int32 }) []*roundSummaryResolver {
	views := q.provider.RecentRoundSummaries(int(args.Limit))
	out := make([]*roundSummaryResolver, 0, len(views))
	for _, v := range views {
		out = append(out, &roundSummaryResolver{v: v})
	}
	return out
}

// NewGraphQLHandler builds the relay HTTP handler serving round summaries
// read-only over provider.
func NewGraphQLHandler(provider SummaryProvider) (http.Handler, error) {
	schema, err := graphql.ParseSchema(schemaString, &queryResolver{provider: provider})
	if err != nil {
		return nil, err
	}
	return &relay.Handler{Schema: schema}, nil
}
