package config

import (
	"flag"
	"fmt"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestDefaultNormalizeClampsValidationConcurrency(t *testing.T) {
	cfg := Default()
	cfg.ValidationConcurrency = 999
	cfg.Normalize()
	require.Equal(t, ValidationConcurrencyCap, cfg.ValidationConcurrency)
}

func TestNormalizeFallsBackOnZeroWeights(t *testing.T) {
	cfg := Default()
	cfg.APIScoreWeight = 0
	cfg.LatencyScoreWeight = 0
	cfg.Normalize()

	wAPI, wLat := cfg.NormalizedWeights()
	require.Equal(t, 1.0, wAPI)
	require.Equal(t, 0.0, wLat)
}

func TestNormalizedWeightsSumToOne(t *testing.T) {
	cfg := Default()
	cfg.APIScoreWeight = 3
	cfg.LatencyScoreWeight = 1

	wAPI, wLat := cfg.NormalizedWeights()
	require.InDelta(t, 1.0, wAPI+wLat, 1e-9)
	require.InDelta(t, 0.75, wAPI, 1e-9)
}

func TestLoadAppliesFlagOverOneDefault(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse([]string{"--tasks-per-round", "3"}))

	app := cli.NewApp()
	ctx := cli.NewContext(app, set, nil)

	cfg, err := Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.TasksPerRound)
	// Untouched fields keep their Default() value.
	require.Equal(t, Default().RoundCadenceSeconds, cfg.RoundCadenceSeconds)
}

func TestLoadRejectsMissingConfigFile(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse([]string{"--config", "/nonexistent/alphacore.toml"}))

	app := cli.NewApp()
	ctx := cli.NewContext(app, set, nil)

	_, err := Load(ctx)
	require.Error(t, err)
}

// TestLoadOnlyOverridesExplicitlySetFields renders Default() and the
// flag-applied Config side by side and diffs them, so a failure shows
// exactly which fields drifted instead of one opaque struct mismatch.
func TestLoadOnlyOverridesExplicitlySetFields(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse([]string{"--burn-uid", "7"}))

	app := cli.NewApp()
	ctx := cli.NewContext(app, set, nil)

	cfg, err := Load(ctx)
	require.NoError(t, err)

	want := Default()
	want.BurnUID = 7
	want.Normalize()

	d := diff.Diff(fmt.Sprintf("%+v", want), fmt.Sprintf("%+v", cfg))
	require.Empty(t, d, "config diverged from expected:\n%s", d)
}

func TestNewReloaderWithoutFileIsNoop(t *testing.T) {
	cfg := Default()
	r, err := NewReloader(cfg)
	require.NoError(t, err)
	defer r.Close()

	pending := r.Pending()
	require.Equal(t, cfg.TasksPerRound, pending.TasksPerRound)
}
