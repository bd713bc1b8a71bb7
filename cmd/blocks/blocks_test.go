package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/iso"
	"blockscape.ai/internal/gen/region"
	"blockscape.ai/internal/scene"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSeedCmd(t *testing.T) {
	out, err := run(t, "seed", "0x3039")
	require.NoError(t, err)
	require.Equal(t, "seed=12345 hex=3039\n", out)

	out, err = run(t, "seed", "hello world")
	require.NoError(t, err)
	require.Contains(t, out, `hex=b94d27b9934d3e08 name="hello world"`)
}

func TestQueryCmd(t *testing.T) {
	out, err := run(t, "query", "--seed", "12345", "--viewport", "0.4,0.4,0.6,0.6", "--json=false")
	require.NoError(t, err)

	blocks, _, err := region.Collect(region.DefaultConfig(), region.Region{Seed: 12345, Bounds: geom.UnitSquare}, geom.R(0.4, 0.4, 0.6, 0.6))
	require.NoError(t, err)
	require.Contains(t, out, "blocks=1507 ")
	require.Contains(t, out, "ascent_steps=0 ")
	require.Contains(t, out, "digest="+scene.Digest(blocks))

	out, err = run(t, "query", "--seed", "12345", "--viewport", "0.4,0.4,0.6,0.6", "--json")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1507)
	var first region.Block
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, blocks[0], first)
}

func TestQueryCmd_RepeatedRunsKeepViewport(t *testing.T) {
	first, err := run(t, "query", "--seed", "7", "--viewport", "0.2,0.2,0.8,0.8")
	require.NoError(t, err)
	second, err := run(t, "query", "--seed", "7", "--viewport", "0.2,0.2,0.8,0.8")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestQueryCmd_BadViewport(t *testing.T) {
	_, err := run(t, "query", "--seed", "1", "--viewport", "0,0,1", "--json=false")
	require.Error(t, err)
	_, err = run(t, "query", "--seed", "1", "--viewport", "1,0,0,1", "--json=false")
	require.Error(t, err)
}

func TestAscendCmd(t *testing.T) {
	out, err := run(t, "ascend", "--seed", "12345", "--viewport", "-1,-1,2,2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, []string{"0", "seed=12345"}, strings.Split(lines[0], "\t")[:2])
	require.True(t, strings.HasPrefix(lines[1], "1\tseed=12344\t"))
	require.Equal(t, "ascent_steps=1", lines[len(lines)-1])
}

func TestProjectCmd(t *testing.T) {
	out, err := run(t, "project", "--rect", "0,0,1,1", "--height", "0.5")
	require.NoError(t, err)
	var faces iso.Faces
	require.NoError(t, json.Unmarshal([]byte(out), &faces))
	require.Equal(t, iso.ProjectBlock(region.Block{Rect: geom.UnitSquare, Height: 0.5}), faces)
}
