package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pior/mcresp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{mcresp.EnvReadSize, mcresp.EnvMaxResponseSize, mcresp.EnvLogLevel, mcresp.EnvLogComponents} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestReplayer(t *testing.T, opts options) (*replayer, *bytes.Buffer) {
	t.Helper()
	clearEnv(t)
	opts.envFile = filepath.Join(t.TempDir(), "missing.env")
	if opts.logLevel == "" {
		opts.logLevel = "error"
	}

	cfg, err := buildConfig(opts)
	require.NoError(t, err)

	r := newReplayer(cfg, opts)
	t.Cleanup(r.close)

	var out bytes.Buffer
	r.out = &out
	return r, &out
}

func TestBuildConfig_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(mcresp.EnvReadSize, "1024")
	t.Setenv(mcresp.EnvMaxResponseSize, "2048")

	cfg, err := buildConfig(options{readSize: 512, envFile: filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.ReadSize)
	assert.Equal(t, 2048, cfg.MaxResponseSize)
	assert.NotNil(t, cfg.Logger)
	assert.NotNil(t, cfg.Stats)
}

func TestBuildConfig_InvalidLogLevel(t *testing.T) {
	clearEnv(t)

	_, err := buildConfig(options{logLevel: "chatty", envFile: filepath.Join(t.TempDir(), "missing.env")})
	assert.ErrorContains(t, err, "chatty")
}

func TestReplayer_Run(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.log", "STORED\r\nVALUE k 0 2\r\nhi\r\nEND\r\nSERVER_ERROR busy\r\n")
	truncated := writeFile(t, dir, "truncated.log", "END\r\nVALUE k 0 5\r\nhe")
	missing := filepath.Join(dir, "missing.log")

	r, out := newTestReplayer(t, options{concurrency: 2, topErrors: 10})

	start := time.Now()
	failed := r.run(context.Background(), []string{good, truncated, missing})
	r.printSummary(out, time.Since(start))

	assert.Equal(t, 2, failed)

	output := out.String()
	assert.Contains(t, output, good+"\t1\tok")
	assert.Contains(t, output, good+"\t2\thit")
	assert.Contains(t, output, good+"\t3\terror")
	assert.Contains(t, output, truncated+"\t1\tmiss")

	assert.Contains(t, output, "Responses: 4 (")
	assert.Contains(t, output, "      1  SERVER_ERROR busy\n")
	assert.Contains(t, output, "Failed sources:")
	assert.Contains(t, output, truncated+": unexpected EOF")
}

func TestReplayer_Quiet(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.log", "END\r\nEND\r\n")

	r, out := newTestReplayer(t, options{concurrency: 1, quiet: true})

	failed := r.run(context.Background(), []string{path})
	assert.Zero(t, failed)
	assert.Empty(t, out.String())
	assert.Equal(t, uint64(2), r.cfg.Stats.Snapshot().Miss)
}

func TestReplayer_Breaker(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bogus.log", "BOGUS\r\nBOGUS\r\nBOGUS\r\nBOGUS\r\nSTORED\r\n")

	r, _ := newTestReplayer(t, options{concurrency: 1, breaker: true, quiet: true})

	failed := r.run(context.Background(), []string{path})
	assert.Equal(t, 1, failed)
	assert.Equal(t, uint64(3), r.cfg.Stats.Snapshot().Unknown)
	assert.Zero(t, r.cfg.Stats.Snapshot().Ok)
}
