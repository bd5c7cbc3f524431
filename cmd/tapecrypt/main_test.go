package main

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FoxDenHome/tapecrypt/scsi/page"
)

func TestParseArgsSet(t *testing.T) {
	cmd, opts, err := parseArgs(io.Discard, []string{"set", "--mode", "on", "--key-file", "k"})
	require.NoError(t, err)
	assert.Equal(t, CMD_SET, cmd)
	assert.Equal(t, "on", opts.cryptMode)
	assert.Equal(t, "k", opts.keyFile)
}

func TestParseArgsDefaultsToStatus(t *testing.T) {
	cmd, opts, err := parseArgs(io.Discard, nil)
	require.NoError(t, err)
	assert.Equal(t, CMD_STATUS, cmd)
	assert.False(t, opts.detail)

	cmd, opts, err = parseArgs(io.Discard, []string{"--detail", "--device", "/dev/nst1"})
	require.NoError(t, err)
	assert.Equal(t, CMD_STATUS, cmd)
	assert.True(t, opts.detail)
	assert.Equal(t, "/dev/nst1", opts.device)
}

func TestParseArgsCommands(t *testing.T) {
	for _, in := range []string{"status", "SET", "keygen", "journal", "help"} {
		_, _, err := parseArgs(io.Discard, []string{in})
		assert.NoError(t, err, in)
	}
}

func TestParseArgsInvalid(t *testing.T) {
	tests := map[string][]string{
		"unknown command":    {"format"},
		"stray argument":     {"set", "--mode", "on", "extra"},
		"second command":     {"status", "set"},
		"both protect flags": {"set", "--protect", "--unprotect"},
		"unknown mode":       {"set", "--mode", "sometimes"},
		"algorithm range":    {"set", "--algorithm-index", "256"},
		"ceem range":         {"set", "--ceem", "4"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseArgs(io.Discard, args)
			assert.ErrorIs(t, err, errUsage)
		})
	}

	_, _, err := parseArgs(io.Discard, []string{"set", "--rdmc", "protect"})
	assert.Error(t, err)

	_, _, err = parseArgs(io.Discard, []string{"-h"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestResolveConfigFlagsOnly(t *testing.T) {
	_, opts, err := parseArgs(io.Discard, []string{"set", "--protect", "--ckod", "--ceem", "2"})
	require.NoError(t, err)

	config, err := resolveConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "/dev/nst0", config.Device)
	assert.Equal(t, "protect", config.RDMC)
	assert.True(t, config.CKOD)
	assert.Equal(t, uint8(2), config.CEEM)
	assert.Equal(t, uint8(1), config.AlgorithmIndex)

	_, opts, err = parseArgs(io.Discard, []string{"set", "--unprotect"})
	require.NoError(t, err)
	config, err = resolveConfig(opts)
	require.NoError(t, err)

	rdmc, err := parseRDMC(config.RDMC)
	require.NoError(t, err)
	assert.Equal(t, page.RDMC_UNPROTECT, rdmc)
}

func TestResolveConfigFileWithOverrides(t *testing.T) {
	path := writeConfig(t, "tapecrypt.yaml", "device: /dev/nst1\nckod: true\nrdmc: unprotect\nalgorithm-index: 20\n")

	_, opts, err := parseArgs(io.Discard, []string{"set", "--config", path, "--device", "/dev/nst2"})
	require.NoError(t, err)

	config, err := resolveConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "/dev/nst2", config.Device)
	assert.True(t, config.CKOD)
	assert.Equal(t, "unprotect", config.RDMC)
	assert.Equal(t, uint8(20), config.AlgorithmIndex)

	_, opts, err = parseArgs(io.Discard, []string{"set", "--config", path, "--protect"})
	require.NoError(t, err)

	config, err = resolveConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "protect", config.RDMC)
}
