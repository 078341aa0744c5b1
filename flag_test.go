package main

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var flagParseErrorTests = []struct {
	in     string
	flag   string
	reason string
}{
	{
		"unknown flag: --nope",
		"--nope",
		"Flag %s is missing.",
	},
	{
		"flag needs an argument: --delete",
		"--delete",
		"Flag %s needs an argument.",
	},
	{
		"flag needs an argument: 'd' in -d",
		"-d",
		"Flag %s needs an argument.",
	},
	{
		`invalid argument "20dd" for "--delete-older-than" flag: time: unknown unit "dd" in duration "20dd"`,
		"--delete-older-than",
		"Flag %s have an invalid argument.",
	},
	{
		`invalid argument "sdfjasdl" for "--max-tokens" flag: strconv.ParseInt: parsing "sdfjasdl": invalid syntax`,
		"--max-tokens",
		"Flag %s have an invalid argument.",
	},
	{
		`invalid argument "nope" for "-r, --raw" flag: strconv.ParseBool: parsing "nope": invalid syntax`,
		"-r, --raw",
		"Flag %s have an invalid argument.",
	},
	{
		"unknown shorthand flag: 'x' in -x",
		"-x",
		"Short flag %s is missing.",
	},
	{
		"if any flags in the group [tools no-tools] are set none of the others can be; [no-tools tools] were set",
		"--tools, --no-tools",
		"Flags %s cannot be used together.",
	},
}

func TestFlagParseError(t *testing.T) {
	for _, tf := range flagParseErrorTests {
		t.Run(tf.in, func(t *testing.T) {
			err := newFlagParseError(errors.New(tf.in))
			require.Equal(t, tf.flag, err.Flag())
			require.Equal(t, tf.reason, err.ReasonFormat())
			require.Equal(t, tf.in, err.Error())
		})
	}
}

func TestDurationFlag(t *testing.T) {
	var d time.Duration
	f := newDurationFlag(time.Second, &d)
	require.Equal(t, time.Second, d)
	require.Equal(t, "duration", f.Type())

	for in, want := range map[string]time.Duration{
		"30":     30 * time.Second,
		"1m30s":  90 * time.Second,
		"250ms":  250 * time.Millisecond,
		"2d":     48 * time.Hour,
		" 5 ":    5 * time.Second,
		"1h0m0s": time.Hour,
	} {
		t.Run(in, func(t *testing.T) {
			require.NoError(t, f.Set(in))
			require.Equal(t, want, d)
			require.Equal(t, want.String(), f.String())
		})
	}

	require.Error(t, f.Set("soon"))
}

func TestTokensFlag(t *testing.T) {
	var n int
	f := newTokensFlag(&n)
	require.Empty(t, f.String())
	require.Equal(t, "tokens", f.Type())

	require.NoError(t, f.Set("128K"))
	require.Equal(t, 128000, n)
	require.NoError(t, f.Set("131072"))
	require.Equal(t, "131072", f.String())
	require.Error(t, f.Set("lots"))
}

func TestDecimalFlag(t *testing.T) {
	var p *decimal.Decimal
	f := newDecimalFlag(&p)
	require.Empty(t, f.String())
	require.Equal(t, "decimal", f.Type())

	require.NoError(t, f.Set("$0.5"))
	require.NotNil(t, p)
	require.True(t, decimal.RequireFromString("0.5").Equal(*p))
	require.Equal(t, "0.5", f.String())
	require.Error(t, f.Set("cheap"))
}
