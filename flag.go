package main

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/openrouter-inspector/openrouter-inspector/internal/format"
	"github.com/shopspring/decimal"
)

var (
	shorthandRe  = regexp.MustCompile(`unknown shorthand flag: '.*' in (-\w)`)
	invalidArgRe = regexp.MustCompile(`invalid argument ".*" for "(.*)" flag: .*`)
)

func newFlagParseError(err error) flagParseError {
	var reason, flag string
	s := err.Error()
	switch {
	case strings.HasPrefix(s, "flag needs an argument:"):
		reason = "Flag %s needs an argument."
		ps := strings.Split(s, "-")
		switch len(ps) {
		case 2: //nolint:mnd
			flag = "-" + ps[len(ps)-1]
		case 3: //nolint:mnd
			flag = "--" + ps[len(ps)-1]
		}
	case strings.HasPrefix(s, "unknown flag:"):
		reason = "Flag %s is missing."
		flag = strings.TrimPrefix(s, "unknown flag: ")
	case strings.HasPrefix(s, "unknown shorthand flag:"):
		reason = "Short flag %s is missing."
		if parts := shorthandRe.FindStringSubmatch(s); len(parts) > 1 {
			flag = parts[1]
		}
	case strings.HasPrefix(s, "invalid argument"):
		reason = "Flag %s have an invalid argument."
		if parts := invalidArgRe.FindStringSubmatch(s); len(parts) > 1 {
			flag = parts[1]
		}
	case strings.HasPrefix(s, "if any flags in the group"):
		reason = "Flags %s cannot be used together."
		if i := strings.Index(s, "["); i >= 0 {
			if j := strings.Index(s[i:], "]"); j >= 0 {
				flag = "--" + strings.Join(strings.Fields(s[i+1:i+j]), ", --")
			}
		}
	default:
		reason = s
	}
	return flagParseError{
		err:    err,
		reason: reason,
		flag:   flag,
	}
}

type flagParseError struct {
	err    error
	reason string
	flag   string
}

func (f flagParseError) Error() string {
	return f.err.Error()
}

func (f flagParseError) ReasonFormat() string {
	return f.reason
}

func (f flagParseError) Flag() string {
	return f.flag
}

func newDurationFlag(val time.Duration, p *time.Duration) *durationFlag {
	*p = val
	return (*durationFlag)(p)
}

// durationFlag accepts Go durations, day/week units and plain seconds.
type durationFlag time.Duration

func (d *durationFlag) Set(s string) error {
	v, err := parseDuration(s)
	*d = durationFlag(v)
	return err
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	//nolint: wrapcheck
	return duration.Parse(s)
}

func (d *durationFlag) String() string {
	return time.Duration(*d).String()
}

func (*durationFlag) Type() string {
	return "duration"
}

func newTokensFlag(p *int) *tokensFlag {
	return (*tokensFlag)(p)
}

// tokensFlag is a token count such as 128K or 131072.
type tokensFlag int

func (t *tokensFlag) Set(s string) error {
	v, err := format.ParseTokens(s)
	if err != nil {
		return err //nolint:wrapcheck
	}
	*t = tokensFlag(v)
	return nil
}

func (t *tokensFlag) String() string {
	if *t == 0 {
		return ""
	}
	return strconv.Itoa(int(*t))
}

func (*tokensFlag) Type() string {
	return "tokens"
}

func newDecimalFlag(p **decimal.Decimal) *decimalFlag {
	return &decimalFlag{p}
}

// decimalFlag is an optional decimal value, nil until set.
type decimalFlag struct {
	p **decimal.Decimal
}

func (d *decimalFlag) Set(s string) error {
	v, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return err //nolint:wrapcheck
	}
	*d.p = &v
	return nil
}

func (d *decimalFlag) String() string {
	if *d.p == nil {
		return ""
	}
	return (*d.p).String()
}

func (*decimalFlag) Type() string {
	return "decimal"
}
