package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/x/editor"
	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

// Build vars.
var (
	//nolint: gochecknoglobals
	Version   = ""
	CommitSHA = ""
)

func buildVersion() string {
	if Version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
			Version = info.Main.Version
		} else {
			Version = "unknown (built from source)"
		}
	}
	version := "version " + Version
	if len(CommitSHA) >= 7 { //nolint:mnd
		version += " (" + CommitSHA[:7] + ")"
	}
	return version
}

func newRootCmd(a *app) *cobra.Command {
	cfg := a.cfg
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Inspect OpenRouter models, provider offers and latency.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		Version:       buildVersion(),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case cfg.Settings:
				return editSettings(cfg)
			case cfg.ResetSettings:
				return resetSettings(cfg)
			case cfg.List && cfg.Search != "":
				return a.list(cmd.Context(), append([]string{cfg.Search}, args...), listOptions{})
			case cfg.Search != "":
				return a.search(cmd.Context(), strings.TrimSpace(cfg.Search+" "+strings.Join(args, " ")), searchOptions{})
			case cfg.List:
				return a.list(cmd.Context(), args, listOptions{})
			case len(args) > 0:
				return inspectorError{
					err:    newUserErrorf("Unknown command %q.", args[0]),
					reason: "Nothing to do.",
				}
			default:
				return cmd.Usage()
			}
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.SetVersionTemplate(appName + " {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringP("config-file", "", cfg.SettingsPath, help["config-file"])
	flags.StringVarP(&cfg.Format, "format", "f", cfg.Format, help["format"])
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, help["debug"])
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, help["quiet"])
	flags.BoolVarP(&cfg.Copy, "copy", "c", cfg.Copy, help["copy"])
	flags.BoolVar(&cfg.NoCache, "no-cache", cfg.NoCache, help["no-cache"])
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(outputFormats, cobra.ShellCompDirectiveNoFileComp))

	local := cmd.Flags()
	local.BoolVar(&cfg.Settings, "settings", false, help["settings"])
	local.BoolVar(&cfg.ResetSettings, "reset-settings", false, help["reset-settings"])
	local.BoolVarP(&cfg.List, "list", "l", false, help["list"])
	local.StringVarP(&cfg.Search, "search", "s", "", help["search"])
	local.BoolP("version", "v", false, help["version"])
	local.SortFlags = false
	cmd.MarkFlagsMutuallyExclusive("settings", "reset-settings", "list")
	cmd.MarkFlagsMutuallyExclusive("settings", "reset-settings", "search")

	cmd.SetUsageFunc(usageFunc)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newFlagParseError(err)
	})

	cmd.AddCommand(
		newListCmd(a),
		newSearchCmd(a),
		newEndpointsCmd(a),
		newCheckCmd(a),
		newPingCmd(a),
		newDetailsCmd(a),
		newSnapshotsCmd(a),
		newManCmd(cmd),
	)
	for _, c := range cmd.Commands() {
		c.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
			return newFlagParseError(err)
		})
	}
	return cmd
}

func newManCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:                   "man",
		Short:                 "Generate the man page",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manPage, err := mcobra.NewManPage(1, root)
			if err != nil {
				//nolint:wrapcheck
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), manPage.Build(roff.NewDocument()))
			//nolint:wrapcheck
			return err
		},
	}
}

func main() {
	cfg := defaultConfig()
	if !isCompletionCmd(os.Args) && !isManCmd(os.Args) {
		var err error
		cfg, err = ensureConfig(configFileArg(os.Args[1:]))
		if err != nil {
			handleError(err)
			os.Exit(1)
		}
	}

	a := newApp(&cfg, os.Stdout, os.Stderr)
	err := newRootCmd(a).ExecuteContext(context.Background())
	if cerr := a.close(); cerr != nil {
		a.logger.Debug("close", "err", cerr)
	}
	if err != nil {
		var xerr exitError
		if errors.As(err, &xerr) {
			os.Exit(xerr.code)
		}
		handleError(explainError(err))
		os.Exit(1)
	}
}

func handleError(err error) {
	writeError(os.Stderr, stderrStyles(), err)
}

func writeError(w io.Writer, s styles, err error) {
	format := "\n%s\n\n"

	var args []any
	var ferr flagParseError
	var ierr inspectorError
	if errors.As(err, &ferr) {
		format += "%s\n\n"
		args = []any{
			fmt.Sprintf(
				"Check out %s %s",
				s.InlineCode.Render(appName+" -h"),
				s.Comment.Render("for help."),
			),
			fmt.Sprintf(
				ferr.ReasonFormat(),
				s.InlineCode.Render(ferr.Flag()),
			),
		}
	} else if errors.As(err, &ierr) {
		format += "%s\n\n"
		args = []any{
			s.ErrPadding.Render(s.ErrorHeader.String(), ierr.reason),
			s.ErrPadding.Render(s.ErrorDetails.Render(ierr.Error())),
		}
	} else {
		args = []any{
			s.ErrPadding.Render(s.ErrorDetails.Render(err.Error())),
		}
	}

	_, _ = fmt.Fprintf(w, format, args...)
}

func editSettings(cfg *Config) error {
	c, err := editor.Cmd(appName, cfg.SettingsPath)
	if err != nil {
		return inspectorError{err, "Could not edit your settings file."}
	}
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return inspectorError{err, fmt.Sprintf("Missing %s.", stderrStyles().InlineCode.Render("$EDITOR"))}
	}

	if !cfg.Quiet {
		fmt.Fprintln(os.Stderr, "Wrote config file to:", cfg.SettingsPath)
	}
	return nil
}

func resetSettings(cfg *Config) error {
	content, err := os.ReadFile(cfg.SettingsPath)
	if err != nil {
		return inspectorError{err, "Couldn't read config file."}
	}
	if err := os.WriteFile(cfg.SettingsPath+".bak", content, 0o600); err != nil { //nolint:mnd
		return inspectorError{err, "Couldn't backup config file."}
	}
	if err := os.Remove(cfg.SettingsPath); err != nil {
		return inspectorError{err, "Couldn't remove config file."}
	}
	if err := createConfigFile(cfg.SettingsPath); err != nil {
		return inspectorError{err, "Couldn't create new config file."}
	}

	if !cfg.Quiet {
		fmt.Fprintln(os.Stderr, "\n  Settings restored to defaults!")
		fmt.Fprintf(os.Stderr,
			"\n  %s %s\n\n",
			stderrStyles().Comment.Render("Your old settings have been saved to:"),
			stderrStyles().Link.Render(cfg.SettingsPath+".bak"),
		)
	}
	return nil
}

// isCompletionCmd reports whether the special completion command is being
// run, in which case no settings are loaded.
func isCompletionCmd(args []string) bool {
	if len(args) <= 1 {
		return false
	}
	if args[1] == "__complete" {
		return true
	}
	if args[1] != "completion" {
		return false
	}
	if len(args) == 3 { //nolint:mnd
		_, ok := map[string]any{
			"bash":       nil,
			"fish":       nil,
			"zsh":        nil,
			"powershell": nil,
			"-h":         nil,
			"--help":     nil,
			"help":       nil,
		}[args[2]]
		return ok
	}
	if len(args) == 4 { //nolint:mnd
		_, ok := map[string]any{
			"-h":     nil,
			"--help": nil,
		}[args[3]]
		return ok
	}
	return false
}

// isManCmd reports whether the hidden man command is being run.
func isManCmd(args []string) bool {
	if len(args) == 2 { //nolint:mnd
		return args[1] == "man"
	}
	if len(args) != 3 || args[1] != "man" { //nolint:mnd
		return false
	}
	_, ok := map[string]any{
		"-h":     nil,
		"--help": nil,
	}[args[2]]
	return ok
}
