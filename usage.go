package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

func useLine() string {
	name := filepath.Base(os.Args[0])

	if stdoutRenderer().ColorProfile() == termenv.TrueColor {
		name = makeGradientText(stdoutStyles().AppName, name)
	}

	return fmt.Sprintf(
		"%s %s",
		name,
		stdoutStyles().CliArgs.Render("[OPTIONS] COMMAND [ARGS]"),
	)
}

func usageFunc(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	if cmd.HasParent() {
		_, _ = fmt.Fprintf(out, "%s\n\nUsage:\n  %s\n", cmd.Short, cmd.UseLine())
		if len(cmd.Aliases) > 0 {
			_, _ = fmt.Fprintf(out, "\nAliases:\n  %s\n", cmd.NameAndAliases())
		}
	} else {
		_, _ = fmt.Fprintf(out, "Inspect OpenRouter models, provider offers and latency.\n\n")
		_, _ = fmt.Fprintf(out, "Usage:\n  %s\n", useLine())
	}

	if cmd.HasAvailableSubCommands() {
		_, _ = fmt.Fprintln(out, "\nCommands:")
		for _, c := range cmd.Commands() {
			if !c.IsAvailableCommand() {
				continue
			}
			_, _ = fmt.Fprintf(
				out,
				"  %-22s %s\n",
				stdoutStyles().Flag.Render(c.Name()),
				stdoutStyles().FlagDesc.Render(c.Short),
			)
		}
	}

	_, _ = fmt.Fprintln(out, "\nOptions:")
	printFlags := func(f *flag.Flag) {
		if f.Hidden {
			return
		}
		if f.Shorthand == "" {
			_, _ = fmt.Fprintf(
				out,
				"  %-44s %s\n",
				stdoutStyles().Flag.Render("--"+f.Name),
				stdoutStyles().FlagDesc.Render(f.Usage),
			)
		} else {
			_, _ = fmt.Fprintf(
				out,
				"  %s%s %-40s %s\n",
				stdoutStyles().Flag.Render("-"+f.Shorthand),
				stdoutStyles().FlagComma,
				stdoutStyles().Flag.Render("--"+f.Name),
				stdoutStyles().FlagDesc.Render(f.Usage),
			)
		}
	}
	cmd.LocalFlags().VisitAll(printFlags)
	if cmd.HasParent() {
		cmd.InheritedFlags().VisitAll(printFlags)
	}

	desc, example := randomExample(cmd)
	_, _ = fmt.Fprintf(
		out,
		"\nExample:\n  %s\n  %s\n",
		stdoutStyles().Comment.Render("# "+desc),
		cheapHighlighting(stdoutStyles(), example),
	)
	return nil
}
