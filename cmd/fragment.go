package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/wkalt/distplan/fragment"
	"github.com/wkalt/distplan/util"
)

const fragmentHelp = `Enter a fragment such as
  [grpcsink ("kelvin:59300" 1) [filter (latency_ms > 100) [memsrc (http_events)]]]
to check it and print its normalized form. Brackets may span lines.

  \json    toggle printing the rendered encoding
  help     print this message`

var fragmentJSON bool

var fragmentCmd = &cobra.Command{
	Use:   "fragment [text]",
	Short: "Check fragments, interactively when no argument is given",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 {
			checkErr(evalFragment(os.Stdout, args[0], fragmentJSON))
			return
		}
		checkErr(fragmentShell())
	},
}

// evalFragment parses text and writes its normalized form, followed by the
// rendered encoding if asJSON is set.
func evalFragment(w io.Writer, text string, asJSON bool) error {
	node, err := fragment.Parse(text)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, node.String())
	if asJSON {
		data, err := node.Render()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	}
	return nil
}

// balanced reports whether every opening bracket in s has been closed.
func balanced(s string) bool {
	return strings.Count(s, "[") <= strings.Count(s, "]")
}

func fragmentShell() error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "fragment # ",
		HistoryFile:     "/tmp/distplan-history.tmp",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer l.Close()
	l.CaptureExitSignal()
	fmt.Println(`Type "help" for help.`)

	asJSON := fragmentJSON
	lines := []string{}
	for {
		line, err := l.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				lines = lines[:0]
				l.SetPrompt("fragment # ")
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "" && len(lines) == 0:
			continue
		case line == "help":
			fmt.Println(fragmentHelp)
			continue
		case line == "\\json":
			asJSON = !asJSON
			fmt.Printf("json output %s\n", util.When(asJSON, "on", "off"))
			continue
		}

		lines = append(lines, line)
		text := strings.Join(lines, " ")
		if !balanced(text) {
			l.SetPrompt("... # ")
			continue
		}
		lines = lines[:0]
		l.SetPrompt("fragment # ")
		if err := l.SaveHistory(text); err != nil {
			return err
		}
		if err := evalFragment(l.Stdout(), text, asJSON); err != nil {
			fmt.Fprintln(l.Stderr(), "ERROR: "+err.Error())
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(fragmentCmd)
	fragmentCmd.PersistentFlags().BoolVarP(&fragmentJSON, "json", "", false, "Print the rendered encoding")
}
