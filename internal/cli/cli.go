package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Analyze    *AnalyzeCommand
	Keywords   *KeywordsCommand
	Top        *TopCommand
	Invalidate *InvalidateCommand
	Show       *ShowCommand
	Summarize  *SummarizeCommand
	Day        *DayCommand
	Month      *MonthCommand
	Status     *StatusCommand
	Prune      *PruneCommand
	Purge      *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "memoir"
	parser.LongDescription = "Daily browsing activity analytics: time usage by topic and hour, keyword digests, day summaries and a month calendar."

	cmds := &commands{
		Analyze:    &AnalyzeCommand{globals: &globals, version: version},
		Keywords:   &KeywordsCommand{globals: &globals, version: version},
		Top:        &TopCommand{globals: &globals, version: version},
		Invalidate: &InvalidateCommand{globals: &globals, version: version},
		Show:       &ShowCommand{globals: &globals, version: version},
		Summarize:  &SummarizeCommand{globals: &globals, version: version},
		Day:        &DayCommand{globals: &globals, version: version},
		Month:      &MonthCommand{globals: &globals, version: version},
		Status:     &StatusCommand{globals: &globals, version: version},
		Prune:      &PruneCommand{globals: &globals, version: version},
		Purge:      &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("analyze", "Analyze a day of browsing", "Categorize visited pages and report time usage by category and hour.", cmds.Analyze)
	parser.AddCommand("keywords", "Extract keywords from visits", "Extract keywords from visited pages and merge them into today's digest.", cmds.Keywords)
	parser.AddCommand("top", "Show today's top keywords", "Show the most frequent keywords recorded today.", cmds.Top)
	parser.AddCommand("invalidate", "Drop cached analyses", "Drop the cached analyses and keyword rows of one day so they are recomputed.", cmds.Invalidate)
	parser.AddCommand("show", "Print a stored analysis", "Print the stored time or keyword analysis of one day.", cmds.Show)
	parser.AddCommand("summarize", "Summarize a day of browsing", "Write a timeline and short summary of a day of visited pages.", cmds.Summarize)
	parser.AddCommand("day", "Show a day summary", "Print the stored timeline and summary of one day.", cmds.Day)
	parser.AddCommand("month", "Show the month calendar", "List the analyzed days of a month, each titled with its top keyword.", cmds.Month)
	parser.AddCommand("status", "Show database statistics", "Show database statistics and configuration summary.", cmds.Status)
	parser.AddCommand("prune", "Apply retention pruning", "Delete analyses, keyword rows and audit entries older than the retention period.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL memoir data", "Delete ALL memoir data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the memoir CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("memoir %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
