// Command slidecast converts animated PowerPoint decks into static
// slide sequences, and ships a few related deck utilities.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/Slidecast/core/deck"
	"github.com/FocuswithJustin/Slidecast/internal/comments"
	"github.com/FocuswithJustin/Slidecast/internal/config"
	"github.com/FocuswithJustin/Slidecast/internal/logging"
	"github.com/FocuswithJustin/Slidecast/internal/notes"
	"github.com/FocuswithJustin/Slidecast/internal/opc"
	"github.com/FocuswithJustin/Slidecast/internal/trials"
	"github.com/FocuswithJustin/Slidecast/internal/unhide"
)

const version = "0.2.0"

// CLI defines the command-line interface for slidecast.
var CLI struct {
	// Global flags
	Config    string `name:"config" short:"c" help:"Path to YAML config file" type:"existingfile" optional:""`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" enum:",debug,info,warn,error" default:""`
	LogFormat string `name:"log-format" help:"Log format (text, json)" enum:",text,json" default:""`

	Convert  ConvertCmd  `cmd:"" help:"Convert animated slides to static slide sequences"`
	Unhide   UnhideCmd   `cmd:"" help:"Reveal all hidden slides"`
	Notes    NotesCmd    `cmd:"" help:"Print speaker notes of visible slides"`
	Comments CommentsCmd `cmd:"" help:"Print review comments per slide"`
	Trials   TrialsGroup `cmd:"" help:"Clinical trial lookups"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// ConvertCmd converts one deck.
type ConvertCmd struct {
	Input  string `arg:"" help:"Path to input .pptx/.pptm file" type:"existingfile"`
	Output string `arg:"" help:"Path to write the converted deck"`
	Mode   string `name:"mode" short:"m" help:"Conversion mode (timeline, split)" enum:",timeline,split" default:""`
	Split  string `name:"split-original" help:"Split mode: keep or replace the animated source slide" enum:",keep,replace" default:""`
}

func (c *ConvertCmd) Run(cfg *config.Config) error {
	opts := deck.Options{
		Mode:          deck.Mode(cfg.Convert.Mode),
		SplitOriginal: deck.SplitOriginal(cfg.Convert.SplitOriginal),
	}
	if c.Mode != "" {
		opts.Mode = deck.Mode(c.Mode)
	}
	if c.Split != "" {
		opts.SplitOriginal = deck.SplitOriginal(c.Split)
	}

	res, err := deck.ConvertFile(c.Input, c.Output, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Converted %s -> %s\n", c.Input, c.Output)
	fmt.Printf("  mode:             %s\n", res.Mode)
	fmt.Printf("  slides converted: %d\n", res.SlidesConverted)
	fmt.Printf("  slides unchanged: %d\n", res.SlidesUnchanged)
	fmt.Printf("  slides added:     %d\n", res.SlidesAdded)
	if res.NodesSkipped > 0 {
		fmt.Printf("  timing nodes skipped: %d\n", res.NodesSkipped)
	}
	fmt.Printf("  run id:           %s\n", res.RunID)
	fmt.Printf("  output digest:    %s\n", res.OutputDigest)
	return nil
}

// UnhideCmd reveals hidden slides.
type UnhideCmd struct {
	Input  string `arg:"" help:"Path to input .pptx/.pptm file" type:"existingfile"`
	Output string `arg:"" help:"Path to write the result"`
}

func (c *UnhideCmd) Run() error {
	pkg, err := opc.Open(c.Input)
	if err != nil {
		return err
	}
	res, err := unhide.Run(pkg)
	if err != nil {
		return err
	}
	if err := pkg.Save(c.Output); err != nil {
		return err
	}
	fmt.Printf("Revealed %d hidden slide(s), cleared %d slide-list flag(s)\n",
		res.SlidesShown, res.ListEntriesShown)
	return nil
}

// NotesCmd prints speaker notes.
type NotesCmd struct {
	Input string `arg:"" help:"Path to input .pptx/.pptm file" type:"existingfile"`
	JSON  bool   `name:"json" help:"Emit JSON instead of text"`
}

func (c *NotesCmd) Run() error {
	pkg, err := opc.Open(c.Input)
	if err != nil {
		return err
	}
	all, err := notes.Extract(pkg)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(all)
	}
	for _, n := range all {
		fmt.Printf("\n=== Slide %d ===\n", n.Slide)
		if n.Text == "" {
			fmt.Println("[ no notes ]")
		} else {
			fmt.Println(n.Text)
		}
	}
	return nil
}

// CommentsCmd prints review comments.
type CommentsCmd struct {
	Input string `arg:"" help:"Path to input .pptx/.pptm file" type:"existingfile"`
	JSON  bool   `name:"json" help:"Emit JSON instead of text"`
}

func (c *CommentsCmd) Run() error {
	pkg, err := opc.Open(c.Input)
	if err != nil {
		return err
	}
	all, err := comments.Extract(pkg)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(all)
	}
	if len(all) == 0 {
		fmt.Println("No comments found.")
		return nil
	}
	slide := 0
	for _, cm := range all {
		if cm.Slide != slide {
			slide = cm.Slide
			fmt.Printf("\n=== Slide %d ===\n", slide)
		}
		fmt.Printf("[%s] %s: %s\n", cm.Date, cm.Author, cm.Text)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TrialsGroup contains clinical-trial lookups.
type TrialsGroup struct {
	Drugs TrialDrugsCmd `cmd:"" help:"Resolve trial names to registered drug interventions"`
}

// TrialDrugsCmd resolves drug interventions for one or more trial names.
type TrialDrugsCmd struct {
	Names []string `arg:"" help:"Trial names, e.g. 'CheckMate 227'"`
	Cache string   `name:"cache" help:"Path to SQLite lookup cache" optional:""`
}

func (c *TrialDrugsCmd) Run(cfg *config.Config) error {
	cache := c.Cache
	if cache == "" {
		cache = cfg.Trials.CachePath
	}
	ctx := context.Background()
	client, err := trials.New(ctx, cfg.Trials.APIBase, cache)
	if err != nil {
		return err
	}
	defer client.Close()

	results, err := client.DrugsAll(ctx, c.Names)
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Printf("%s -> %s\n", res.Name, res.NCTID)
		fmt.Printf("  drugs: %s\n", strings.Join(res.Drugs, ", "))
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("slidecast version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("slidecast"),
		kong.Description("Slidecast - animated PowerPoint to static slide converter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	level := cfg.Log.Level
	if CLI.LogLevel != "" {
		level = CLI.LogLevel
	}
	format := cfg.Log.Format
	if CLI.LogFormat != "" {
		format = CLI.LogFormat
	}
	logging.InitLogger(logging.ParseLevel(level), logging.ParseFormat(format))

	err = ctx.Run(cfg)
	ctx.FatalIfErrorf(err)
}
