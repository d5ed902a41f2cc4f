// docx-merge generates one document per row of a CSV file from a Word
// (or OpenDocument) template, optionally converting each one to PDF.
//
//	docx-merge [flags] TEMPLATE DATA [PATTERN]
//	docx-merge fields TEMPLATE
//	docx-merge -i
//
// Without arguments on a terminal it asks for the inputs interactively.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"unicode/utf8"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	docxmerge "github.com/little-yangyang/docx-merge"
)

// version is set at build time.
var version = "dev"

const defaultPattern = "{{ARCHITECTE}}-{{FACTURE}}.docx"

type options struct {
	configPath    string
	pattern       string
	convert       bool
	delimiter     string
	encoding      string
	outputDir     string
	rawValues     bool
	soffice       string
	strictConvert bool
	interactive   bool
	verbose       bool
	logFormat     string
	version       bool
	help          bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, docxmerge.ErrTemplateSyntax) {
			fmt.Fprintln(os.Stderr, "hint: run \"docx-merge fields TEMPLATE\" to find placeholders split across runs")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "fields" {
		return runFields(args[1:], stdout)
	}

	var opts options
	flagSet := pflag.NewFlagSet("docx-merge", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.configPath, "config", "", "YAML job file providing defaults")
	flagSet.StringVarP(&opts.pattern, "pattern", "p", "", "output file name pattern (default "+defaultPattern+")")
	flagSet.BoolVarP(&opts.convert, "convert", "c", false, "also convert every document to PDF")
	flagSet.StringVarP(&opts.delimiter, "delimiter", "d", ",", `field delimiter of the data file ("\t" for tab)`)
	flagSet.StringVar(&opts.encoding, "encoding", "utf-8", "encoding of the data file")
	flagSet.StringVarP(&opts.outputDir, "output-dir", "o", "", "parent of the output directory (default: next to the template)")
	flagSet.BoolVar(&opts.rawValues, "raw-values", false, "insert values into the document body without XML escaping")
	flagSet.StringVar(&opts.soffice, "soffice", "", "LibreOffice executable used for conversion")
	flagSet.BoolVar(&opts.strictConvert, "strict-convert", false, "abort on the first conversion failure")
	flagSet.BoolVarP(&opts.interactive, "interactive", "i", false, "ask for the inputs interactively")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug details")
	flagSet.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	flagSet.BoolVar(&opts.version, "version", false, "print version and exit")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if opts.help {
		printHelp(stderr, flagSet)
		return nil
	}
	if opts.version {
		fmt.Fprintln(stdout, version)
		return nil
	}

	logger, err := newLogger(stderr, opts.logFormat, opts.verbose)
	if err != nil {
		return err
	}

	job := docxmerge.Job{Pattern: defaultPattern}
	if opts.configPath != "" {
		jf, err := loadJobFile(opts.configPath)
		if err != nil {
			return err
		}
		applyJobFile(&job, &opts, jf, flagSet)
	}

	positional := flagSet.Args()
	if len(positional) > 3 {
		return fmt.Errorf("unexpected argument: %s", positional[3])
	}
	if len(positional) > 0 {
		job.Template = positional[0]
	}
	if len(positional) > 1 {
		job.Data = positional[1]
	}
	if len(positional) > 2 {
		job.Pattern = positional[2]
	}
	if flagSet.Changed("pattern") {
		job.Pattern = opts.pattern
	}
	job.Convert = job.Convert || opts.convert

	if opts.interactive || (job.Template == "" && isTerminal()) {
		return runInteractive(ctx, newSurveyPrompter(), job, &opts, stdout, logger)
	}
	if job.Template == "" || job.Data == "" {
		printHelp(stderr, flagSet)
		return errors.New("template and data files are required")
	}

	res, err := merge(ctx, job, &opts, logger)
	if err != nil {
		return err
	}
	report(stdout, res)
	return nil
}

func applyJobFile(job *docxmerge.Job, opts *options, jf *jobFile, flagSet *pflag.FlagSet) {
	job.Template = jf.Template
	job.Data = jf.Data
	if jf.Pattern != "" {
		job.Pattern = jf.Pattern
	}
	job.Convert = jf.Convert

	if jf.Delimiter != "" && !flagSet.Changed("delimiter") {
		opts.delimiter = jf.Delimiter
	}
	if jf.Encoding != "" && !flagSet.Changed("encoding") {
		opts.encoding = jf.Encoding
	}
	if jf.OutputDir != "" && !flagSet.Changed("output-dir") {
		opts.outputDir = jf.OutputDir
	}
	if jf.Soffice != "" && !flagSet.Changed("soffice") {
		opts.soffice = jf.Soffice
	}
	if !flagSet.Changed("raw-values") {
		opts.rawValues = jf.RawValues
	}
}

func merge(ctx context.Context, job docxmerge.Job, opts *options, logger *slog.Logger) (*docxmerge.Result, error) {
	delim, err := parseDelimiter(opts.delimiter)
	if err != nil {
		return nil, err
	}
	job.Table = docxmerge.TableOptions{Delimiter: delim, Encoding: opts.encoding}

	m := docxmerge.NewMerger(
		docxmerge.WithLogger(logger),
		docxmerge.WithConverter(&docxmerge.Office{Binary: opts.soffice}),
		docxmerge.WithOutputDir(opts.outputDir),
		docxmerge.WithRawValues(opts.rawValues),
		docxmerge.WithConvertErrorsFatal(opts.strictConvert),
	)
	return m.Merge(ctx, job)
}

func report(w io.Writer, res *docxmerge.Result) {
	fmt.Fprintf(w, "Done in %s\n", res.Dir)
	fmt.Fprintf(w, "%d document(s)", len(res.Documents))
	if len(res.Converted) > 0 || len(res.ConversionErrors) > 0 {
		fmt.Fprintf(w, ", %d converted", len(res.Converted))
	}
	if n := len(res.ConversionErrors); n > 0 {
		fmt.Fprintf(w, ", %d conversion failure(s)", n)
	}
	fmt.Fprintln(w)
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return r, nil
}

func newLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `docx-merge %s: one document per CSV row from a template.

Usage:
  docx-merge [flags] TEMPLATE DATA [PATTERN]
  docx-merge fields TEMPLATE
  docx-merge -i

Placeholders are written {{NAME}} where NAME is the CSV column header
uppercased, stripped of accents, with words joined by underscores
("Nom du client" becomes {{NOM_DU_CLIENT}}). PATTERN uses the same
placeholders to name each output file.

Flags:
`, version)
	flagSet.PrintDefaults()
}
