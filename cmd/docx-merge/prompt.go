package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	docxmerge "github.com/little-yangyang/docx-merge"
)

// prompter asks the user for merge inputs. runInteractive only talks to
// it, so the flow can be tested without a terminal.
type prompter interface {
	Input(message, def string, validate func(string) error) (string, error)
	Confirm(message string, def bool) (bool, error)
}

var errInterrupted = errors.New("interrupted")

func runInteractive(ctx context.Context, p prompter, job docxmerge.Job, opts *options, out io.Writer, logger *slog.Logger) error {
	var err error
	if job.Template, err = p.Input("Template document (.docx):", job.Template, fileExists); err != nil {
		return err
	}
	if job.Data, err = p.Input("CSV data (.csv):", job.Data, fileExists); err != nil {
		return err
	}
	if job.Pattern, err = p.Input("Filename pattern:", job.Pattern, notBlank); err != nil {
		return err
	}
	if job.Convert, err = p.Confirm("Convert to PDF?", job.Convert); err != nil {
		return err
	}

	res, err := merge(ctx, job, opts, logger)
	if err != nil {
		return err
	}
	report(out, res)
	return nil
}

func fileExists(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("a path is required")
	}
	fi, err := os.Stat(s)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", s)
	}
	return nil
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("a value is required")
	}
	return nil
}

type surveyPrompter struct{}

func newSurveyPrompter() prompter { return surveyPrompter{} }

func (surveyPrompter) Input(message, def string, validate func(string) error) (string, error) {
	var out string
	prompt := &survey.Input{Message: message, Default: def}
	opts := []survey.AskOpt{}
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, _ := ans.(string)
			return validate(s)
		}))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return strings.TrimSpace(out), nil
}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	prompt := &survey.Confirm{Message: message, Default: def}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errInterrupted
	}
	return err
}
