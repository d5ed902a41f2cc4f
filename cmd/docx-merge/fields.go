package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	docxmerge "github.com/little-yangyang/docx-merge"
)

// runFields prints the placeholders of a template and flags the ones
// Word split across runs.
func runFields(args []string, w io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: docx-merge fields TEMPLATE")
	}
	path := args[0]

	if docxmerge.BodyEntry(path) != docxmerge.WordBody {
		return fieldsFromBody(path, w)
	}

	found, err := docxmerge.InspectFile(path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PARAGRAPH\tPLACEHOLDER\tSTATUS")
	split := 0
	for _, p := range found {
		status := "ok"
		if p.Split {
			status = "split across runs, retype it in one go"
			split++
		}
		fmt.Fprintf(tw, "%d\t{{%s}}\t%s\n", p.Paragraph+1, p.Expr, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if split > 0 {
		return fmt.Errorf("%d placeholder(s) split across runs", split)
	}
	return nil
}

// fieldsFromBody lists the names referenced by a non-Word template.
func fieldsFromBody(path string, w io.Writer) error {
	dir, err := os.MkdirTemp("", "docx-merge-fields-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	if err := docxmerge.Extract(path, dir); err != nil {
		return err
	}
	body, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(docxmerge.BodyEntry(path))))
	if err != nil {
		return err
	}
	t, err := docxmerge.Compile(docxmerge.BodyEntry(path), string(body))
	if err != nil {
		return err
	}
	for _, name := range t.Names() {
		fmt.Fprintf(w, "{{%s}}\n", name)
	}
	return nil
}
