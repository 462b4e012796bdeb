// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blessed-dialekt/calmunity/dictionary"
)

var errValidationFailed = errors.New("dictionary validation failed")

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check words.json, phrases.json and keyboard layouts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), dirArg(args))
		},
	}
}

// runValidate prints every violation at once so one run gives the full list
// of fixes
func runValidate(out io.Writer, dir string) error {
	dict, err := dictionary.Load(dir)

	var verr *dictionary.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(out, "%d violation(s) in %s:\n", len(verr.Violations), dir)
		for _, v := range verr.Violations {
			fmt.Fprintf(out, "  - %s\n", v)
		}
		return errValidationFailed
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s is valid: %d words, %d phrases, %d keyboard layouts (next id %d)\n",
		dir, len(dict.Words()), len(dict.Phrases()), len(dict.Layouts()), dict.NextAvailableID())
	return nil
}

func migrateCommand() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "migrate [dir]",
		Short: "Move deprecated definition fields to definitionStandard and definitionDialect",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.OutOrStdout(), dirArg(args), write)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the files instead of only reporting")
	return cmd
}

func runMigrate(out io.Writer, dir string, write bool) error {
	total := 0
	for _, c := range []struct {
		file string
		kind dictionary.Kind
	}{
		{dictionary.WordsFile, dictionary.KindWord},
		{dictionary.PhrasesFile, dictionary.KindPhrase},
	} {
		path := filepath.Join(dir, c.file)
		records, err := dictionary.ReadCollection(path, c.kind)
		if err != nil {
			return err
		}

		migrated, n := dictionary.MigrateAll(records)
		total += n
		fmt.Fprintf(out, "%s: %d of %d record(s) need migration\n", c.file, n, len(records))
		if n == 0 || !write {
			continue
		}
		if err := dictionary.WriteCollection(path, c.kind, migrated); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: rewritten\n", c.file)
	}

	if total > 0 && !write {
		fmt.Fprintln(out, "run again with --write to apply")
	}
	return nil
}
