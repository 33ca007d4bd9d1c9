package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phroun/score"
	"github.com/phroun/score/internal/estimate"
)

func runRepl(cmd *cobra.Command, args []string) error {
	repo, closer, err := openRepository()
	if err != nil {
		return err
	}
	defer closer.Close()

	r := &REPL{
		ctx:    cmd.Context(),
		repo:   repo,
		reader: bufio.NewReader(os.Stdin),
		out:    cmd.OutOrStdout(),
	}
	if len(args) == 1 {
		s, err := fetch(r.ctx, repo, args[0])
		if err != nil {
			return err
		}
		if err := r.open(s); err != nil {
			return err
		}
	}
	r.loop()
	return nil
}

func runNew(cmd *cobra.Command, _ []string) error {
	if newStaves < 1 || newMeasures < 1 {
		return errors.New("a score needs at least one staff and one measure")
	}
	repo, closer, err := openPersistentRepository()
	if err != nil {
		return err
	}
	defer closer.Close()

	s := emptyScore(newStaves, newMeasures)
	if err := repo.Replace(cmd.Context(), s); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s.ID)
	return nil
}

func runLayout(cmd *cobra.Command, args []string) error {
	repo, closer, err := openPersistentRepository()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := cmd.Context()
	s, err := fetch(ctx, repo, args[0])
	if err != nil {
		return err
	}

	var v score.Visual
	if workers > 0 {
		v, err = score.RunConcurrent(ctx, s, estimate.Default(), layoutOptions(), workers)
	} else {
		v, err = score.Run(ctx, s, estimate.Default(), layoutOptions())
	}
	if err != nil {
		return err
	}
	printVisual(cmd.OutOrStdout(), v)

	if reflow {
		s.Meta.RowLengths = v.RowLengths()
		return repo.Replace(ctx, s)
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	repo, closer, err := openPersistentRepository()
	if err != nil {
		return err
	}
	defer closer.Close()
	return repo.Delete(cmd.Context(), args[0])
}
