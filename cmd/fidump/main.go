// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/antgroup/fastimport/modules/fastimport"
	"github.com/antgroup/fastimport/modules/plumbing"
)

var cfgPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fidump",
		Short:         "Validate and inspect git fast-import streams",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a fidump.toml config file")
	root.PersistentFlags().Bool("debug", false, "enable debug-level logging")
	root.AddCommand(newLintCmd(), newRoundtripCmd())
	return root
}

func openInput(args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(args[0])
}

func setupLogging(cmd *cobra.Command) {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func logParseError(counter *fastimport.ByteCounter, err error) {
	fields := logrus.Fields{"bytes_read": counter.Total()}
	if pe, ok := err.(*fastimport.ParseError); ok {
		fields["kind"] = pe.Kind.String()
		fields["line"] = string(pe.Line)
	}
	logrus.WithFields(fields).Error("fastimport: parse failed")
}

func newLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint [file]",
		Short: "Parse a fast-import stream and report the first error, if any",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			in, err := openInput(args)
			if err != nil {
				return err
			}
			defer in.Close()
			return runLint(cmd.OutOrStdout(), in, cfg)
		},
	}
	return cmd
}

func runLint(out io.Writer, in io.Reader, cfg Config) error {
	counter := fastimport.NewByteCounter(in)
	p := fastimport.NewParser(counter, fastimport.WithContextLines(cfg.ContextLines))
	tally := fastimport.NewCommandTally()

	for {
		cmd, err := p.Next()
		if err != nil {
			logParseError(counter, err)
			return err
		}
		tally.Observe(fastimport.CommandKind(cmd))
		if _, isDone := cmd.(*fastimport.Done); isDone {
			break
		}
		warnOnBadRefname(cmd)
		if err := drainCommand(cmd); err != nil {
			logParseError(counter, err)
			return err
		}
	}

	logrus.WithField("context_lines", cfg.ContextLines).Debug("fidump: lint finished")
	fmt.Fprintf(out, "%d commands, %s read\n", tally.Total(), counter.Humanized())
	for kind, n := range tally.Counts() {
		fmt.Fprintf(out, "  %-14s %d\n", kind, n)
	}
	return nil
}

// warnOnBadRefname logs a warning when a commit or reset branch fails full
// check-ref-format validation. The parser itself only rejects a NUL byte in
// Branch (spec.md's Commit/Reset invariant); fuller check-ref-format
// compliance is the refname validator's job, exposed here as a lint-only
// diagnostic rather than folded into the parser's own acceptance rule.
func warnOnBadRefname(cmd fastimport.Command) {
	var branch []byte
	switch c := cmd.(type) {
	case *fastimport.Commit:
		branch = c.Branch
	case *fastimport.Reset:
		branch = c.Branch
	default:
		return
	}
	if !plumbing.ValidateReferenceName(branch) {
		logrus.WithField("branch", string(branch)).Warn("fidump: branch fails check-ref-format")
	}
}

// drainCommand fully consumes any data payload or file-change list attached
// to cmd, as Parser.Next requires before it can proceed to the next
// top-level command.
func drainCommand(cmd fastimport.Command) error {
	switch c := cmd.(type) {
	case *fastimport.Blob:
		r, err := c.Data.Open()
		if err != nil {
			return err
		}
		if _, err := r.SkipRest(); err != nil {
			return err
		}
		return r.Close()
	case *fastimport.Commit:
		it := c.Changes()
		for {
			ch, err := it.Next()
			if err != nil {
				return err
			}
			if ch == nil {
				return nil
			}
		}
	default:
		return nil
	}
}

func newRoundtripCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roundtrip [file]",
		Short: "Parse a fast-import stream and re-emit it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			in, err := openInput(args)
			if err != nil {
				return err
			}
			defer in.Close()
			return runRoundtrip(cmd.OutOrStdout(), in, cfg)
		},
	}
	return cmd
}

func runRoundtrip(out io.Writer, in io.Reader, cfg Config) error {
	counter := fastimport.NewByteCounter(in)
	p := fastimport.NewParser(counter, fastimport.WithContextLines(cfg.ContextLines))

	for {
		cmd, err := p.Next()
		if err != nil {
			logParseError(counter, err)
			return err
		}
		if _, isDone := cmd.(*fastimport.Done); isDone {
			return nil
		}
		if err := reemit(out, cmd); err != nil {
			logParseError(counter, err)
			return err
		}
	}
}

// reemit writes cmd back out with the emitter, reading any attached data
// payload or file-change list in full along the way.
func reemit(w io.Writer, cmd fastimport.Command) error {
	switch c := cmd.(type) {
	case *fastimport.Blob:
		payload, err := readAll(c.Data)
		if err != nil {
			return err
		}
		_, err = fastimport.EmitBlob(w, c.Mark, c.OriginalOid, fastimport.EmitData{Bytes: payload})
		return err
	case *fastimport.Commit:
		changes, err := reemitChanges(c.Changes())
		if err != nil {
			return err
		}
		_, err = fastimport.EmitCommit(w, fastimport.EmitCommitSpec{
			Branch:      c.Branch,
			Mark:        c.Mark,
			OriginalOid: c.OriginalOid,
			Author:      c.Author,
			Committer:   c.Committer,
			Encoding:    c.Encoding,
			Message:     fastimport.EmitData{Bytes: c.Message},
			From:        c.From,
			Merge:       c.Merge,
			Changes:     changes,
		})
		return err
	case *fastimport.Tag:
		_, err := fastimport.EmitTag(w, c)
		return err
	case *fastimport.Reset:
		_, err := fastimport.EmitReset(w, c)
		return err
	case *fastimport.Checkpoint:
		_, err := fastimport.EmitCheckpoint(w)
		return err
	case *fastimport.Alias:
		_, err := fastimport.EmitAlias(w, c)
		return err
	case *fastimport.Progress:
		_, err := fastimport.EmitProgress(w, c)
		return err
	case *fastimport.Ls:
		_, err := fastimport.EmitLs(w, c)
		return err
	case *fastimport.CatBlob:
		_, err := fastimport.EmitCatBlob(w, c)
		return err
	case *fastimport.GetMark:
		_, err := fastimport.EmitGetMark(w, c)
		return err
	case *fastimport.Feature:
		_, err := fastimport.EmitFeature(w, c)
		return err
	case *fastimport.OptionGit:
		_, err := fastimport.EmitOptionGit(w, c)
		return err
	case *fastimport.OptionOther:
		_, err := fastimport.EmitOptionOther(w, c)
		return err
	default:
		return fmt.Errorf("fidump: unhandled command %T", cmd)
	}
}

func readAll(d fastimport.DataStream) ([]byte, error) {
	r, err := d.Open()
	if err != nil {
		return nil, err
	}
	payload, err := r.ReadToEnd(nil)
	if err != nil {
		return nil, err
	}
	return payload, r.Close()
}

func reemitChanges(it *fastimport.ChangeIter) ([]fastimport.EmitChange, error) {
	var out []fastimport.EmitChange
	for {
		ch, err := it.Next()
		if err != nil {
			return nil, err
		}
		if ch == nil {
			return out, nil
		}
		switch c := ch.(type) {
		case fastimport.FileModify:
			// c.DataRef.Inline is propagated so the "inline" keyword at
			// least survives the round trip; the nested data payload
			// itself does not (see the parseFileModify TODO in
			// modules/fastimport/parser.go), so an inline change still
			// re-emits without its payload.
			out = append(out, fastimport.EmitFileModify{
				Mode:   c.Mode,
				Path:   c.Path,
				Inline: c.DataRef.Inline,
				Ref:    c.DataRef.Ref,
			})
		case fastimport.FileDelete:
			out = append(out, fastimport.EmitFileDelete{Path: c.Path})
		case fastimport.FileRename:
			out = append(out, fastimport.EmitFileRename{Source: c.Source, Dest: c.Dest})
		case fastimport.FileCopy:
			out = append(out, fastimport.EmitFileCopy{Source: c.Source, Dest: c.Dest})
		case fastimport.FileDeleteAll:
			out = append(out, fastimport.EmitFileDeleteAll{})
		case fastimport.NoteModify:
			out = append(out, fastimport.EmitNoteModify{
				Inline: c.DataRef.Inline,
				Ref:    c.DataRef.Ref,
				Commit: c.Commit,
			})
		default:
			return nil, fmt.Errorf("fidump: unhandled file change %T", ch)
		}
	}
}
