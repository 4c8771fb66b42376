/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pdfquirk/internal/config"
	"pdfquirk/internal/history"
	applog "pdfquirk/internal/log"
	"pdfquirk/internal/pdfbuild"
	"pdfquirk/internal/settings"
	"pdfquirk/internal/storage"
	"pdfquirk/internal/thumbs"
	"pdfquirk/internal/ui"
	"pdfquirk/internal/version"
)

// session is the state shared by all commands of one invocation.
type session struct {
	configPath string
	cfg        config.AppConfig
	log        *slog.Logger
}

// NewRootCmd builds the pdfquirk command tree.
func NewRootCmd() *cobra.Command {
	s := &session{}
	cmd := &cobra.Command{
		Use:   "pdfquirk",
		Short: "Create PDF files from scanned or photographed images",
		Long: `PDF Quirk collects images and writes them into one PDF, one image per page.

Without a subcommand the desktop window is opened. Use 'pdfquirk build' to
create a PDF from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return s.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runUI(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&s.configPath, "config", "", "config file (default: user config dir/pdfquirk/config.yaml)")

	cmd.AddCommand(
		newUICmd(s),
		newBuildCmd(s),
		newHistoryCmd(s),
		newVersionCmd(),
	)
	return cmd
}

func (s *session) init(cmd *cobra.Command) error {
	var err error
	if s.configPath != "" {
		s.cfg, err = config.LoadFrom(s.configPath)
	} else {
		s.cfg, err = config.Load()
	}
	applog.Init(applog.Options{
		Level:     s.cfg.Logging.Level,
		Format:    s.cfg.Logging.Format,
		AddSource: s.cfg.Logging.Source,
		File:      s.cfg.Logging.File,
		Writer:    cmd.ErrOrStderr(),
	})
	s.log = applog.WithComponent("cli")
	if err != nil {
		// Defaults are still usable; a broken config file should not block the user.
		s.log.Warn("config not loaded, using defaults", slog.Any("err", err))
	}
	s.log.Debug("start", slog.String("cmd", cmd.Name()))
	return nil
}

func (s *session) builder() *pdfbuild.PDFBuilder {
	return pdfbuild.New(pdfbuild.Options{
		PageSize: pdfbuild.PageSize(s.cfg.PDF.PageSize),
		MarginPt: s.cfg.PDF.MarginPt,
		DPI:      s.cfg.PDF.DPI,
		Author:   s.cfg.PDF.Author,
	})
}

// openHistory opens the build history; callers must Close it.
func (s *session) openHistory() (*history.Store, error) {
	path, err := s.cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

func newUICmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the desktop window (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runUI(cmd)
		},
	}
}

func (s *session) runUI(cmd *cobra.Command) error {
	if !ui.Available {
		return ui.Run(cmd.Context(), ui.Options{})
	}
	path, err := settings.DefaultPath()
	if err != nil {
		return err
	}
	store, err := settings.OpenIni(path)
	if err != nil {
		return err
	}

	var builder pdfbuild.Builder = s.builder()
	if hs, err := s.openHistory(); err != nil {
		s.log.Warn("build history unavailable", slog.Any("err", err))
	} else {
		defer hs.Close()
		builder = history.Recording{Next: builder, Store: hs}
	}

	var cache *storage.Cache
	if cachePath, err := s.cfg.ThumbCachePath(); err == nil {
		if cache, err = storage.Open(cachePath, s.cfg.Storage.ThumbCacheMaxBytes); err != nil {
			s.log.Warn("thumbnail cache unavailable", slog.Any("err", err))
		} else {
			defer cache.Close()
		}
	}

	return ui.Run(cmd.Context(), ui.Options{
		Config:   s.cfg,
		Settings: store,
		Builder:  builder,
		Renderer: thumbs.NewRenderer(cache),
	})
}

func newBuildCmd(s *session) *cobra.Command {
	var (
		output    string
		jobFile   string
		title     string
		author    string
		pageSize  string
		noHistory bool
	)
	cmd := &cobra.Command{
		Use:   "build [flags] image...",
		Short: "Write the given images into a PDF, one page each",
		Example: `  pdfquirk build -o receipts.pdf scan-1.png scan-2.jpg
  pdfquirk build --job job.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req pdfbuild.Request
			switch {
			case jobFile != "" && (len(args) > 0 || output != ""):
				return errors.New("--job cannot be combined with images or --output")
			case jobFile != "":
				r, err := pdfbuild.LoadJob(jobFile)
				if err != nil {
					return err
				}
				req = r
			default:
				if len(args) == 0 {
					return errors.New("no images given")
				}
				if output == "" {
					return errors.New("--output is required")
				}
				req = pdfbuild.Request{Files: args, Output: output}
			}
			if title != "" {
				req.Title = title
			}
			if author != "" {
				req.Author = author
			}
			if pageSize != "" {
				s.cfg.PDF.PageSize = pageSize
			}

			var b pdfbuild.Builder = s.builder()
			if !noHistory {
				hs, err := s.openHistory()
				if err != nil {
					s.log.Warn("build history unavailable", slog.Any("err", err))
				} else {
					defer hs.Close()
					b = history.Recording{Next: b, Store: hs}
				}
			}
			res, err := b.Build(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("create pdf: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination PDF file")
	cmd.Flags().StringVar(&jobFile, "job", "", "JSON job file listing output and images")
	cmd.Flags().StringVar(&title, "title", "", "PDF title")
	cmd.Flags().StringVar(&author, "author", "", "PDF author (default: pdf.author from config)")
	cmd.Flags().StringVar(&pageSize, "page-size", "", "a4, letter or image (default: pdf.page_size from config)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record the build in the history")
	return cmd
}

func newHistoryCmd(s *session) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hs, err := s.openHistory()
			if err != nil {
				return err
			}
			defer hs.Close()
			recs, err := hs.Recent(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "No builds recorded yet.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tPAGES\tOUTPUT")
			for _, r := range recs {
				status := "ok"
				if !r.OK {
					status = "failed: " + firstLine(r.Error)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", r.ID, r.Started.Local().Format(time.DateTime), status, r.Pages, filepath.Clean(r.Output))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "number", "n", 10, "number of builds to show (0 = all)")
	return cmd
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "PDF Quirk %s\n", version.String())
			return nil
		},
	}
}
