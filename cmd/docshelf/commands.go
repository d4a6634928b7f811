package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/core/usecase"
	"github.com/kirillkom/docshelf/internal/infrastructure/export/xlsx"
)

const exportHistoryLimit = 500

func newFlagSet(name string, env *cliEnv) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs
}

func listCmd(ctx context.Context, env *cliEnv, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	files, err := env.app.Registry.FetchFiles(ctx)
	if err != nil {
		return err
	}
	writeFileTable(env.stdout, files, "")
	return nil
}

func searchCmd(ctx context.Context, env *cliEnv, args []string) error {
	query := strings.Join(args, " ")
	files, err := env.app.Search.Search(ctx, query)
	if err != nil {
		return err
	}
	writeFileTable(env.stdout, files, env.app.Search.Query())
	return nil
}

func uploadCmd(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet("upload", env)
	title := fs.String("title", "", "title stored with the file (defaults to the file name)")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}

	uploads := env.app.Uploads
	local, err := uploads.Select(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	uploads.SetTitle(*title)

	label := local.Name
	if local.Pages > 0 {
		label = fmt.Sprintf("%s (%d pages)", local.Name, local.Pages)
	}
	fmt.Fprintf(env.stderr, "uploading %s, %s\n", label, usecase.FormatFileSize(local.Size))

	env.progress = newProgressRenderer(env.stderr)
	file, err := uploads.Upload(ctx)
	env.progress.Finish()
	if err != nil {
		return err
	}

	fmt.Fprintf(env.stdout, "uploaded %s as %s\n", file.DisplayName(), file.ID)
	if bw := uploads.Snapshot().Stats.Bandwidth; bw != "" {
		fmt.Fprintf(env.stdout, "average %s Mbps\n", bw)
	}
	return nil
}

func getCmd(ctx context.Context, env *cliEnv, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	file, err := env.app.Registry.GetFileByID(ctx, domain.FileID(args[0]))
	if err != nil {
		return err
	}
	return writeJSON(env.stdout, file)
}

func deleteCmd(ctx context.Context, env *cliEnv, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id := domain.FileID(args[0])
	if err := env.app.Registry.DeleteFile(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "deleted %s\n", id)
	return nil
}

func viewCmd(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet("view", env)
	platform := fs.String("platform", "", "viewer platform: web, ios, android or proxy")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	source, err := env.app.ViewerFor(*platform).OpenPDF(ctx, domain.FileID(fs.Arg(0)))
	if err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "%s\n%s\n", source.File.DisplayName(), source.SourceURL)
	return nil
}

func exportCmd(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet("export", env)
	out := fs.String("o", "", "path of the .xlsx file to write")
	query := fs.String("query", "", "export only files matching this search")
	history := fs.Bool("history", false, "add the local upload history as a second sheet")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 || strings.TrimSpace(*out) == "" {
		return errUsage
	}

	var (
		files []domain.UploadedFile
		err   error
	)
	if strings.TrimSpace(*query) != "" {
		files, err = env.app.Search.Search(ctx, *query)
	} else {
		files, err = env.app.Registry.FetchFiles(ctx)
	}
	if err != nil {
		return err
	}

	var transfers []domain.TransferRecord
	if *history {
		transfers, err = env.app.Journal.Recent(ctx, exportHistoryLimit)
		if err != nil {
			return err
		}
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := xlsx.WriteReport(f, files, transfers); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	fmt.Fprintf(env.stdout, "wrote %d files to %s\n", len(files), *out)
	return nil
}

func historyCmd(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet("history", env)
	limit := fs.Int("limit", 20, "number of entries to show")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return errUsage
	}
	records, err := env.app.Journal.Recent(ctx, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tNAME\tSIZE\tDURATION\tMBPS\tFILE ID\tERROR")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			r.Name,
			usecase.FormatFileSize(r.Size),
			r.Duration.Round(time.Millisecond),
			dash(r.BandwidthMbps),
			dash(r.FileID.String()),
			r.Error,
		)
	}
	return tw.Flush()
}

func watchCmd(ctx context.Context, env *cliEnv, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	if env.app.Events == nil {
		return domain.UserError("File events are disabled. Set NATS_URL to watch.")
	}
	fmt.Fprintln(env.stderr, "watching file events, press Ctrl+C to stop")
	return env.app.Events.SubscribeFileEvents(ctx, func(_ context.Context, event domain.FileEvent) error {
		fmt.Fprintf(env.stdout, "%s %s %s %s\n",
			event.At.Local().Format(time.DateTime), event.Type, event.FileID, event.Name)
		return nil
	})
}

func writeFileTable(w io.Writer, files []domain.UploadedFile, query string) {
	if len(files) == 0 {
		fmt.Fprintln(w, "no files")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tSIZE\tUPLOADED")
	for _, f := range files {
		uploaded := "-"
		if !f.UploadDate.IsZero() {
			uploaded = f.UploadDate.Local().Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.DisplayName(), f.FileType, usecase.FormatFileSize(f.Size), uploaded)
	}
	_ = tw.Flush()

	if query == "" {
		return
	}
	for _, f := range files {
		if snippet := usecase.Snippet(f, query); snippet != "" {
			fmt.Fprintf(w, "\n%s: %s\n", f.ID, snippet)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
