package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"docdash-backend/client"
)

type rootOptions struct {
	apiURL string
	token  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "docdash",
		Short:         "Upload and browse workspace documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("DOCDASH_API_URL", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("DOCDASH_TOKEN"), "session token")

	root.AddCommand(newFilesCmd(opts), newUploadCmd(opts), newSearchCmd(opts))
	return root
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.apiURL, o.token)
}

func newFilesCmd(opts *rootOptions) *cobra.Command {
	var p client.FilesParams
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List documents in the current workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := opts.client().Files(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().IntVar(&p.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&p.Limit, "limit", 10, "page size")
	cmd.Flags().StringVar(&p.Search, "search", "", "match name or folder")
	cmd.Flags().StringVar(&p.Category, "category", "", "exact category")
	cmd.Flags().StringVar(&p.SortBy, "sort-by", "uploadDate", "name, type, folder, size or uploadDate")
	cmd.Flags().StringVar(&p.SortOrder, "order", "desc", "asc or desc")
	return cmd
}

func newUploadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			out := cmd.OutOrStdout()
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				up, err := c.Upload(cmd.Context(), filepath.Base(path), f)
				f.Close()
				if err != nil {
					return fmt.Errorf("upload %s: %w", path, err)
				}
				id := "-"
				if up.ID != nil {
					id = fmt.Sprint(*up.ID)
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", id, up.DocumentID, up.OriginalName, up.PublicURL)
			}
			return nil
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		limit int
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Interactively search documents; each input line replaces the search term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd.Context(), opts.client(), cmd.InOrStdin(), cmd.OutOrStdout(), limit, delay)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "page size")
	cmd.Flags().DurationVar(&delay, "debounce", client.DefaultDebounceDelay, "quiet period before searching")
	return cmd
}

func runSearch(ctx context.Context, c *client.Client, in io.Reader, out io.Writer, limit int, delay time.Duration) error {
	state := client.NewLibraryState(limit)
	var (
		mu      sync.Mutex
		lastErr error
	)
	debouncer := client.NewDebouncer(delay, func(term string) {
		mu.Lock()
		defer mu.Unlock()
		state.SetSearch(term)
		page, err := c.Files(ctx, state.Params())
		if err != nil {
			lastErr = err
			fmt.Fprintln(out, "error:", err)
			return
		}
		lastErr = nil
		_ = printPage(out, page)
	})
	defer debouncer.Stop()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		debouncer.Trigger(scanner.Text())
	}
	debouncer.Flush()

	mu.Lock()
	defer mu.Unlock()
	if err := scanner.Err(); err != nil {
		return err
	}
	return lastErr
}

func printPage(out io.Writer, page client.FilesPage) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tFORMAT\tSIZE\tFOLDER\tUPLOADED\tSTATUS")
	for _, d := range page.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Name, d.Type, d.FileFormat, d.Size, d.Folder,
			d.UploadDate.Local().Format("2006-01-02 15:04"), d.ProcessingStatus)
	}
	p := page.Pagination
	fmt.Fprintf(tw, "page %d/%d, %d total\n", p.Page, p.TotalPages, p.Total)
	return tw.Flush()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
