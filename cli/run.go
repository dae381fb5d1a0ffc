package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/metacheck/fetcher"
	"github.com/seo-optimizer/metacheck/inspector"
)

var (
	// Version information
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type analyzeOptions struct {
	file        string
	json        bool
	timeout     time.Duration
	proxies     []string
	concurrency int
}

// NewRootCommand builds the metacheck command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "metacheck",
		Short:         "Check the SEO and social metadata of web pages",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `metacheck fetches a web page, extracts its SEO and social media metadata,
scores it and shows how the page would look in search results and social shares.`,
	}

	root.AddCommand(newAnalyzeCommand(), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "metacheck version %s\n", Version)
			fmt.Fprintf(out, "  commit: %s\n", Commit)
			fmt.Fprintf(out, "  built:  %s\n", Date)
		},
	}
}

func newAnalyzeCommand() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <url> [url...]",
		Short: "Analyze one or more pages",
		Example: `  metacheck analyze https://example.com
  metacheck analyze --json https://example.com https://example.org
  metacheck analyze --file page.html https://example.com/page`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "Read HTML from a file instead of fetching; the URL is used as the page address")
	flags.BoolVar(&opts.json, "json", false, "Print the report as JSON")
	flags.DurationVarP(&opts.timeout, "timeout", "t", fetcher.DefaultTimeout, "Timeout per fetch attempt")
	flags.StringArrayVar(&opts.proxies, "proxy", nil, "Proxy prefix to try after a direct fetch fails (repeatable)")
	flags.IntVarP(&opts.concurrency, "concurrency", "c", 4, "Pages fetched in parallel")

	return cmd
}

// Run executes the command line
func Run() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

func runAnalyze(ctx context.Context, out io.Writer, opts *analyzeOptions, urls []string) error {
	if len(urls) == 0 {
		return failure.New(NoURLSpecified, failure.Message("Please specify a URL to analyze"))
	}
	if opts.file != "" && len(urls) > 1 {
		return failure.New(InvalidArguments,
			failure.Message("--file accepts exactly one URL"),
			failure.Context{"urls": fmt.Sprint(len(urls))},
		)
	}
	if opts.concurrency < 1 {
		opts.concurrency = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f := fetcher.New(
		fetcher.WithTimeout(opts.timeout),
		fetcher.WithProxies(opts.proxies...),
	)
	ins := inspector.New(f)
	defer ins.Close()

	reports := make([]*inspector.Report, len(urls))

	if opts.file != "" {
		u, err := fetcher.ValidateURL(urls[0])
		if err != nil {
			return err
		}
		html, err := os.ReadFile(opts.file)
		if err != nil {
			return failure.Wrap(err, failure.WithCode(ReadFileFailed),
				failure.Message("Could not read the HTML file"),
				failure.Context{"file": opts.file},
			)
		}
		reports[0] = ins.InspectHTML(u.String(), string(html))
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.concurrency)
		for n, target := range urls {
			g.Go(func() error {
				report, err := ins.Inspect(gctx, target)
				if err != nil {
					return err
				}
				reports[n] = report
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		var v any = reports
		if len(reports) == 1 {
			v = reports[0]
		}
		if err := enc.Encode(v); err != nil {
			return failure.Wrap(err)
		}
		return nil
	}

	for n, report := range reports {
		if n > 0 {
			fmt.Fprintln(out)
		}
		renderReport(out, report)
	}
	return nil
}
