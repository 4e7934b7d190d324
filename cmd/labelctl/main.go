package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/thereceipt/label-designer/internal/client"
	"github.com/thereceipt/label-designer/internal/config"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// Version is set during build via ldflags
var Version = "dev"

var (
	serverURL string
	timeout   time.Duration

	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
)

func main() {
	root := &cobra.Command{
		Use:           "labelctl",
		Short:         "Manage label templates and stocks on a label-designer server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server URL (default from config or LABEL_SERVER_URL)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(templatesCmd(), stocksCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func newClient() (*client.Client, error) {
	url := serverURL
	if url == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		url = cfg.Server.URL
	}
	return client.New(url), nil
}

// withClient runs fn with a client and a request deadline
func withClient(fn func(ctx context.Context, c *client.Client) error) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx, c)
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		String()
}

// writeExport checks server document JSON and writes it to out
func writeExport(data []byte, out string) error {
	export, err := labelformat.Parse(data)
	if err != nil {
		return fmt.Errorf("server sent an invalid document: %w", err)
	}
	return export.SaveToFile(out)
}

// readImport loads a document file and normalises it before upload, so a
// broken file fails here instead of on the server
func readImport(path string) ([]byte, error) {
	export, err := labelformat.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return export.ToJSON()
}

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template", "t"},
		Short:   "List, fetch, import and render templates",
	}

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				summaries, err := c.List(ctx, category)
				if err != nil {
					return err
				}
				if len(summaries) == 0 {
					fmt.Println(mutedStyle.Render("no templates"))
					return nil
				}
				rows := make([][]string, 0, len(summaries))
				for _, s := range summaries {
					rows = append(rows, []string{s.ID, s.Name, s.Category, s.StockID, strconv.Itoa(s.Elements), s.UpdatedAt.Local().Format("2006-01-02 15:04")})
				}
				fmt.Println(renderTable([]string{"ID", "NAME", "CATEGORY", "STOCK", "ELEMENTS", "UPDATED"}, rows))
				return nil
			})
		},
	}
	list.Flags().StringVar(&category, "category", "", "only templates in this category")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a template's document JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				data, err := c.Export(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(append(data, '\n'))
				return err
			})
		},
	}

	var exportOut string
	export := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a template's document JSON to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				data, err := c.Export(ctx, args[0])
				if err != nil {
					return err
				}
				out := exportOut
				if out == "" {
					out = args[0] + ".json"
				}
				if err := writeExport(data, out); err != nil {
					return err
				}
				fmt.Println(okStyle.Render("✓ exported to " + out))
				return nil
			})
		},
	}
	export.Flags().StringVarP(&exportOut, "output", "o", "", "output path (default <id>.json)")

	var importStock string
	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Create a template from document JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readImport(args[0])
			if err != nil {
				return err
			}
			return withClient(func(ctx context.Context, c *client.Client) error {
				t, err := c.Import(ctx, data, importStock)
				if err != nil {
					return err
				}
				fmt.Println(okStyle.Render(fmt.Sprintf("✓ imported %q as %s (%d elements)", t.Name, t.ID, len(t.Elements))))
				return nil
			})
		},
	}
	imp.Flags().StringVar(&importStock, "stock", "", "stock id for the new template")
	_ = imp.MarkFlagRequired("stock")

	var (
		renderOut   string
		renderScale float64
	)
	render := &cobra.Command{
		Use:     "render <id>",
		Aliases: []string{"preview"},
		Short:   "Render a template preview to PNG",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				png, err := c.Preview(ctx, args[0], renderScale)
				if err != nil {
					return err
				}
				out := renderOut
				if out == "" {
					out = args[0] + ".png"
				}
				if err := os.WriteFile(out, png, 0644); err != nil {
					return err
				}
				fmt.Println(okStyle.Render(fmt.Sprintf("✓ wrote %s (%d bytes)", out, len(png))))
				return nil
			})
		},
	}
	render.Flags().StringVarP(&renderOut, "output", "o", "", "output path (default <id>.png)")
	render.Flags().Float64Var(&renderScale, "scale", 0, "render scale (default from server config)")

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a template",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				if err := c.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println(okStyle.Render("✓ deleted " + args[0]))
				return nil
			})
		},
	}

	cmd.AddCommand(list, get, export, imp, render, del)
	return cmd
}

func stocksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stocks",
		Aliases: []string{"stock"},
		Short:   "List and manage label stocks",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				stocks, err := c.ListStocks(ctx)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(stocks))
				for _, s := range stocks {
					size := fmt.Sprintf("%gx%g in", s.LabelWidth, s.LabelHeight)
					layout := "single"
					if s.ColsPerPage > 0 && s.RowsPerPage > 0 {
						layout = fmt.Sprintf("%dx%d per page", s.ColsPerPage, s.RowsPerPage)
					}
					rows = append(rows, []string{s.ID, s.Name, size, layout})
				}
				fmt.Println(renderTable([]string{"ID", "NAME", "LABEL", "LAYOUT"}, rows))
				return nil
			})
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				s, err := c.GetStock(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Println(headerStyle.Render(s.Name) + " " + mutedStyle.Render(s.ID))
				fmt.Printf("  label   %g x %g in\n", s.LabelWidth, s.LabelHeight)
				if s.PageWidth > 0 {
					fmt.Printf("  page    %g x %g in, %d x %d labels\n", s.PageWidth, s.PageHeight, s.ColsPerPage, s.RowsPerPage)
					fmt.Printf("  margins %g left, %g top; spacing %g x %g\n", s.LeftMargin, s.TopMargin, s.ColSpacing, s.RowSpacing)
				}
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a stock",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				if err := c.DeleteStock(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println(okStyle.Render("✓ deleted " + args[0]))
				return nil
			})
		},
	}

	cmd.AddCommand(list, get, del)
	return cmd
}
