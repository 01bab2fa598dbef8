package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	subtle = color.New(color.FgHiBlack)
	accent = color.New(color.FgCyan, color.Bold)
)

var (
	renderOut    string
	renderWidth  float64
	renderHeight float64
	renderShape  string
	renderURL    string
	uploadName   string
)

var renderCmd = &cobra.Command{
	Use:   "render [tree]",
	Short: "Draw a tree view to an SVG or PNG file",
	Long: `render fetches one view of a tree and writes it to a file. The format
follows the file extension (.svg or .png). Without --url the whole tree
is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

var infoCmd = &cobra.Command{
	Use:   "info <tree>",
	Short: "Show tree size, node counts and selections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, client, err := setup()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), config.timeout())
		defer cancel()
		treeID := args[0]
		size, err := client.Size(ctx, treeID)
		if err != nil {
			return err
		}
		count, err := client.NodeCount(ctx, treeID)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", accent.Sprint("tree"), treeID)
		fmt.Printf("  size      %g x %g\n", size.Width, size.Height)
		fmt.Printf("  nodes     %d\n", count.Nodes)
		fmt.Printf("  leaves    %d\n", count.Leaves)
		names, err := client.Selections(ctx, treeID)
		if err != nil {
			subtle.Printf("  selections unavailable: %v\n", err)
			return nil
		}
		if len(names) == 0 {
			subtle.Println("  no selections")
			return nil
		}
		fmt.Printf("  selections %s\n", strings.Join(names, ", "))
		return nil
	},
}

var newickCmd = &cobra.Command{
	Use:   "newick <tree>",
	Short: "Print the tree in newick format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, client, err := setup()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), config.timeout())
		defer cancel()
		newick, err := client.Newick(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(newick)
		return nil
	},
}

var treeCommandCmd = &cobra.Command{
	Use:   "cmd <tree> <command> [params...]",
	Short: "Run a tree command such as sort, root_at, remove or rename",
	Long: `cmd sends a tree-changing command to the server. Each parameter is
parsed as JSON when possible and sent as a string otherwise, so node ids
are written as lists:

  smartview cmd 3 rename '[0,1]' mammals
  smartview cmd 3 root_at 0 2`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, client, err := setup()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), config.timeout())
		defer cancel()
		message, err := client.Command(ctx, args[0], args[1], parseParams(args[2:])...)
		if err != nil {
			return err
		}
		if message == "" {
			message = args[1] + " done"
		}
		good.Printf("✓ %s\n", message)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file|pattern>...",
	Short: "Upload newick files and print the new tree ids",
	Long: `upload sends each newick file to the server. Patterns may use ** to
reach into subdirectories, e.g. 'trees/**/*.nw'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

// expandUploadArgs resolves files and glob patterns into a sorted list of
// distinct files.
func expandUploadArgs(args []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %s", arg)
		}
		for _, f := range matches {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func uploadFile(ctx context.Context, config *Config, client *Client, path, name string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxUploadBytes {
		return "", fmt.Errorf("%s: %w", path, ErrUploadTooLarge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	ctx, cancel := context.WithTimeout(ctx, config.timeout())
	defer cancel()
	id, err := client.Upload(ctx, name, string(data))
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return id, nil
}

type uploadResult struct {
	file string
	id   string
	err  error
}

func runUpload(cmd *cobra.Command, args []string) error {
	config, client, err := setup()
	if err != nil {
		return err
	}
	files, err := expandUploadArgs(args)
	if err != nil {
		return err
	}
	if uploadName != "" && len(files) > 1 {
		return fmt.Errorf("--name needs a single file, got %d", len(files))
	}

	var bar *progressbar.ProgressBar
	if len(files) > 1 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Uploading trees"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	results := make([]uploadResult, 0, len(files))
	for i, file := range files {
		if bar != nil {
			bar.Describe(filepath.Base(file))
		}
		id, err := uploadFile(cmd.Context(), config, client, file, uploadName)
		results = append(results, uploadResult{file: file, id: id, err: err})
		if bar != nil {
			_ = bar.Set(i + 1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			bad.Printf("✗ %v\n", r.err)
			continue
		}
		good.Printf("✓ uploaded %s as tree %s\n", r.file, accent.Sprint(r.id))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(files))
	}
	return nil
}

var urlCmd = &cobra.Command{
	Use:   "url <tree|share-url>",
	Short: "Print the share url of the whole tree, or decode a share url",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.Contains(args[0], "://") {
			sv, err := parseShareURL(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("server  %s\n", sv.Server)
			fmt.Printf("tree    %s\n", sv.TreeID)
			fmt.Printf("shape   %s\n", sv.Shape)
			fmt.Printf("offset  %g, %g\n", sv.Offset.X, sv.Offset.Y)
			fmt.Printf("window  %g x %g\n", sv.Window.X, sv.Window.Y)
			return nil
		}
		config, client, err := setup()
		if err != nil {
			return err
		}
		vw, err := headlessViewer(cmd.Context(), config, client, args[0])
		if err != nil {
			return err
		}
		fmt.Println(shareURL(config.Server, args[0], vw.view, vw.size))
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "output file (.svg or .png)")
	renderCmd.Flags().Float64Var(&renderWidth, "width", defaultViewW, "view width in pixels")
	renderCmd.Flags().Float64Var(&renderHeight, "height", defaultViewH, "view height in pixels")
	renderCmd.Flags().StringVar(&renderShape, "shape", "rectangular", "tree shape: rectangular or circular")
	renderCmd.Flags().StringVar(&renderURL, "url", "", "render a shared view url")
	urlCmd.Flags().Float64Var(&renderWidth, "width", defaultViewW, "view width in pixels")
	urlCmd.Flags().Float64Var(&renderHeight, "height", defaultViewH, "view height in pixels")
	urlCmd.Flags().StringVar(&renderShape, "shape", "rectangular", "tree shape: rectangular or circular")
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "tree name for a single file (default: file name)")

	rootCmd.AddCommand(renderCmd, infoCmd, newickCmd, treeCommandCmd, uploadCmd, urlCmd)
}

// parseParams reads each argument as JSON, falling back to a plain string.
func parseParams(args []string) []any {
	params := make([]any, 0, len(args))
	for _, a := range args {
		var v any
		if err := json.Unmarshal([]byte(a), &v); err != nil {
			v = a
		}
		params = append(params, v)
	}
	return params
}

// headlessViewer sets up a viewer of renderWidth x renderHeight fitted to
// the whole tree.
func headlessViewer(ctx context.Context, config *Config, client *Client, treeID string) (*viewer, error) {
	shape, err := parseShape(renderShape)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, config.timeout())
	defer cancel()
	size, err := client.Size(ctx, treeID)
	if err != nil {
		return nil, err
	}
	vw := newViewer(config, shape, exactMeasurer())
	vw.Dispatch(Resize{Size: point{renderWidth, renderHeight}})
	vw.setTreeSize(size, true)
	return vw, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	var shared *sharedView
	if renderURL != "" {
		sv, err := parseShareURL(renderURL)
		if err != nil {
			return err
		}
		shared = &sv
		renderShape = sv.Shape.String()
		if serverURL == "" {
			serverURL = sv.Server
		}
	}
	config, client, err := setup()
	if err != nil {
		return err
	}
	var treeID string
	switch {
	case shared != nil:
		treeID = shared.TreeID
	case len(args) == 1:
		treeID = args[0]
	default:
		return fmt.Errorf("no tree given; pass a tree id or --url")
	}
	if renderOut == "" {
		renderOut = safeName(treeID) + ".svg"
	}
	ext := strings.ToLower(filepath.Ext(renderOut))
	if ext != ".svg" && ext != ".png" {
		return fmt.Errorf("unsupported output format %q", ext)
	}

	vw, err := headlessViewer(cmd.Context(), config, client, treeID)
	if err != nil {
		return err
	}
	if shared != nil {
		if err := shared.apply(vw.view, vw.size); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), config.timeout())
	defer cancel()
	if err := vw.install(fetchScene(ctx, client, treeID, vw.drawRequest(), vw.opts)); err != nil {
		return err
	}

	if ext == ".png" {
		err = exportPNG(renderOut, vw.scene, config.Colors)
	} else {
		err = writeSVGFile(renderOut, vw.scene, config.Colors)
	}
	if err != nil {
		return err
	}
	good.Printf("✓ wrote %s ", renderOut)
	subtle.Printf("(%d items, %d nodes", len(vw.scene.Items), vw.scene.Nodes)
	if vw.scene.Skipped > 0 {
		subtle.Printf(", %d skipped", vw.scene.Skipped)
	}
	subtle.Println(")")
	return nil
}
