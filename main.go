package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	serverURL string
	verbose   bool
	shapeName string
	shareLink string
)

var rootCmd = &cobra.Command{
	Use:   "smartview [tree]",
	Short: "Explore phylogenetic trees drawn by a tree server",
	Long: `smartview shows a tree from a tree drawing server in the terminal.
Drag to pan, scroll to zoom, click to select nodes. The server does the
layout; smartview asks for what is visible and draws it.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runViewer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "tree server url (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
	rootCmd.Flags().StringVar(&shapeName, "shape", "rectangular", "tree shape: rectangular or circular")
	rootCmd.Flags().StringVar(&shareLink, "url", "", "open a shared view url")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		bad.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the config, applies flag overrides and builds the client.
func setup() (*Config, *Client, error) {
	if !verbose {
		log.SetOutput(io.Discard)
	}
	config, err := loadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if serverURL != "" {
		config.Server = serverURL
	}
	return config, NewClient(config.Server, config.timeout()), nil
}

// exactMeasurer returns the font measurer, or the approximation if the font
// cannot be loaded.
func exactMeasurer() measurer {
	m, err := newFontMeasurer()
	if err != nil {
		log.Printf("smartview: exact text measurement unavailable: %v", err)
		return approxMeasurer{}
	}
	return m
}

func runViewer(cmd *cobra.Command, args []string) error {
	var shared *sharedView
	if shareLink != "" {
		sv, err := parseShareURL(shareLink)
		if err != nil {
			return err
		}
		shared = &sv
		if serverURL == "" {
			serverURL = sv.Server
		}
	}
	config, client, err := setup()
	if err != nil {
		return err
	}

	treeID := ""
	shape, err := parseShape(shapeName)
	if err != nil {
		return err
	}
	switch {
	case shared != nil:
		treeID = shared.TreeID
		shape = shared.Shape
	case len(args) == 1:
		treeID = args[0]
	default:
		return fmt.Errorf("no tree given; pass a tree id or --url")
	}

	if path := os.Getenv("SMARTVIEW_LOG"); path != "" {
		f, err := tea.LogToFile(path, "smartview")
		if err != nil {
			return err
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	m := newModel(client, config, treeID, shape, exactMeasurer())
	m.shared = shared
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()
	return err
}
