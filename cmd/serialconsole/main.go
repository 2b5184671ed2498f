// Package main implements the serial console client entry point. This file
// handles command-line parsing, profile resolution, dependency injection and
// the run of the console until the operator quits.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/universal-console/serialconsole/internal/app"
	"github.com/universal-console/serialconsole/internal/config"
	"github.com/universal-console/serialconsole/internal/content"
	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/logging"
	"github.com/universal-console/serialconsole/internal/registry"
	"github.com/universal-console/serialconsole/internal/render"
)

// Application metadata
const (
	Version     = "1.0.0"
	ProgramName = "Serial Console"
)

// DefaultLogFile is used with the rich renderer when no log file is set,
// since the alternate screen owns stdout and stderr
const DefaultLogFile = "serialconsole.log"

// CommandLineArgs represents parsed command-line arguments
type CommandLineArgs struct {
	Profile   string
	Host      string
	Port      int
	Path      string
	TLS       bool
	Theme     string
	Renderer  string
	LocalEcho bool
	Debug     int
	LogFile   string
	Channel   int
}

// Dependencies holds all injected application dependencies
type Dependencies struct {
	ConfigManager *config.Manager
	Profile       *interfaces.Profile
	Theme         *interfaces.Theme
	Logger        *logging.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var args CommandLineArgs

	root := &cobra.Command{
		Use:   "serialconsole",
		Short: "Terminal client for a WebSocket serial console multiplexer",
		Long: `Serial Console connects to a serial console multiplexer over WebSocket
and attaches the terminal to one of its boards. The link is probed with
heartbeats and re-established automatically when it drops.

Settings come from the profile file, then SERIALCONSOLE_* environment
variables, then flags.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, args)
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&args.Profile, "profile", "p", "", "profile name from the configuration file")
	f.StringVar(&args.Host, "host", "", "multiplexer host, optionally host:port")
	f.IntVar(&args.Port, "port", 0, "multiplexer port")
	f.StringVar(&args.Path, "path", "", "WebSocket path")
	f.BoolVar(&args.TLS, "tls", false, "connect with wss://")
	f.StringVar(&args.Theme, "theme", "", "color theme")
	f.StringVarP(&args.Renderer, "renderer", "r", "", "renderer: auto, rich or plain")
	f.BoolVar(&args.LocalEcho, "local-echo", false, "print typed characters in the plain renderer")
	f.IntVarP(&args.Debug, "debug", "d", logging.DefaultVerbosity, "log verbosity, 0 (errors) to 3 (everything)")
	f.StringVar(&args.LogFile, "log-file", "", "write logs to this file")
	f.IntVarP(&args.Channel, "channel", "c", 0, "channel selected after each connect")

	root.AddCommand(newConfigCommand(&args), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", ProgramName, Version)
		},
	}
}

func newConfigCommand(args *CommandLineArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective profile",
		RunE: func(c *cobra.Command, _ []string) error {
			deps, err := resolveProfile(c, *args)
			if err != nil {
				return err
			}
			text, err := config.Marshal(deps.Profile)
			if err != nil {
				return err
			}
			highlighter, err := content.NewSyntaxHighlighter(deps.Profile.Theme, "terminal256")
			if err == nil && isTerminal(c.OutOrStdout()) {
				if colored, err := highlighter.Highlight(text, "yaml"); err == nil {
					text = colored
				}
			}
			fmt.Fprint(c.OutOrStdout(), text)
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		RunE: func(c *cobra.Command, _ []string) error {
			manager, err := config.NewManager()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), manager.GetConfigPath())
			return nil
		},
	}

	profiles := &cobra.Command{
		Use:   "profiles",
		Short: "List the profiles in the configuration file",
		RunE: func(c *cobra.Command, _ []string) error {
			manager, err := config.NewManager()
			if err != nil {
				return err
			}
			names, err := manager.ListProfiles()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(c.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.AddCommand(show, path, profiles)
	return cmd
}

func isTerminal(w io.Writer) bool {
	return render.Resolve(interfaces.RendererAuto, w) == interfaces.RendererRich
}

// resolveProfile loads the named profile and layers the environment and the
// flags that were set on top of it
func resolveProfile(cmd *cobra.Command, args CommandLineArgs) (Dependencies, error) {
	var deps Dependencies

	manager, err := config.NewManager()
	if err != nil {
		return deps, fmt.Errorf("failed to initialize config manager: %w", err)
	}
	deps.ConfigManager = manager

	env, err := config.LoadEnvOverrides()
	if err != nil {
		return deps, err
	}

	name := args.Profile
	if name == "" {
		name = env.Profile
	}
	if name == "" {
		name = config.DefaultProfileName
	}

	profile, err := manager.LoadProfile(name)
	if err != nil {
		return deps, fmt.Errorf("failed to load profile '%s': %w", name, err)
	}
	env.Apply(profile)
	if err := applyFlags(cmd, args, profile); err != nil {
		return deps, err
	}
	if err := config.ValidateProfile(profile); err != nil {
		return deps, err
	}
	deps.Profile = profile

	if theme, err := manager.LoadTheme(profile.Theme); err == nil {
		deps.Theme = theme
	}
	return deps, nil
}

// applyFlags copies the flags given on the command line onto profile
func applyFlags(cmd *cobra.Command, args CommandLineArgs, profile *interfaces.Profile) error {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("host") {
		host := args.Host
		if h, p, err := net.SplitHostPort(host); err == nil {
			port, err := strconv.Atoi(p)
			if err != nil {
				return fmt.Errorf("invalid port in --host %q", host)
			}
			host = h
			profile.Port = port
		}
		profile.Host = host
	}
	if changed("port") {
		profile.Port = args.Port
	}
	if changed("path") {
		profile.Path = args.Path
	}
	if changed("tls") {
		profile.TLS = args.TLS
	}
	if changed("theme") {
		profile.Theme = args.Theme
	}
	if changed("renderer") {
		profile.Renderer = interfaces.RendererKind(args.Renderer)
	}
	if changed("local-echo") {
		profile.LocalEcho = args.LocalEcho
	}
	if changed("debug") {
		profile.DebugLevel = args.Debug
	}
	if changed("log-file") {
		profile.LogFile = args.LogFile
	}
	if changed("channel") {
		profile.Channels.Initial = args.Channel
	}
	return nil
}

// initializeLogging sets up the global logger for profile. The rich
// renderer owns the terminal, so its logs go to a file next to the
// configuration.
func initializeLogging(profile *interfaces.Profile, kind interfaces.RendererKind, configPath string) (*logging.Logger, error) {
	logConfig := logging.DefaultConfig()
	logConfig.Level = logging.LevelFromVerbosity(profile.DebugLevel)

	switch {
	case profile.LogFile != "":
		logConfig.Output = profile.LogFile
	case kind == interfaces.RendererRich:
		logConfig.Output = filepath.Join(filepath.Dir(configPath), DefaultLogFile)
	}

	if err := logging.InitGlobalLogger(logConfig); err != nil {
		return nil, err
	}
	return logging.GetGlobalLogger(), nil
}

func runConsole(cmd *cobra.Command, args CommandLineArgs) error {
	deps, err := resolveProfile(cmd, args)
	if err != nil {
		return err
	}
	profile := deps.Profile

	kind := render.Resolve(profile.Renderer, os.Stdout)
	logger, err := initializeLogging(profile, kind, deps.ConfigManager.GetConfigPath())
	if err != nil {
		return err
	}
	deps.Logger = logger
	logger.Info("Serial console starting",
		"version", Version,
		"profile", profile.Name,
		"url", config.URL(profile),
		"renderer", kind)

	channels := registry.NewChannels(profile.Channels.Count, profile.Channels.Labels)
	factory := render.Factory(render.Options{
		LocalEcho: profile.LocalEcho,
		Labels:    channels.Labels(),
		Theme:     deps.Theme,
		Logger:    logger.WithComponent("render"),
	})

	console, err := app.New(app.Options{
		Profile:  profile,
		Renderer: kind,
		Factory:  factory,
		Logger:   logger.WithComponent("app"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := console.Run(ctx); err != nil {
		logger.Error("Console terminated with error", "error", err.Error())
		return err
	}
	logger.Info("Console shutdown completed")
	return nil
}
