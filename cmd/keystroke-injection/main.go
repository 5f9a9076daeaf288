package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	injection "github.com/usercrixus/KeyStrokeInjection"
)

// Process exit codes
const (
	exitOK     = 0
	exitError  = 1
	exitConfig = 2
)

// options is the fully merged runtime configuration
type options struct {
	root       string
	actionDir  string
	exclude    []string
	ignore     []string
	extensions []string
	timeout    time.Duration
	cooldown   time.Duration
	window     time.Duration
	interval   time.Duration
	once       bool
	poll       bool
	backup     bool
	dryRun     bool
	severity   injection.LogSeverity
	logFile    string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("keystroke-injection", flag.ContinueOnError)
	var (
		rootFlag     = fs.String("root", ".", "root directory to watch")
		actionFlag   = fs.String("action", "", "only files under this folder are transformed")
		configFlag   = fs.String("config", "", "optional YAML configuration file")
		excludeFlag  multiFlag
		ignoreFlag   multiFlag
		onceFlag     = fs.Bool("once", false, "run one recency scan and exit")
		pollFlag     = fs.Bool("poll", false, "use the stat-based polling scanner instead of the notification watcher")
		windowFlag   = fs.Duration("window", 30*time.Second, "recency window for the polling scanner")
		intervalFlag = fs.Duration("interval", 2*time.Second, "polling interval for -poll")
		timeoutFlag  = fs.Duration("timeout", injection.DefaultPollTimeout, "notification wait timeout per cycle")
		cooldownFlag = fs.Duration("cooldown", injection.DefaultCooldown, "per-path re-apply suppression window")
		dryRunFlag   = fs.Bool("dry-run", false, "report what would change without writing")
		backupFlag   = fs.Bool("backup", false, "write a .bak sibling before the first injection")
		verboseFlag  = fs.Bool("verbose", false, "info-level logging")
		debugFlag    = fs.Bool("debug", false, "debug-level logging")
		logFlag      = fs.String("log", "", "log file path (default stderr/stdout)")
	)
	fs.Var(&excludeFlag, "exclude", "extra directory name to skip (repeatable)")
	fs.Var(&ignoreFlag, "ignore", "glob pattern for files to leave alone (repeatable)")

	if err := fs.Parse(args); err != nil {
		return exitConfig
	}

	opts := options{
		root:     *rootFlag,
		timeout:  *timeoutFlag,
		cooldown: *cooldownFlag,
		window:   *windowFlag,
		interval: *intervalFlag,
		severity: injection.SeverityWarn,
	}

	if *configFlag != "" {
		cfg, err := loadFileConfig(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "keystroke-injection: %v\n", err)
			return exitConfig
		}
		if err := applyFileConfig(&opts, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "keystroke-injection: %v\n", err)
			return exitConfig
		}
	}

	// Flags set explicitly on the command line win over the file
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["root"] {
		opts.root = *rootFlag
	}
	if set["action"] || opts.actionDir == "" {
		opts.actionDir = *actionFlag
	}
	if set["window"] {
		opts.window = *windowFlag
	}
	if set["interval"] {
		opts.interval = *intervalFlag
	}
	if set["timeout"] {
		opts.timeout = *timeoutFlag
	}
	if set["cooldown"] {
		opts.cooldown = *cooldownFlag
	}
	if set["log"] || opts.logFile == "" {
		opts.logFile = *logFlag
	}
	if set["backup"] {
		opts.backup = *backupFlag
	}
	if set["dry-run"] {
		opts.dryRun = *dryRunFlag
	}
	opts.exclude = append(opts.exclude, excludeFlag...)
	opts.ignore = append(opts.ignore, ignoreFlag...)
	opts.once = *onceFlag
	opts.poll = *pollFlag
	if *verboseFlag {
		opts.severity = injection.SeverityInfo
	}
	if *debugFlag {
		opts.severity = injection.SeverityDebug
	}

	info, err := os.Stat(opts.root)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "keystroke-injection: root is not a directory: %s\n", opts.root)
		return exitConfig
	}

	applier := injection.NewSnippetApplier()
	applier.Backup = opts.backup
	applier.DryRun = opts.dryRun
	if len(opts.extensions) == 0 {
		opts.extensions = applier.Extensions()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.once || opts.poll {
		return runScanner(ctx, opts, applier)
	}
	return runWatcher(ctx, opts, applier)
}

// applyFileConfig folds the YAML file into the options
func applyFileConfig(opts *options, cfg *fileConfig) error {
	if cfg.Root != "" {
		opts.root = cfg.Root
	}
	opts.actionDir = cfg.ActionDir
	opts.exclude = append(opts.exclude, cfg.Exclude...)
	opts.ignore = append(opts.ignore, cfg.Ignore...)
	opts.extensions = append(opts.extensions, cfg.Extensions...)
	if cfg.Backup != nil {
		opts.backup = *cfg.Backup
	}
	if cfg.DryRun != nil {
		opts.dryRun = *cfg.DryRun
	}
	if cfg.LogLevel != "" {
		opts.severity = injection.ParseSeverity(cfg.LogLevel)
	}
	opts.logFile = cfg.LogFile

	var err error
	if opts.timeout, err = parseDuration(cfg.PollTimeout, opts.timeout); err != nil {
		return fmt.Errorf("poll_timeout: %w", err)
	}
	if opts.cooldown, err = parseDuration(cfg.Cooldown, opts.cooldown); err != nil {
		return fmt.Errorf("cooldown: %w", err)
	}
	if opts.window, err = parseDuration(cfg.Window, opts.window); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	if opts.interval, err = parseDuration(cfg.Interval, opts.interval); err != nil {
		return fmt.Errorf("interval: %w", err)
	}
	return nil
}

// runWatcher runs the notification-based tree watcher until interrupted
func runWatcher(ctx context.Context, opts options, applier injection.Applier) int {
	watcherOpts := []injection.Option{
		injection.WithPollTimeout(opts.timeout),
		injection.WithCooldown(opts.cooldown),
		injection.WithExclusions(opts.exclude...),
		injection.WithIgnoreGlobs(opts.ignore...),
		injection.WithExtensions(opts.extensions...),
		injection.WithApplier(applier),
		injection.WithSeverity(opts.severity),
		injection.WithLogFile(opts.logFile),
	}
	if opts.actionDir != "" {
		watcherOpts = append(watcherOpts, injection.WithActionDir(opts.actionDir))
	}

	w, err := injection.New(opts.root, watcherOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keystroke-injection: %v\n", err)
		return exitConfig
	}

	if err := w.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "keystroke-injection: %v\n", err)
		return exitError
	}
	return exitOK
}

// runScanner runs the stat-based fallback: one shot with -once, otherwise a
// polling loop on the configured interval
func runScanner(ctx context.Context, opts options, applier injection.Applier) int {
	scanRoot := opts.root
	if opts.actionDir != "" {
		// The scanner has no separate watch scope, so it roots directly
		// at the action folder
		scanRoot = opts.actionDir
	}

	scanner := injection.NewScanner(scanRoot, opts.window,
		injection.NewExclusions(opts.exclude...), opts.extensions)
	cooldown := injection.NewCooldown(opts.cooldown)

	scan := func() int {
		changed := 0
		now := time.Now()
		for _, path := range scanner.Scan(now) {
			if !cooldown.Allow(path, now) {
				continue
			}
			outcome, err := applier.Apply(path)
			switch outcome {
			case injection.OutcomeApplied:
				changed++
				fmt.Printf("Applied: %s\n", path)
			case injection.OutcomeAlreadyMarked:
				if opts.severity >= injection.SeverityInfo {
					fmt.Printf("AlreadyMarked: %s\n", path)
				}
			case injection.OutcomeUnsupported:
			default:
				fmt.Fprintf(os.Stderr, "%s: %s: %v\n", outcome, path, err)
			}
		}
		return changed
	}

	if opts.once {
		fmt.Printf("Done. Changed: %d\n", scan())
		return exitOK
	}

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return exitOK
		case <-ticker.C:
			scan()
		}
	}
}

// multiFlag collects repeated string flags
type multiFlag []string

func (m *multiFlag) String() string { return fmt.Sprint([]string(*m)) }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
