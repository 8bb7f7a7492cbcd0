package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/livemd"
	"pkt.systems/version"
)

const defaultWidth = 80

func init() {
	version.SetDefaultModule("pkt.systems/livemd")
}

type mode int

const (
	modeUsage mode = iota
	modeStdin
	modeFile
	modeExec
	modeQuery
)

func main() {
	var (
		stdinFlag    bool
		filePath     string
		execCommand  string
		speed        float64
		chunkSize    int
		stripBoxes   bool
		llmCommand   string
		themeName    string
		themeFile    string
		noInject     bool
		widthFlag    int
		listThemes   bool
		printVersion bool
	)

	flags := pflag.NewFlagSet("livemd", pflag.ExitOnError)
	flags.BoolVarP(&stdinFlag, "stdin", "i", false, "Stream Markdown from stdin")
	flags.StringVarP(&filePath, "file", "f", "", "Stream a Markdown file or HTTP(S) URL")
	flags.StringVarP(&execCommand, "exec", "x", "", "Run a shell command and stream its output")
	flags.Float64VarP(&speed, "speed", "s", 0, "Delay between flush bursts in seconds")
	flags.IntVar(&chunkSize, "chunk-size", livemd.DefaultChunkSize, "Buffer size threshold before forced flush")
	flags.BoolVarP(&stripBoxes, "strip-boxes", "b", false, "Convert box-drawing banners to headings")
	flags.StringVarP(&llmCommand, "llm-cmd", "c", "", "Shell command prefix for LLM queries")
	flags.StringVarP(&themeName, "theme", "t", "", "Theme name")
	flags.StringVar(&themeFile, "theme-file", "", "JSON theme file")
	flags.BoolVar(&noInject, "no-inject", false, "Do not prepend the Markdown instruction to queries")
	flags.IntVarP(&widthFlag, "width", "w", 0, "Output width override (0 uses terminal width if available)")
	flags.BoolVar(&listThemes, "list-themes", false, "List available themes")
	flags.BoolVar(&printVersion, "version", false, "Print version and exit")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, version.Module(), version.Current())
		fmt.Fprintf(os.Stderr, "Usage: livemd [flags] [query...]\n")
		fmt.Fprintln(os.Stderr, "\nWith no input flags, arguments form an LLM query; piped stdin is streamed.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if printVersion {
		fmt.Println(version.Module(), version.Current())
		return
	}
	if listThemes {
		printThemes()
		return
	}

	path, err := livemd.ConfigPath()
	var fileCfg *livemd.FileConfig
	if err == nil {
		fileCfg, err = livemd.LoadFileConfig(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		fileCfg = &livemd.FileConfig{}
	}

	over := livemd.Overrides{Width: resolveWidth(widthFlag)}
	if flags.Changed("speed") {
		d := time.Duration(speed * float64(time.Second))
		over.Delay = &d
	}
	if flags.Changed("chunk-size") {
		over.ChunkSize = &chunkSize
	}
	if flags.Changed("strip-boxes") {
		over.StripBoxes = &stripBoxes
	}
	if flags.Changed("llm-cmd") {
		over.LLMCommand = &llmCommand
	}
	if flags.Changed("theme") {
		over.Theme = &themeName
	}
	if flags.Changed("theme-file") {
		over.ThemeFile = &themeFile
	}
	if flags.Changed("no-inject") {
		inject := !noInject
		over.InjectMarkdownHint = &inject
	}

	cfg, warnings := livemd.ResolveConfig(over, fileCfg)
	for _, warning := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	args := flags.Args()
	stdinPiped := !term.IsTerminal(int(os.Stdin.Fd()))
	selected := selectMode(stdinFlag, filePath, execCommand, args, stdinPiped)
	if selected == modeUsage {
		flags.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streamer := livemd.NewStreamer(os.Stdout, cfg)
	switch selected {
	case modeStdin:
		err = streamer.StreamStdin(ctx)
	case modeFile:
		err = streamer.StreamFile(ctx, filePath)
	case modeExec:
		err = streamer.StreamCommand(ctx, execCommand)
	case modeQuery:
		err = streamer.StreamQuery(ctx, strings.Join(args, " "))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "livemd: %v\n", err)
		os.Exit(1)
	}
}

// selectMode picks the input source, first match wins: explicit stdin flag,
// file, exec command, query arguments, then piped stdin.
func selectMode(stdinFlag bool, filePath, execCommand string, args []string, stdinPiped bool) mode {
	switch {
	case stdinFlag:
		return modeStdin
	case filePath != "":
		return modeFile
	case execCommand != "":
		return modeExec
	case len(args) > 0:
		return modeQuery
	case stdinPiped:
		return modeStdin
	default:
		return modeUsage
	}
}

func printThemes() {
	names := livemd.AvailableThemes()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(os.Stdout, name)
	}
}

func resolveWidth(width int) int {
	if width > 0 {
		return width
	}
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconvAtoi(value); err == nil && w > 0 {
			return w
		}
	}
	return defaultWidth
}

func strconvAtoi(value string) (int, error) {
	var n int
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, fmt.Errorf("invalid int")
		}
		n = n*10 + int(value[i]-'0')
	}
	return n, nil
}
