package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/MelodicDNA/pkg/logger"
	"github.com/himanishpuri/MelodicDNA/pkg/melodicdna"
	"github.com/himanishpuri/MelodicDNA/pkg/models"
)

// Global flags
var (
	dbPath     string
	tempDir    string
	sampleRate int
	bpm        float64
	maxResults int
	logLevel   string
)

func init() {
	// Global flags go before the command name
	flag.StringVar(&dbPath, "db", getEnvOrDefault("MELODIC_DB_PATH", "melodicdna.sqlite3"), "Path to the SQLite database file")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("MELODIC_TEMP_DIR", os.TempDir()), "Directory for rendered excerpts")
	flag.IntVar(&sampleRate, "rate", 22050, "Sample rate of rendered excerpts")
	flag.Float64Var(&bpm, "bpm", 120, "Tempo of rendered excerpts in quarter notes per minute")
	flag.IntVar(&maxResults, "max", 0, "Maximum number of occurrences to return (0 = unlimited)")
	flag.StringVar(&logLevel, "log-level", getEnvOrDefault("LOG_LEVEL", "warn"), "Log level: debug, info, warn, error")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// settingsFlag collects repeated --set key=value arguments.
type settingsFlag map[string]string

func (s settingsFlag) String() string {
	parts := make([]string, 0, len(s))
	for k, v := range s {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (s settingsFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	s[strings.TrimSpace(key)] = strings.TrimSpace(val)
	return nil
}

// listFlag collects repeated string arguments.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// createService creates a new MelodicDNA service with configured options
func createService() (melodicdna.Service, error) {
	return melodicdna.NewService(
		melodicdna.WithDBPath(dbPath),
		melodicdna.WithTempDir(tempDir),
		melodicdna.WithSampleRate(sampleRate),
		melodicdna.WithBPM(bpm),
		melodicdna.WithMaxResults(maxResults),
	)
}

func mustCreateService() melodicdna.Service {
	svc, err := createService()
	if err != nil {
		fail("Failed to create service", err)
	}
	return svc
}

// fail prints the error for the user, logs it and exits.
func fail(what string, err error) {
	fmt.Printf("❌ %s: %v\n", what, err)
	logger.Errorf("%s: %v", what, err)
	os.Exit(1)
}

// parseCommand splits positional arguments from command flags. Positionals
// may come before or after the flags.
func parseCommand(fs *flag.FlagSet, args []string) []string {
	var positional []string
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		positional = append(positional, args[0])
		args = args[1:]
	}
	fs.Parse(args)
	return append(positional, fs.Args()...)
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	log := logger.GetLogger()
	if level, ok := logger.ParseLevel(logLevel); ok {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown log level %q, keeping %s", logLevel, log.Level())
	}

	args := flag.Args()
	if len(args) < 1 {
		printBanner()
		printUsage()
		os.Exit(1)
	}

	command, rest := args[0], args[1:]
	log.Infof("Executing command: %s", command)

	switch command {
	case "add":
		handleAdd(rest)
	case "list":
		handleList()
	case "show":
		handleShow(rest)
	case "delete":
		handleDelete(rest)
	case "search":
		handleSearch(rest)
	case "match":
		handleMatch(rest)
	case "render":
		handleRender(rest)
	case "help", "-h", "--help":
		printBanner()
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 __  __      _           _ _      ____  _   _    _
|  \/  | ___| | ___   __| (_) ___|  _ \| \ | |  / \
| |\/| |/ _ \ |/ _ \ / _' | |/ __| | | |  \| | / _ \
| |  | |  __/ | (_) | (_| | | (__| |_| | |\  |/ ___ \
|_|  |_|\___|_|\___/ \__,_|_|\___|____/|_| \_/_/   \_\

          Geometric Melodic Search CLI Tool
`
	fmt.Println(banner)
}

func handleAdd(args []string) {
	log := logger.GetLogger()

	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	title := addCmd.String("title", "", "Piece title (defaults to the file name)")
	composer := addCmd.String("composer", "", "Composer name")
	positional := parseCommand(addCmd, args)

	if len(positional) != 1 {
		fmt.Println("Usage: melodicdna add <notes_file> [--title <title>] [--composer <composer>]")
		os.Exit(1)
	}
	path := positional[0]

	svc := mustCreateService()
	defer svc.Close()

	fmt.Println("🎼 Reading notes...")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pieceID, err := svc.AddPieceFromFile(ctx, path, *title, *composer)
	if err != nil {
		fail("Failed to add piece", err)
	}

	piece, err := svc.GetPiece(pieceID)
	if err != nil {
		fail("Failed to read back piece", err)
	}

	fmt.Println("\n✅ Successfully added piece to database!")
	printPiece(piece)
	log.Infof("Successfully added piece ID=%s", pieceID)
}

func handleList() {
	svc := mustCreateService()
	defer svc.Close()

	pieces, err := svc.ListPieces()
	if err != nil {
		fail("Failed to list pieces", err)
	}

	if len(pieces) == 0 {
		fmt.Println("\n📭 No pieces in database")
		return
	}

	fmt.Printf("\n📚 Found %d piece(s):\n\n", len(pieces))
	for i, piece := range pieces {
		fmt.Printf("%d. \"%s\"", i+1, piece.Title)
		if piece.Composer != "" {
			fmt.Printf(" by %s", piece.Composer)
		}
		fmt.Printf("\n   ID: %s | %s notes | added %s\n\n",
			piece.ID, humanize.Comma(int64(piece.NoteCount)), humanize.Time(piece.CreatedAt))
	}
}

func handleShow(args []string) {
	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	limit := showCmd.Int("notes", 20, "Number of notes to print (0 = all)")
	positional := parseCommand(showCmd, args)

	if len(positional) != 1 {
		fmt.Println("Usage: melodicdna show <piece_id> [--notes <n>]")
		os.Exit(1)
	}

	svc := mustCreateService()
	defer svc.Close()

	piece, err := svc.GetPiece(positional[0])
	if err != nil {
		fail("Piece not found", err)
	}
	notes, err := svc.GetNotes(piece.ID)
	if err != nil {
		fail("Failed to load notes", err)
	}

	fmt.Println()
	printPiece(piece)
	fmt.Println()

	n := len(notes)
	if *limit > 0 && *limit < n {
		n = *limit
	}
	fmt.Printf("   %-6s %-10s %-6s %-10s %s\n", "#", "onset", "pitch", "duration", "id")
	for i, note := range notes[:n] {
		fmt.Printf("   %-6d %-10s %-6d %-10s %s\n", i, note.Onset, note.Pitch, note.Duration, note.ID)
	}
	if n < len(notes) {
		fmt.Printf("   ... and %s more notes\n", humanize.Comma(int64(len(notes)-n)))
	}
}

func handleDelete(args []string) {
	log := logger.GetLogger()

	if len(args) != 1 {
		fmt.Println("Usage: melodicdna delete <piece_id>")
		os.Exit(1)
	}

	svc := mustCreateService()
	defer svc.Close()

	// Get piece info before deletion
	piece, err := svc.GetPiece(args[0])
	if err != nil {
		fail("Piece not found", err)
	}

	if err := svc.DeletePiece(piece.ID); err != nil {
		fail("Failed to delete piece", err)
	}

	fmt.Printf("\n✅ Successfully deleted piece:\n")
	printPiece(piece)
	log.Infof("Deleted piece ID=%s ('%s' by '%s')", piece.ID, piece.Title, piece.Composer)
}

func handleSearch(args []string) {
	opts := settingsFlag{}
	var pieces listFlag

	searchCmd := flag.NewFlagSet("search", flag.ExitOnError)
	searchCmd.Var(opts, "set", "Matching setting as key=value (repeatable)")
	searchCmd.Var(&pieces, "piece", "Restrict the search to a piece ID (repeatable)")
	positional := parseCommand(searchCmd, args)

	if len(positional) != 1 {
		fmt.Println("Usage: melodicdna search <pattern_file> [--set key=value ...] [--piece <id> ...]")
		os.Exit(1)
	}

	pattern, err := melodicdna.ReadNotesFile(positional[0])
	if err != nil {
		fail("Failed to read pattern", err)
	}

	svc := mustCreateService()
	defer svc.Close()

	fmt.Printf("🔍 Searching for a %d-note pattern...\n", len(pattern))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results, err := svc.Search(ctx, pattern, opts, pieces...)
	if err != nil {
		failSearch(err)
	}
	printResults(results, true)
}

func handleMatch(args []string) {
	opts := settingsFlag{}

	matchCmd := flag.NewFlagSet("match", flag.ExitOnError)
	matchCmd.Var(opts, "set", "Matching setting as key=value (repeatable)")
	positional := parseCommand(matchCmd, args)

	if len(positional) != 2 {
		fmt.Println("Usage: melodicdna match <pattern_file> <source_file> [--set key=value ...]")
		os.Exit(1)
	}

	pattern, err := melodicdna.ReadNotesFile(positional[0])
	if err != nil {
		fail("Failed to read pattern", err)
	}
	source, err := melodicdna.ReadNotesFile(positional[1])
	if err != nil {
		fail("Failed to read source", err)
	}

	svc := mustCreateService()
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results, err := svc.Match(ctx, pattern, source, opts)
	if err != nil {
		failSearch(err)
	}
	printResults(results, false)
}

func handleRender(args []string) {
	opts := settingsFlag{}

	renderCmd := flag.NewFlagSet("render", flag.ExitOnError)
	renderCmd.Var(opts, "set", "Matching setting as key=value (repeatable)")
	index := renderCmd.Int("occurrence", 1, "Which occurrence to render, counting from 1")
	positional := parseCommand(renderCmd, args)

	if len(positional) != 3 {
		fmt.Println("Usage: melodicdna render <piece_id> <pattern_file> <out.wav> [--occurrence <n>] [--set key=value ...]")
		os.Exit(1)
	}
	pieceID, patternPath, outPath := positional[0], positional[1], positional[2]

	pattern, err := melodicdna.ReadNotesFile(patternPath)
	if err != nil {
		fail("Failed to read pattern", err)
	}

	svc := mustCreateService()
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results, err := svc.Search(ctx, pattern, opts, pieceID)
	if err != nil {
		failSearch(err)
	}
	if *index < 1 || *index > len(results) {
		fmt.Printf("❌ Occurrence %d not found, the pattern occurs %d time(s)\n", *index, len(results))
		os.Exit(1)
	}

	path, err := svc.RenderOccurrence(ctx, pieceID, results[*index-1].Pairs, outPath)
	if err != nil {
		fail("Failed to render occurrence", err)
	}
	fmt.Printf("\n✅ Rendered occurrence %d to %s\n", *index, path)
}

func failSearch(err error) {
	switch {
	case errors.Is(err, melodicdna.ErrValidation):
		fail("Invalid settings", err)
	case errors.Is(err, melodicdna.ErrPieceNotFound):
		fail("Piece not found", err)
	default:
		fail("Search failed", err)
	}
}

func printPiece(piece *models.Piece) {
	fmt.Printf("   ID:       %s\n", piece.ID)
	fmt.Printf("   Title:    %s\n", piece.Title)
	if piece.Composer != "" {
		fmt.Printf("   Composer: %s\n", piece.Composer)
	}
	if piece.Source != "" {
		fmt.Printf("   Source:   %s\n", piece.Source)
	}
	fmt.Printf("   Notes:    %s\n", humanize.Comma(int64(piece.NoteCount)))
	fmt.Printf("   Added:    %s\n", humanize.Time(piece.CreatedAt))
}

func printResults(results []models.SearchResult, withPiece bool) {
	if len(results) == 0 {
		fmt.Println("\n❌ No occurrences found")
		return
	}

	fmt.Printf("\n✅ Found %d occurrence(s)!\n\n", len(results))
	for i, r := range results {
		fmt.Printf("%d. ", i+1)
		if withPiece {
			fmt.Printf("\"%s\" (%s) ", r.Title, r.PieceID)
		}
		fmt.Printf("[%s] %d notes | shift %s | transposition %+d\n",
			r.Algorithm, r.Multiplicity(), r.Shift, r.Transposition)
		if r.Scale != "" {
			fmt.Printf("   Scale: %s\n", r.Scale)
		}
		if len(r.LinkScales) > 0 {
			fmt.Printf("   Link scales: %s\n", strings.Join(r.LinkScales, " "))
		}
		if r.Overlap != "" {
			fmt.Printf("   Overlap: %s\n", r.Overlap)
		}
		idx := make([]string, len(r.Pairs))
		for j, p := range r.Pairs {
			idx[j] = fmt.Sprintf("%d→%d", p.PatternIndex, p.SourceIndex)
		}
		fmt.Printf("   Pairs: %s\n\n", strings.Join(idx, " "))
	}
}

func printUsage() {
	fmt.Println("MelodicDNA - Geometric Melodic Search CLI")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --db <path>         Path to SQLite database (env: MELODIC_DB_PATH, default: melodicdna.sqlite3)")
	fmt.Println("  --temp <dir>        Directory for rendered excerpts (env: MELODIC_TEMP_DIR)")
	fmt.Println("  --rate <hz>         Sample rate of rendered excerpts (default: 22050)")
	fmt.Println("  --bpm <n>           Tempo of rendered excerpts (default: 120)")
	fmt.Println("  --max <n>           Maximum number of occurrences (default: unlimited)")
	fmt.Println("  --log-level <lvl>   debug, info, warn or error (env: LOG_LEVEL, default: warn)")
	fmt.Println("\nUsage:")
	fmt.Println("  melodicdna [global-options] add <notes_file> [--title <title>] [--composer <composer>]")
	fmt.Println("  melodicdna [global-options] list")
	fmt.Println("  melodicdna [global-options] show <piece_id> [--notes <n>]")
	fmt.Println("  melodicdna [global-options] delete <piece_id>")
	fmt.Println("  melodicdna [global-options] search <pattern_file> [--set key=value ...] [--piece <id> ...]")
	fmt.Println("  melodicdna [global-options] match <pattern_file> <source_file> [--set key=value ...]")
	fmt.Println("  melodicdna [global-options] render <piece_id> <pattern_file> <out.wav> [--occurrence <n>]")
	fmt.Println("\nSettings:")
	fmt.Println("  algorithm=P1|P2|P3|S1|S2|W1|W2   threshold=all|<n>|<fraction>   mismatches=<n>|<fraction>")
	fmt.Println("  scale=pure|any|warped|<ratio>         pattern_window=<n>   source_window=<n>")
	fmt.Println("  interval_func=semitones|semitones-mod12|generic")
	fmt.Println("\nExamples:")
	fmt.Println("  # Add a piece from a CSV note list")
	fmt.Println("  melodicdna add invention1.csv --title \"Invention 1\" --composer Bach")
	fmt.Println()
	fmt.Println("  # Find the pattern with up to one missing note")
	fmt.Println("  melodicdna search motif.csv --set algorithm=P2 --set mismatches=1")
	fmt.Println()
	fmt.Println("  # Find augmented statements of the pattern")
	fmt.Println("  melodicdna match motif.json fugue.json --set algorithm=S2 --set scale=2")
}
