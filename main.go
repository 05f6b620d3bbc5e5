// Typewise corrects selected text in the editable fields of an HTML page
// and writes the page back with the correction applied.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"typewise/config"
	"typewise/correction"
	"typewise/dom"
	"typewise/fetcher"
	"typewise/history"
	"typewise/llm"
	"typewise/render"
	"typewise/selection"
	"typewise/workflow"
)

type options struct {
	target     string
	selector   string
	rng        string
	mode       string
	language   string
	provider   string
	configPath string
	out        string
	yes        bool
	list       bool
	jsonOut    bool

	initConfig    bool
	login         string
	logout        bool
	me            bool
	resetConfig   bool
	history       int
	showHistory   bool
	exportHistory bool
	clearHistory  bool
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if errors.Is(err, errHelp) {
		printUsage()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if opts.initConfig {
		fmt.Print(config.DefaultTOML())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var errHelp = errors.New("help requested")

func parseArgs(args []string) (*options, error) {
	opts := &options{}

	value := func(i *int, name string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s needs a value", name)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		var err error
		switch arg {
		case "-h", "--help":
			return nil, errHelp
		case "-s", "--select":
			opts.selector, err = value(&i, arg)
		case "-r", "--range":
			opts.rng, err = value(&i, arg)
		case "-m", "--mode":
			opts.mode, err = value(&i, arg)
		case "-l", "--lang":
			opts.language, err = value(&i, arg)
		case "-p", "--provider":
			opts.provider, err = value(&i, arg)
		case "-c", "--config":
			opts.configPath, err = value(&i, arg)
		case "-o", "--out":
			opts.out, err = value(&i, arg)
		case "-y", "--yes":
			opts.yes = true
		case "--list":
			opts.list = true
		case "--json":
			opts.jsonOut = true
		case "--init-config":
			opts.initConfig = true
		case "--login":
			opts.login, err = value(&i, arg)
		case "--logout":
			opts.logout = true
		case "--me":
			opts.me = true
		case "--reset-config":
			opts.resetConfig = true
		case "--history":
			opts.showHistory = true
			opts.history = 20
			if i+1 < len(args) {
				if n, convErr := strconv.Atoi(args[i+1]); convErr == nil {
					opts.history = n
					i++
				}
			}
		case "--export-history":
			opts.exportHistory = true
		case "--clear-history":
			opts.clearHistory = true
		default:
			if strings.HasPrefix(arg, "-") && arg != "-" {
				return nil, fmt.Errorf("unknown option %s", arg)
			}
			if opts.target != "" {
				return nil, fmt.Errorf("unexpected argument %q", arg)
			}
			opts.target = arg
		}
		if err != nil {
			return nil, err
		}
	}

	if opts.mode != "" {
		if _, err := correction.ParseMode(opts.mode); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

func printUsage() {
	fmt.Println(`Typewise - correct text in HTML forms

Usage: typewise [options] <file.html|url>

Options:
  -s, --select SELECTOR   Field to edit (CSS selector; default: first editable field)
  -r, --range START:END   Characters to correct within the field (default: all)
  -m, --mode MODE         ortho, grammar, rewrite-light, rewrite-pro, clarity, tone
  -l, --lang LANG         Language sent to the corrector (default from config)
  -p, --provider NAME     http, llm or local (default from config)
  -c, --config PATH       Config file (default ~/.config/typewise/config.toml)
  -o, --out FILE          Write the edited page to FILE (default: stdout)
  -y, --yes               Apply the correction without asking
  --list                  List editable fields and exit
  --json                  Print the correction as JSON instead of the panel
  --init-config           Output default config
  --reset-config          Restore the default language, mode and backend URL
  --login EMAIL           Sign in to the backend (development login)
  --logout                Forget the backend session
  --me                    Show the signed-in profile
  --history [N]           Show the last N corrections
  --export-history        Print the history as JSON
  --clear-history         Delete the history
  -h, --help              Show this help

Examples:
  typewise --list form.html
  typewise -s '#message' -r 0:42 -m grammar form.html -o fixed.html
  typewise --init-config > ~/.config/typewise/config.toml`)
}

func run(ctx context.Context, opts *options) error {
	store := config.NewStore(opts.configPath)
	cfg, err := store.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	switch {
	case opts.login != "":
		return runLogin(ctx, store, cfg, opts.login)
	case opts.logout:
		if err := store.ClearAuth(); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	case opts.resetConfig:
		if err := store.ResetSettings(); err != nil {
			return err
		}
		fmt.Println("Settings reset.")
		return nil
	case opts.me:
		return runMe(ctx, cfg)
	case opts.showHistory, opts.exportHistory, opts.clearHistory:
		return runHistory(ctx, cfg, opts)
	}

	if opts.target == "" {
		printUsage()
		return errors.New("no page given")
	}

	f := fetcher.New(fetcher.Options{
		UserAgent:  cfg.Fetcher.UserAgent,
		Timeout:    cfg.Fetcher.Timeout(),
		ChromePath: cfg.Fetcher.ChromePath,
		UseBrowser: cfg.Fetcher.UseBrowser,
		Language:   cfg.General.Language,
	})
	page, err := f.Load(ctx, opts.target)
	if err != nil {
		return err
	}
	logger.Debug("loaded page", "url", page.FinalURL, "browser", page.UsedBrowser, "took", page.FetchTime)

	doc, err := dom.ParseString(page.HTML, dom.WithURL(page.FinalURL), dom.WithWidth(cfg.Layout.Width))
	if err != nil {
		return fmt.Errorf("parsing page: %w", err)
	}

	if opts.list {
		return listEditables(os.Stdout, doc)
	}

	field, err := pickField(doc, opts.selector)
	if err != nil {
		return err
	}
	if err := selectRange(doc, field, opts.rng); err != nil {
		return err
	}

	provider, err := buildProvider(cfg, opts.provider, logger)
	if err != nil {
		return err
	}

	sessOpts := []workflow.Option{workflow.WithLogger(logger)}
	if cfg.History.Enabled {
		h, err := history.Open(cfg.HistoryPath(), cfg.History.Limit)
		if err != nil {
			logger.Warn("history unavailable", "error", err)
		} else {
			defer h.Close()
			sessOpts = append(sessOpts, workflow.WithHistory(h))
		}
	}

	settings := &overrideStore{Store: store, language: opts.language}
	sess := workflow.New(doc, selection.New(doc, selection.WithLogger(logger)), provider, settings, sessOpts...)
	go func() {
		<-ctx.Done()
		sess.Cancel()
	}()

	if opts.mode != "" {
		mode, _ := correction.ParseMode(opts.mode)
		if err := sess.SetMode(mode); err != nil {
			logger.Warn("saving mode", "error", err)
		}
	}

	view, err := correct(ctx, func(ctx context.Context) (workflow.View, error) {
		return sess.Trigger(ctx)
	})
	if opts.jsonOut {
		if jerr := writeJSON(os.Stdout, view, err); jerr != nil {
			return jerr
		}
		if err != nil || !opts.yes {
			return err
		}
	} else {
		if err != nil && !view.Open {
			return errors.New(workflow.StatusMessage(err))
		}
		showPanel(view, opts.yes)
	}

	applied, err := decide(ctx, sess, view, err, opts)
	if err != nil {
		return err
	}
	if applied && !opts.yes {
		applied, err = review(doc, field)
		if err != nil {
			return err
		}
	}
	if !applied {
		return nil
	}
	return writePage(doc, opts.out)
}

// correct runs fn with a spinner on stderr when it is a terminal.
func correct(ctx context.Context, fn func(context.Context) (workflow.View, error)) (workflow.View, error) {
	if !render.IsTerminal(os.Stderr) {
		return fn(ctx)
	}
	sp := render.NewSpinner(render.SpinnerBraille)
	sp.Start(os.Stderr, "Correcting...")
	defer sp.Stop()
	return fn(ctx)
}

// decide applies, copies, changes mode or quits. It returns whether the
// page was modified.
func decide(ctx context.Context, sess *workflow.Session, view workflow.View, runErr error, opts *options) (bool, error) {
	if opts.yes {
		if runErr != nil {
			return false, errors.New(workflow.StatusMessage(runErr))
		}
		return apply(sess)
	}
	if !render.IsTerminal(os.Stdin) {
		return false, nil
	}

	term, err := render.NewTerminal(os.Stdin)
	if err != nil {
		return false, err
	}

	for {
		fmt.Fprint(os.Stderr, "[a]pply  [c]opy  [m]ode  [q]uit ")
		key, err := term.ReadKey()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return false, err
		}

		switch key {
		case 'a', 'A', '\r', '\n':
			if sess.CorrectedText() == "" {
				fmt.Fprintln(os.Stderr, "Nothing to apply.")
				continue
			}
			return apply(sess)
		case 'c', 'C':
			text := sess.CorrectedText()
			if text == "" {
				fmt.Fprintln(os.Stderr, "Nothing to copy.")
				continue
			}
			if err := copyToClipboard(text); err != nil {
				fmt.Println(text)
			} else {
				fmt.Fprintln(os.Stderr, "Copied.")
			}
			sess.Cancel()
			return false, nil
		case 'm', 'M':
			next := nextMode(view.SelectedMode)
			view, runErr = correct(ctx, func(ctx context.Context) (workflow.View, error) {
				return sess.Run(ctx, next)
			})
			if errors.Is(runErr, context.Canceled) {
				return false, runErr
			}
			showPanel(view, false)
		case 'q', 'Q', 3, 27:
			sess.Cancel()
			return false, nil
		}
	}
}

// review offers undo and redo of an edit applied to a text control before
// the page is written. It returns false when the edit ended up undone.
func review(doc *dom.Document, field *html.Node) (bool, error) {
	if doc.Control(field) == nil || !render.IsTerminal(os.Stdin) {
		return true, nil
	}
	term, err := render.NewTerminal(os.Stdin)
	if err != nil {
		return false, err
	}

	applied := true
	for {
		fmt.Fprint(os.Stderr, "[w]rite  [u]ndo  [r]edo  [q]uit ")
		key, err := term.ReadKey()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return false, err
		}
		var done bool
		var msg string
		applied, done, msg = reviewKey(doc, field, key, applied)
		if msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		if done {
			return applied, nil
		}
	}
}

// reviewKey handles one key of the review prompt.
func reviewKey(doc *dom.Document, field *html.Node, key byte, applied bool) (bool, bool, string) {
	switch key {
	case 'w', 'W', '\r', '\n':
		return applied, true, ""
	case 'u', 'U':
		if !doc.Undo(field) {
			return applied, false, "Nothing to undo."
		}
		return false, false, "Undone: " + doc.Control(field).Text()
	case 'r', 'R':
		if !doc.Redo(field) {
			return applied, false, "Nothing to redo."
		}
		return true, false, "Redone: " + doc.Control(field).Text()
	case 'q', 'Q', 3, 27:
		return false, true, ""
	}
	return applied, false, ""
}

func apply(sess *workflow.Session) (bool, error) {
	if err := sess.Replace(sess.CorrectedText()); err != nil {
		return false, errors.New(workflow.StatusMessage(err))
	}
	return true, nil
}

func nextMode(m correction.Mode) correction.Mode {
	for i, mode := range correction.Modes {
		if mode == m {
			return correction.Modes[(i+1)%len(correction.Modes)]
		}
	}
	return correction.ModeOrtho
}

// overrideStore applies command-line overrides on load and only persists
// the selected mode.
type overrideStore struct {
	*config.Store
	language string
}

func (s *overrideStore) Load() (*config.Config, error) {
	cfg, err := s.Store.Load()
	if err != nil {
		return nil, err
	}
	if s.language != "" {
		cfg.General.Language = s.language
	}
	return cfg, nil
}

func (s *overrideStore) Save(cfg *config.Config) error {
	return s.Store.Update(func(c *config.Config) {
		c.General.Mode = cfg.General.Mode
	})
}

func buildProvider(cfg *config.Config, override string, logger *slog.Logger) (correction.Provider, error) {
	name := cfg.Backend.Provider
	if override != "" {
		name = override
	}

	switch name {
	case "http":
		return correction.NewHTTPClient(cfg.Backend.BaseURL,
			correction.WithToken(cfg.Auth.TokenType, cfg.Auth.AccessToken),
			correction.WithTimeout(cfg.Backend.Timeout()),
		), nil
	case "llm":
		client := llm.NewClient(
			llm.NewOpenAI("").WithModel(cfg.LLM.Model),
			llm.NewClaudeAPI("").WithModel(cfg.LLM.Model),
			llm.NewClaudeCode(),
		)
		if cfg.LLM.Preferred != "" && !client.SetPreferred(cfg.LLM.Preferred) {
			logger.Warn("preferred model provider unavailable", "provider", cfg.LLM.Preferred)
		}
		for _, p := range client.ListProviders() {
			logger.Debug("model provider", "name", p.Name, "available", p.Available, "active", p.Active)
		}
		return correction.NewLLMProvider(client, correction.WithLogger(logger)), nil
	case "local":
		return correction.NewFallback(), nil
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}

func pickField(doc *dom.Document, selector string) (*html.Node, error) {
	if selector != "" {
		n, err := doc.Query(selector)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, fmt.Errorf("no element matches %q", selector)
		}
		return n, nil
	}
	if fields := doc.Editables(); len(fields) > 0 {
		return fields[0].Node, nil
	}
	return nil, errors.New("page has no editable field")
}

// parseRange parses "START:END" where either side may be empty.
func parseRange(s string, length int) (start, end int, err error) {
	if s == "" {
		return 0, length, nil
	}
	left, right, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("range %q: expected START:END", s)
	}
	start, end = 0, length
	if left != "" {
		if start, err = strconv.Atoi(left); err != nil {
			return 0, 0, fmt.Errorf("range %q: %w", s, err)
		}
	}
	if right != "" {
		if end, err = strconv.Atoi(right); err != nil {
			return 0, 0, fmt.Errorf("range %q: %w", s, err)
		}
	}
	if start < 0 || end > length || start > end {
		return 0, 0, fmt.Errorf("range %q outside field of %d characters", s, length)
	}
	return start, end, nil
}

// selectRange focuses a text control and sets its selection, or selects
// text inside a content-editable region.
func selectRange(doc *dom.Document, field *html.Node, rng string) error {
	if doc.IsTextControl(field) {
		ed := doc.Control(field)
		start, end, err := parseRange(rng, ed.Len())
		if err != nil {
			return err
		}
		doc.Focus(field)
		ed.SetSelectionRange(start, end)
		return nil
	}

	if dom.EditableElement(field) == nil {
		return fmt.Errorf("%s is not editable", field.Data)
	}
	start, end, err := parseRange(rng, len([]rune(dom.TextContent(field))))
	if err != nil {
		return err
	}
	doc.Blur()
	return doc.SelectText(field, start, end)
}

func listEditables(w io.Writer, doc *dom.Document) error {
	fields := doc.Editables()
	if len(fields) == 0 {
		fmt.Fprintln(w, "No editable fields.")
		return nil
	}
	tbl := render.NewTable("Selector", "Kind", "Text")
	tbl.MaxWidth = termWidth(os.Stdout)
	for _, e := range fields {
		tbl.AddRow(e.Selector, e.Kind, render.Truncate(e.Preview, 40))
	}
	fmt.Fprintln(w, tbl.RenderToString())
	return nil
}

// termWidth returns the width of the terminal on f, or 0 if f is not one.
func termWidth(f *os.File) int {
	w, _, err := render.TerminalSize(f)
	if err != nil {
		return 0
	}
	return w
}

func showPanel(view workflow.View, quiet bool) {
	width := termWidth(os.Stderr)
	if width <= 0 {
		width = 80
	}

	labels := make([]string, len(view.ModeOptions))
	selected := 0
	for i, m := range view.ModeOptions {
		labels[i] = m.Label
		if m.Mode == view.SelectedMode {
			selected = i
		}
	}

	panelWidth := min(width, 72)
	indent := max(0, min(view.Anchor.Left, width-panelWidth))

	footer := ""
	if !quiet && render.IsTerminal(os.Stdin) {
		footer = "a apply · c copy · m next mode · q quit"
	}
	p := render.Panel{
		Title:      fmt.Sprintf("TypeWise · line %d", view.Anchor.Top+1),
		Modes:      labels,
		Selected:   selected,
		Spans:      view.Spans,
		Status:     view.Status,
		Confidence: view.Confidence,
		Quota:      view.Quota,
		Footer:     footer,
	}
	if !render.IsTerminal(os.Stderr) {
		p.Box = render.ASCIIBox
	}

	canvas := p.Draw(panelWidth)
	out := canvas.Render()
	if !render.IsTerminal(os.Stderr) {
		out = canvas.PlainText()
	}
	pad := strings.Repeat(" ", indent)
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		fmt.Fprintln(os.Stderr, pad+line)
	}
}

type jsonView struct {
	Mode          correction.Mode `json:"mode"`
	Status        string          `json:"status"`
	Confidence    string          `json:"confidence"`
	Quota         string          `json:"quota"`
	CorrectedText string          `json:"corrected_text"`
	Spans         any             `json:"spans"`
	Error         string          `json:"error,omitempty"`
}

func writeJSON(w io.Writer, view workflow.View, err error) error {
	out := jsonView{
		Mode:          view.SelectedMode,
		Status:        view.Status,
		Confidence:    view.Confidence,
		Quota:         view.Quota,
		CorrectedText: view.CorrectedText,
		Spans:         view.Spans,
	}
	if view.Spans == nil {
		out.Spans = []any{}
	}
	if err != nil {
		out.Error = workflow.StatusMessage(err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writePage(doc *dom.Document, path string) error {
	if path == "" || path == "-" {
		return doc.Render(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := doc.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runLogin(ctx context.Context, store *config.Store, cfg *config.Config, email string) error {
	client := correction.NewHTTPClient(cfg.Backend.BaseURL, correction.WithTimeout(cfg.Backend.Timeout()))
	s, err := client.DevLogin(ctx, email, "", "")
	if err != nil {
		return errors.New(workflow.StatusMessage(err))
	}
	err = store.Update(func(c *config.Config) {
		c.Auth.AccessToken = s.AccessToken
		c.Auth.RefreshToken = s.RefreshToken
		c.Auth.TokenType = s.TokenType
		c.Auth.ExpiresAt = s.ExpiresAt
		c.Auth.UserEmail = email
	})
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s plan).\n", email, s.Plan)
	return nil
}

func runMe(ctx context.Context, cfg *config.Config) error {
	if cfg.Auth.AccessToken == "" {
		return errors.New("not signed in; use --login EMAIL")
	}
	if cfg.Auth.Expired(time.Now()) {
		return errors.New("session expired; use --login EMAIL")
	}
	client := correction.NewHTTPClient(cfg.Backend.BaseURL,
		correction.WithToken(cfg.Auth.TokenType, cfg.Auth.AccessToken),
		correction.WithTimeout(cfg.Backend.Timeout()),
	)
	p, err := client.Me(ctx)
	if err != nil {
		return errors.New(workflow.StatusMessage(err))
	}

	quota := "-"
	if p.QuotaRemaining != nil {
		quota = strconv.Itoa(*p.QuotaRemaining)
	}
	tbl := render.NewTable("Field", "Value")
	tbl.AddRow("Email", p.Email)
	tbl.AddRow("Plan", p.Plan)
	tbl.AddRow("Organization", p.OrgID)
	tbl.AddRow("Workspace", p.WorkspaceID)
	tbl.AddRow("Quota remaining", quota)
	fmt.Println(tbl.RenderToString())
	return nil
}

func runHistory(ctx context.Context, cfg *config.Config, opts *options) error {
	h, err := history.Open(cfg.HistoryPath(), cfg.History.Limit)
	if err != nil {
		return err
	}
	defer h.Close()

	switch {
	case opts.clearHistory:
		if err := h.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("History cleared.")
		return nil
	case opts.exportHistory:
		return h.Export(ctx, os.Stdout)
	}

	entries, err := h.List(ctx, opts.history)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No corrections yet.")
		return nil
	}
	tbl := render.NewTable("Date", "Mode", "Conf.", "Before", "After")
	tbl.MaxWidth = termWidth(os.Stdout)
	tbl.SetAlignment(2, render.AlignRight)
	for _, e := range entries {
		mode, err := correction.ParseMode(e.Mode)
		label := e.Mode
		if err == nil {
			label = mode.Label()
		}
		tbl.AddRow(
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			label,
			fmt.Sprintf("%d%%", int(e.Confidence*100+0.5)),
			render.Truncate(oneLine(e.Before), 30),
			render.Truncate(oneLine(e.After), 30),
		)
	}
	fmt.Println(tbl.RenderToString())
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func copyToClipboard(text string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "linux":
		if _, err := exec.LookPath("xclip"); err == nil {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		} else {
			cmd = exec.Command("xsel", "--clipboard", "--input")
		}
	default:
		return fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
