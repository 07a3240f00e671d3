package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/visaposter/pkg/assets"
	"github.com/matzehuels/visaposter/pkg/errors"
	"github.com/matzehuels/visaposter/pkg/pipeline"
	"github.com/matzehuels/visaposter/pkg/poster"
	"github.com/matzehuels/visaposter/pkg/surface"
)

// Form styles
var (
	formLabelStyle   = lipgloss.NewStyle().Foreground(colorGray).Width(9)
	formFocusStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	formValueStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	formDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	formErrorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	formButtonStyle  = lipgloss.NewStyle().Padding(0, 2).Foreground(colorWhite).Background(colorDim)
	formActiveButton = lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(lipgloss.Color("0")).Background(colorCyan)
)

// =============================================================================
// Command
// =============================================================================

// composeCommand creates the interactive compose command.
func (c *CLI) composeCommand() *cobra.Command {
	var (
		opts    renderOpts
		format  string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a poster interactively",
		Long: `Compose a poster interactively.

Every edit re-renders the poster layout immediately and starts loading the
assets it needs, so exporting waits only for what is still in flight. The
photo field accepts a file path, an http(s) URL or a data URI and is applied
when you press enter or leave the field.

Keys: tab/shift+tab move between fields, left/right pick the country,
ctrl+s exports, esc quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.flags.AssetTimeoutSet = cmd.Flags().Changed("asset-timeout")
			if format != "" {
				opts.flags.Formats = []string{format}
			}
			return c.runCompose(cmd.Context(), &opts, logFile)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "initial guest name")
	cmd.Flags().StringVarP(&opts.country, "country", "c", "", "initial destination country")
	cmd.Flags().StringVarP(&opts.photo, "photo", "p", "", "initial photo file, http(s) URL or data URI")
	cmd.Flags().StringVarP(&format, "format", "f", "", "export format: png (default), webp")
	cmd.Flags().StringVarP(&opts.flags.OutputDir, "output", "o", "", "output directory")
	cmd.Flags().Float64Var(&opts.flags.Scale, "scale", 0, "export upscaling factor")
	cmd.Flags().IntVar(&opts.flags.Supersample, "supersample", 0, "render at N times the scale and downsample (2-4)")
	cmd.Flags().StringVar(&opts.flags.AssetsDir, "assets-dir", "", "directory holding images/visa.png and flags/*.png")
	cmd.Flags().StringVar(&opts.flags.AssetsURL, "assets-url", "", "base URL serving the bundled assets")
	cmd.Flags().DurationVar(&opts.flags.AssetTimeout, "asset-timeout", 0, "longest wait for assets before failing (0 waits forever)")
	cmd.Flags().BoolVar(&opts.flags.NoCache, "no-cache", false, "disable the remote asset cache")
	cmd.Flags().BoolVar(&opts.noShadows, "no-shadows", false, "draw flags and photo without drop shadows")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the form is open")

	_ = cmd.RegisterFlagCompletionFunc("country", completeCountries)

	return cmd
}

// runCompose opens the form and prints the exported files after it closes.
func (c *CLI) runCompose(ctx context.Context, opts *renderOpts, logFile string) error {
	if len(opts.flags.Formats) == 1 && pipeline.Encoder(opts.flags.Formats[0]) == nil {
		return errors.New(errors.ErrCodeInvalidFormat, "compose exports images only (png or webp), got %q", opts.flags.Formats[0])
	}
	cfg, err := c.loadConfig(opts.flags)
	if err != nil {
		return err
	}

	// The form owns the terminal, so logs go to a file or nowhere.
	logger := newLogger(io.Discard, c.Logger.GetLevel())
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = newLogger(f, c.Logger.GetLevel())
	}

	e, err := newEnv(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	popts := exportOptions(cfg)
	popts.NoShadows = opts.noShadows
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	m := newComposeModel(ctx, e.runner, popts, logger)
	if err := m.setInitial(opts.name, opts.country, opts.photo); err != nil {
		return err
	}

	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(composeModel); ok {
		if len(fm.exported) == 0 {
			printInfo("No poster exported")
			return nil
		}
		printSuccess("Exported %d poster(s)", len(fm.exported))
		for _, path := range fm.exported {
			printFile(path)
		}
	}
	return nil
}

// =============================================================================
// ComposeModel - Interactive poster form
// =============================================================================

type composeField int

const (
	fieldName composeField = iota
	fieldCountry
	fieldPhoto
	fieldExport
	fieldCount
)

// countryChoices is the dropdown order, starting with no selection.
var countryChoices = append([]poster.CountryCode{poster.CountryNone}, poster.Countries()...)

// exportDoneMsg reports the end of an export started from the form.
type exportDoneMsg struct {
	res *surface.Result
	err error
}

type readinessTickMsg time.Time

// composeModel is the bubbletea model behind "visaposter compose". It keeps
// one surface that is re-rendered on every field change and one exporter
// shared by all exports, so overlapping exports are rejected.
type composeModel struct {
	ctx      context.Context
	surface  *surface.Surface
	exporter *surface.Exporter
	format   string
	logger   *log.Logger

	focus      composeField
	name       []rune
	country    int
	photo      []rune // as typed
	photoInput string // photo text at the last apply
	photoRef   string // last applied photo reference

	fields   poster.Fields
	layers   []poster.Layer
	photoErr error
	fieldErr error

	ready, failed, total int

	exporting bool
	status    string
	statusErr bool
	exported  []string
}

// newComposeModel creates the form. opts must already be validated.
func newComposeModel(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, logger *log.Logger) composeModel {
	format := pipeline.FormatPNG
	for _, f := range opts.Formats {
		if pipeline.Encoder(f) != nil {
			format = f
			break
		}
	}
	return composeModel{
		ctx:     ctx,
		surface: surface.New(runner.Loader),
		exporter: surface.NewExporter(runner.Downloader,
			surface.WithCompositor(opts.Compositor()),
			surface.WithEncoder(pipeline.Encoder(format)),
			surface.WithAssetTimeout(opts.Timeout()),
			surface.WithLogger(logger),
		),
		format: format,
		logger: logger,
	}
}

// setInitial fills the fields from flags and renders the first frame. A bad
// photo is reported in the form; a bad country is an error.
func (m *composeModel) setInitial(name, country, photo string) error {
	cc, err := poster.ParseCountry(country)
	if err != nil {
		return err
	}
	for i, choice := range countryChoices {
		if choice == cc {
			m.country = i
		}
	}
	m.name = []rune(name)
	m.photo = []rune(photo)
	m.applyPhoto()
	m.refresh()
	return nil
}

// applyPhoto resolves the typed photo into a reference. A local file is read
// once here rather than on every re-render. On error the previous photo
// stays applied and false is returned.
func (m *composeModel) applyPhoto() bool {
	m.photoInput = string(m.photo)
	ref, err := assets.PhotoRefFor(m.photoInput)
	m.photoErr = err
	if err != nil {
		return false
	}
	m.photoRef = ref
	return true
}

// refresh resolves the current inputs and renders them onto the surface.
// Invalid input keeps the previous frame.
func (m *composeModel) refresh() {
	f := poster.Fields{
		Name:    string(m.name),
		Country: countryChoices[m.country],
		Photo:   poster.PhotoRef(m.photoRef),
	}
	if m.fieldErr = f.Validate(); m.fieldErr != nil {
		return
	}
	m.fields = f
	m.layers = m.surface.Render(poster.Resolve(f)).Layers
	m.ready, m.failed, m.total = m.surface.Readiness()
	m.logger.Debug("re-rendered", "layers", len(m.layers), "assets", m.total)
}

// inputErr returns the first problem with the typed fields.
func (m composeModel) inputErr() error {
	if m.photoErr != nil {
		return m.photoErr
	}
	return m.fieldErr
}

func readinessTick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return readinessTickMsg(t) })
}

func (m composeModel) Init() tea.Cmd {
	return readinessTick()
}

func (m composeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case readinessTickMsg:
		m.ready, m.failed, m.total = m.surface.Readiness()
		return m, readinessTick()
	case exportDoneMsg:
		return m.exportDone(msg), nil
	}
	return m, nil
}

func (m composeModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "down":
		m.moveFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.moveFocus(-1)
		return m, nil
	case "ctrl+s":
		return m.startExport()
	case "enter":
		switch m.focus {
		case fieldExport:
			return m.startExport()
		case fieldPhoto:
			if m.applyPhoto() {
				m.refresh()
			}
		default:
			m.moveFocus(1)
		}
		return m, nil
	}

	switch m.focus {
	case fieldName:
		if edit(&m.name, msg) {
			m.refresh()
		}
	case fieldPhoto:
		edit(&m.photo, msg)
	case fieldCountry:
		switch msg.String() {
		case "left", "h":
			m.country = (m.country + len(countryChoices) - 1) % len(countryChoices)
			m.refresh()
		case "right", "l", " ":
			m.country = (m.country + 1) % len(countryChoices)
			m.refresh()
		}
	}
	return m, nil
}

// edit applies a text editing key to buf and reports whether it changed.
func edit(buf *[]rune, msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes:
		*buf = append(*buf, msg.Runes...)
	case tea.KeySpace:
		*buf = append(*buf, ' ')
	case tea.KeyBackspace:
		if len(*buf) == 0 {
			return false
		}
		*buf = (*buf)[:len(*buf)-1]
	case tea.KeyCtrlU:
		if len(*buf) == 0 {
			return false
		}
		*buf = nil
	default:
		return false
	}
	return true
}

func (m *composeModel) moveFocus(delta int) {
	if m.focus == fieldPhoto && string(m.photo) != m.photoInput && m.applyPhoto() {
		m.refresh()
	}
	m.focus = (m.focus + composeField(delta) + fieldCount) % fieldCount
}

// startExport snapshots the current frame in the background. The exporter
// rejects a second export while one is running.
func (m composeModel) startExport() (tea.Model, tea.Cmd) {
	if m.inputErr() != nil {
		m.status, m.statusErr = "Fix the field error before exporting", true
		return m, nil
	}
	ctx, s, exp := m.ctx, m.surface, m.exporter
	frame := s.Frame()
	filename := m.fields.DownloadName(m.format)
	m.exporting = true
	m.status, m.statusErr = "Exporting "+filename+"...", false
	return m, func() tea.Msg {
		res, err := exp.ExportFrame(ctx, s, frame, filename)
		return exportDoneMsg{res: res, err: err}
	}
}

func (m composeModel) exportDone(msg exportDoneMsg) composeModel {
	if errors.Is(msg.err, errors.ErrCodeExportBusy) {
		m.status, m.statusErr = errors.UserMessage(msg.err), true
		return m
	}
	m.exporting = false
	if msg.err != nil {
		m.logger.Debug("export failed", "err", msg.err)
		m.status, m.statusErr = "Export failed: "+errors.UserMessage(msg.err), true
		return m
	}
	m.exported = append(m.exported, msg.res.Location)
	m.status = fmt.Sprintf("Saved %s (%dx%d)", msg.res.Location, msg.res.Width, msg.res.Height)
	m.statusErr = false
	return m
}

// =============================================================================
// View
// =============================================================================

func (m composeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Visa Poster"))
	b.WriteString("\n")
	b.WriteString(formDimStyle.Render("tab/↑↓ move  ←/→ country  ctrl+s export  esc quit"))
	b.WriteString("\n\n")

	b.WriteString(m.fieldLine(fieldName, "Name", m.textValue(m.name, fieldName, "(optional)")))
	b.WriteString(m.fieldLine(fieldCountry, "Country", m.countryValue()))
	b.WriteString(m.fieldLine(fieldPhoto, "Photo", m.textValue(m.photo, fieldPhoto, "path, URL or data URI")))
	b.WriteString("\n")

	button := formButtonStyle
	if m.focus == fieldExport {
		button = formActiveButton
	}
	b.WriteString("  " + button.Render("Export "+strings.ToUpper(m.format)))
	b.WriteString("  " + formDimStyle.Render(m.fields.DownloadName(m.format)))
	b.WriteString("\n\n")

	if err := m.inputErr(); err != nil {
		b.WriteString(formErrorStyle.Render(iconError + " " + errors.UserMessage(err)))
		b.WriteString("\n\n")
	}

	b.WriteString(layerTable(m.layers, -1))
	b.WriteString("\n")
	b.WriteString(m.readinessLine())
	b.WriteString("\n")

	if m.status != "" {
		icon, style := styleIconSuccess.Render(iconSuccess), formValueStyle
		switch {
		case m.statusErr:
			icon, style = styleIconError.Render(iconError), formErrorStyle
		case m.exporting:
			icon = styleIconSpinner.Render(iconInfo)
		}
		b.WriteString(icon + " " + style.Render(m.status))
		b.WriteString("\n")
	}
	return b.String()
}

func (m composeModel) fieldLine(f composeField, label, value string) string {
	cursor := "  "
	labelStyle := formLabelStyle
	if m.focus == f {
		cursor = formFocusStyle.Render("▸ ")
		labelStyle = labelStyle.Foreground(colorCyan)
	}
	return cursor + labelStyle.Render(label) + " " + value + "\n"
}

func (m composeModel) textValue(buf []rune, f composeField, placeholder string) string {
	if len(buf) == 0 && m.focus != f {
		return formDimStyle.Render(placeholder)
	}
	s := truncate(string(buf), 48)
	if m.focus == f {
		return formFocusStyle.Render(s + "▏")
	}
	return formValueStyle.Render(s)
}

func (m composeModel) countryValue() string {
	name := countryChoices[m.country].String()
	if m.focus == fieldCountry {
		return formFocusStyle.Render("‹ " + name + " ›")
	}
	if countryChoices[m.country] == poster.CountryNone {
		return formDimStyle.Render("None")
	}
	return formValueStyle.Render(name)
}

func (m composeModel) readinessLine() string {
	line := fmt.Sprintf("assets %d/%d ready", m.ready, m.total)
	if m.failed > 0 {
		return formErrorStyle.Render(fmt.Sprintf("%s · %d failed", line, m.failed))
	}
	return formDimStyle.Render(line)
}
