package tui

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"kalasetu/config"
	"kalasetu/input"
	"kalasetu/media"
	"kalasetu/pipeline"
	"kalasetu/render"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

// ExportFileName is the HTML export written next to downloaded images
const ExportFileName = "kalasetu-result.html"

const placeholderText = "Your generated content will appear here."

// Previewer plays back captured audio
type Previewer interface {
	Play(ctx context.Context, audio media.AudioPayload) error
}

// Services are the collaborators the studio drives
type Services struct {
	Transcriber pipeline.Transcriber
	Generator   pipeline.Generator
	Fetcher     render.Fetcher
	Clipboard   render.Clipboard
	Backend     media.Backend
	Player      Previewer
}

// focus is which widget receives key presses
type focus int

const (
	focusCommands focus = iota
	focusStory
	focusImagePath
	focusPicker
)

// StudioModel is the Bubble Tea model for the product studio
type StudioModel struct {
	cfg   config.Config
	focus focus

	// UI Components
	story     textarea.Model
	imagePath textinput.Model
	picker    filepicker.Model
	spinner   spinner.Model
	feed      *Feed

	// Core
	state    *input.State
	recorder *media.Recorder
	orch     *pipeline.Orchestrator
	ui       *UIState
	actions  *render.Actions
	toaster  *render.Toaster
	player   Previewer
	events   chan pipeline.Event

	// Run tracking
	pending     bool
	runMode     input.Mode
	runStart    time.Time
	phaseAt     time.Time
	failedPhase pipeline.Phase

	// Recording state
	starting   bool
	recording  bool
	finalizing bool
	playing    bool
	capture    *media.Finalization

	cursor int
	notice string

	width    int
	height   int
	quitting bool

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

// pipelineEventMsg carries a phase change from the orchestrator
type pipelineEventMsg pipeline.Event

// submitDoneMsg is sent when Submit returns
type submitDoneMsg struct {
	err error
}

// imageLoadedMsg is sent when a product photo is decoded
type imageLoadedMsg struct {
	image *input.ImagePayload
	err   error
}

// recordStartedMsg is sent once the microphone is open or refused
type recordStartedMsg struct {
	fin *media.Finalization
	err error
}

// recordingFinalizedMsg is sent when the encoder has flushed everything,
// after a stop or because it exited on its own
type recordingFinalizedMsg struct {
	fin   *media.Finalization
	audio media.AudioPayload
	err   error
}

// recordTickMsg refreshes the elapsed recording time
type recordTickMsg time.Time

// actionDoneMsg is sent when a copy, download or export finishes
type actionDoneMsg struct {
	ack string
	err error
}

// toastExpiredMsg hides the toast with the given sequence number
type toastExpiredMsg struct {
	seq int
}

// playbackDoneMsg is sent when the preview player exits
type playbackDoneMsg struct {
	err error
}

// NewStudioModel creates a studio bound to ctx. Cancelling ctx stops any
// recording and in-flight request
func NewStudioModel(ctx context.Context, cfg config.Config, svc Services) StudioModel {
	ctx, cancel := context.WithCancel(ctx)

	ta := textarea.New()
	ta.Placeholder = "Tell the story of your product: who made it, how, and why it matters..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetWidth(70)
	ta.SetHeight(5)

	ti := textinput.New()
	ti.Placeholder = "./photos/mug.jpg"
	ti.CharLimit = 512
	ti.Width = 60

	fp := filepicker.New()
	fp.AllowedTypes = input.ImageExtensions()
	fp.ShowHidden = false
	fp.ShowSize = true
	fp.Height = 10

	s := spinner.New()
	s.Spinner = LoadingSpinner
	s.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	events := make(chan pipeline.Event, 16)
	orch := pipeline.NewOrchestrator(svc.Transcriber, svc.Generator,
		pipeline.WithTimeouts(cfg.TranscribeTimeout, cfg.GenerateTimeout),
		pipeline.WithReporter(pipeline.ReporterFunc(func(e pipeline.Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		})),
	)

	return StudioModel{
		cfg:       cfg,
		story:     ta,
		imagePath: ti,
		picker:    fp,
		spinner:   s,
		feed:      NewFeed(70, 5),
		state:     input.NewState(cfg.Language),
		recorder:  media.NewRecorder(svc.Backend),
		orch:      orch,
		ui:        NewUIState(),
		actions: &render.Actions{
			Clipboard: svc.Clipboard,
			Fetcher:   svc.Fetcher,
			Dir:       cfg.DownloadDir,
		},
		toaster: &render.Toaster{Duration: cfg.ToastDuration},
		player:  svc.Player,
		events:  events,
		width:   80,
		height:  24,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// Init initializes the model
func (m StudioModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textarea.Blink,
		waitForEvent(m.ctx, m.events),
	)
}

func waitForEvent(ctx context.Context, events <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-events:
			return pipelineEventMsg(e)
		case <-ctx.Done():
			return nil
		}
	}
}

// Update handles messages
func (m StudioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inner := max(m.width-6, 20)
		m.story.SetWidth(min(inner, 100))
		m.imagePath.Width = min(inner, 100)
		m.feed.SetSize(inner, 5)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}

		switch m.focus {
		case focusStory:
			return m.updateStory(msg)
		case focusImagePath:
			return m.updateImagePath(msg)
		case focusPicker:
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pipelineEventMsg:
		m.applyEvent(pipeline.Event(msg))
		return m, waitForEvent(m.ctx, m.events)

	case submitDoneMsg:
		m.submitDone(msg.err)
		return m, nil

	case imageLoadedMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			m.feed.AddError("Image rejected", msg.err.Error())
			return m, nil
		}
		m.state.SetImage(msg.image)
		m.notice = ""
		m.feed.AddStatus("Image selected", msg.image.Summary())
		return m, nil

	case recordStartedMsg:
		return m.recordStarted(msg)

	case recordTickMsg:
		if m.recording {
			return m, recordTick()
		}
		return m, nil

	case recordingFinalizedMsg:
		if msg.fin != m.capture {
			return m, nil
		}
		ended := m.recording
		m.recording = false
		m.finalizing = false
		if msg.err != nil {
			m.notice = pipeline.UserMessage(msg.err)
			m.feed.AddError("Recording failed", msg.err.Error())
			return m, nil
		}
		if ended {
			m.notice = "Recording ended on its own. The captured audio was kept."
			m.feed.AddRecording("Recording ended", "the recorder stopped on its own")
		}
		m.state.SetAudio(msg.audio)
		m.feed.AddRecording("Recording ready", msg.audio.Summary())
		return m, nil

	case playbackDoneMsg:
		m.playing = false
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			m.feed.AddError("Action failed", msg.err.Error())
			return m, nil
		}
		toast := m.toaster.Show(msg.ack, m.now())
		return m, tea.Tick(toast.Expires.Sub(m.now()), func(time.Time) tea.Msg {
			return toastExpiredMsg{seq: toast.Seq}
		})

	case toastExpiredMsg:
		m.toaster.Expire(msg.seq)
		return m, nil
	}

	// Internal widget messages (directory reads, cursor blink)
	var cmd tea.Cmd
	switch m.focus {
	case focusPicker:
		m.picker, cmd = m.picker.Update(msg)
	case focusStory:
		m.story, cmd = m.story.Update(msg)
	case focusImagePath:
		m.imagePath, cmd = m.imagePath.Update(msg)
	}
	return m, cmd
}

// handleKey processes keys when no input widget has focus
func (m StudioModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()

	case "tab":
		m.state.SetMode(m.state.Mode().Toggle())
		m.notice = ""
		return m, nil

	case "e":
		m.state.SetMode(input.ModeText)
		m.focus = focusStory
		m.notice = ""
		return m, m.story.Focus()

	case "i":
		m.focus = focusImagePath
		m.imagePath.SetValue("")
		return m, m.imagePath.Focus()

	case "o":
		m.focus = focusPicker
		return m, m.picker.Init()

	case "x":
		if m.state.Image() != nil {
			m.state.ClearImage()
			m.imagePath.SetValue("")
			m.feed.AddStatus("Image removed")
		}
		return m, nil

	case "r":
		return m.toggleRecording()

	case "p":
		return m.playPreview()

	case "l":
		m.cycleLanguage()
		return m, nil

	case "g", "enter":
		return m.submit()

	case "down", "j":
		if m.cursor < len(render.Items(m.ui.Sections()))-1 {
			m.cursor++
		}
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "c":
		return m.copySelected()

	case "d":
		return m.downloadSelected()

	case "a":
		return m.downloadAll()

	case "w":
		return m.export()
	}

	return m, nil
}

func (m StudioModel) updateStory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.story.Blur()
		m.focus = focusCommands
		return m, nil
	}

	var cmd tea.Cmd
	m.story, cmd = m.story.Update(msg)
	m.state.SetStory(m.story.Value())
	return m, cmd
}

func (m StudioModel) updateImagePath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.imagePath.Blur()
		m.focus = focusCommands
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.imagePath.Value())
		m.imagePath.Blur()
		m.focus = focusCommands
		if path == "" {
			return m, nil
		}
		return m, m.loadImage(path)
	}

	var cmd tea.Cmd
	m.imagePath, cmd = m.imagePath.Update(msg)
	return m, cmd
}

func (m StudioModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.focus = focusCommands
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.focus = focusCommands
		return m, tea.Batch(cmd, m.loadImage(path))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.notice = filepath.Base(path) + " is not a supported image"
	}
	return m, cmd
}

func (m StudioModel) loadImage(path string) tea.Cmd {
	maxDim := m.cfg.MaxImageDimension
	return func() tea.Msg {
		img, err := input.LoadImage(path, maxDim)
		return imageLoadedMsg{image: img, err: err}
	}
}

func (m StudioModel) toggleRecording() (tea.Model, tea.Cmd) {
	if m.starting || m.finalizing {
		return m, nil
	}

	if m.recording {
		m.recording = false
		// The capture waiter started with the session delivers the payload
		if fin := m.recorder.Stop(); fin == nil {
			return m, nil
		}
		m.finalizing = true
		m.feed.AddRecording("Recording stopped", "finalizing")
		return m, nil
	}

	m.starting = true
	m.notice = ""
	rec, ctx := m.recorder, m.ctx
	return m, func() tea.Msg {
		if err := rec.Start(ctx); err != nil {
			return recordStartedMsg{err: err}
		}
		return recordStartedMsg{fin: rec.Pending()}
	}
}

// waitForCapture resolves the current session, whether it ends through a
// stop or because the encoder exits
func (m StudioModel) waitForCapture() tea.Cmd {
	fin, ctx := m.capture, m.ctx
	if fin == nil {
		return nil
	}
	return func() tea.Msg {
		audio, err := fin.Wait(ctx)
		return recordingFinalizedMsg{fin: fin, audio: audio, err: err}
	}
}

func (m StudioModel) recordStarted(msg recordStartedMsg) (tea.Model, tea.Cmd) {
	m.starting = false
	err := msg.err
	if err != nil {
		if errors.Is(err, media.ErrAlreadyRecording) {
			m.notice = "A recording is already in progress."
		} else {
			m.notice = pipeline.UserMessage(err)
		}
		m.feed.AddError("Microphone unavailable", err.Error())
		return m, nil
	}

	m.recording = true
	m.capture = msg.fin
	m.feed.AddRecording("Recording started", m.state.Language())
	return m, tea.Batch(recordTick(), m.waitForCapture())
}

func recordTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return recordTickMsg(t)
	})
}

func (m StudioModel) playPreview() (tea.Model, tea.Cmd) {
	audio := m.state.Audio()
	if audio.Empty() || m.player == nil || m.playing {
		return m, nil
	}

	m.playing = true
	player, ctx := m.player, m.ctx
	return m, func() tea.Msg {
		return playbackDoneMsg{err: player.Play(ctx, audio)}
	}
}

func (m *StudioModel) cycleLanguage() {
	langs := m.cfg.Languages
	if len(langs) == 0 {
		return
	}

	current := m.state.Language()
	next := langs[0]
	for i, l := range langs {
		if l == current {
			next = langs[(i+1)%len(langs)]
			break
		}
	}
	m.state.SetLanguage(next)
}

// submit starts a run unless one is in flight. Incomplete input is
// reported inline without reaching the orchestrator
func (m StudioModel) submit() (tea.Model, tea.Cmd) {
	if m.pending || m.orch.Busy() {
		return m, nil
	}

	mode := m.state.Mode()
	if mode == input.ModeVoice && (m.recording || m.starting || m.finalizing) {
		m.notice = "Stop the recording before generating."
		return m, nil
	}
	if err := m.state.Validate(mode); err != nil {
		m.notice = pipeline.UserMessage(err)
		return m, nil
	}

	m.notice = ""
	m.pending = true
	m.runMode = mode
	m.cursor = 0

	orch, state, ctx := m.orch, m.state, m.ctx
	return m, func() tea.Msg {
		_, err := orch.Submit(ctx, state)
		return submitDoneMsg{err: err}
	}
}

// submitDone handles errors that never produce a phase event
func (m *StudioModel) submitDone(err error) {
	var validationErr *input.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrBusy):
		m.pending = false
	case errors.As(err, &validationErr):
		m.pending = false
		m.notice = validationErr.Message
	}
}

func (m *StudioModel) applyEvent(e pipeline.Event) {
	prev := m.ui.Phase()
	m.ui.Apply(e)

	elapsed := e.At.Sub(m.phaseAt)

	switch e.Phase {
	case pipeline.PhaseTranscribing:
		m.runStart = e.At
		m.feed.AddRequest("/api/transcribe", encodedSize(len(m.state.Audio().Data)))

	case pipeline.PhaseGenerating:
		if prev == pipeline.PhaseTranscribing {
			m.feed.AddResponse("Transcript received", elapsed, e.Transcript)
		} else {
			m.runStart = e.At
		}
		imageSize := 0
		if img := m.state.Image(); img != nil {
			imageSize = len(img.Data)
		}
		m.feed.AddRequest("/api/generate", encodedSize(imageSize))

	case pipeline.PhaseSuccess:
		m.pending = false
		m.cursor = 0
		captions, images := 0, 0
		if e.Result != nil {
			captions, images = len(e.Result.Captions), len(e.Result.ImageURLs)
		}
		m.feed.AddComplete("Content generated", e.At.Sub(m.runStart),
			fmt.Sprintf("%d captions", captions), fmt.Sprintf("%d images", images))

	case pipeline.PhaseError:
		m.pending = false
		m.failedPhase = prev
		m.feed.AddError("Run failed", e.Message)
	}

	m.phaseAt = e.At
	log.Debug().Str("run_id", e.RunID).Str("phase", e.Phase.String()).Msg("studio phase")
}

func encodedSize(n int) int64 {
	return int64(base64.StdEncoding.EncodedLen(n))
}

func (m StudioModel) selected() (render.Item, bool) {
	items := render.Items(m.ui.Sections())
	if m.cursor < 0 || m.cursor >= len(items) {
		return render.Item{}, false
	}
	return items[m.cursor], true
}

func (m StudioModel) copySelected() (tea.Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok || item.Action != render.ActionCopy {
		return m, nil
	}

	actions := m.actions
	return m, func() tea.Msg {
		ack, err := actions.Copy(item)
		return actionDoneMsg{ack: ack, err: err}
	}
}

func (m StudioModel) downloadSelected() (tea.Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok || item.Action != render.ActionDownload {
		return m, nil
	}

	actions, ctx := m.actions, m.ctx
	return m, func() tea.Msg {
		path, err := actions.Download(ctx, item)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{ack: "Saved " + path}
	}
}

func (m StudioModel) downloadAll() (tea.Model, tea.Cmd) {
	sections := m.ui.Sections()
	if len(sections) == 0 {
		return m, nil
	}

	actions, ctx := m.actions, m.ctx
	return m, func() tea.Msg {
		paths, err := actions.DownloadAll(ctx, sections)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{ack: fmt.Sprintf("Saved %d images", len(paths))}
	}
}

func (m StudioModel) export() (tea.Model, tea.Cmd) {
	sections := m.ui.Sections()
	result := m.ui.Result()
	if len(sections) == 0 || result == nil {
		return m, nil
	}

	dir := m.cfg.DownloadDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, ExportFileName)
	title := result.Title
	return m, func() tea.Msg {
		if err := render.WriteHTML(path, sections, title); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{ack: "Exported " + path}
	}
}

func (m StudioModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if fin := m.recorder.Stop(); fin != nil {
		log.Debug().Msg("recording discarded on quit")
	}
	m.cancel()
	return m, tea.Quit
}

// View renders the studio
func (m StudioModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(Header() + "\n\n")
	b.WriteString(StepIndicator(m.runSteps()) + "\n")

	b.WriteString(m.renderInputs() + "\n")

	switch m.focus {
	case focusImagePath:
		b.WriteString(FocusedBoxStyle.Render("Image path\n"+m.imagePath.View()) + "\n")
	case focusPicker:
		b.WriteString(FocusedBoxStyle.Render("Select a product photo\n"+m.picker.View()) + "\n")
	}

	b.WriteString(m.renderOutput() + "\n")

	if toast := m.toaster.Visible(m.now()); toast != "" {
		b.WriteString(ToastStyle.Render(toast) + "\n")
	}

	b.WriteString(BoxStyle.Render(m.feed.View()) + "\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m StudioModel) runSteps() []RunStep {
	mode := m.state.Mode()
	phase := m.ui.Phase()
	if phase != pipeline.PhaseIdle {
		mode = m.runMode
	}

	image := RunStep{Title: "Image"}
	if m.state.Image() != nil {
		image.Status = StepCompleted
	}

	story := RunStep{Title: "Story"}
	if mode == input.ModeText && strings.TrimSpace(m.state.Story()) != "" ||
		mode == input.ModeVoice && !m.state.Audio().Empty() {
		story.Status = StepCompleted
	}

	transcribe := RunStep{Title: "Transcribe"}
	if mode == input.ModeText {
		transcribe.Status = StepSkipped
	}

	generate := RunStep{Title: "Generate"}

	switch phase {
	case pipeline.PhaseTranscribing:
		transcribe.Status = StepActive
	case pipeline.PhaseGenerating:
		if mode == input.ModeVoice {
			transcribe.Status = StepCompleted
		}
		generate.Status = StepActive
	case pipeline.PhaseSuccess:
		if mode == input.ModeVoice {
			transcribe.Status = StepCompleted
		}
		generate.Status = StepCompleted
	case pipeline.PhaseError:
		if m.failedPhase == pipeline.PhaseTranscribing {
			transcribe.Status = StepError
		} else {
			if mode == input.ModeVoice {
				transcribe.Status = StepCompleted
			}
			generate.Status = StepError
		}
	}

	return []RunStep{image, story, transcribe, generate}
}

func (m StudioModel) renderInputs() string {
	var b strings.Builder

	if img := m.state.Image(); img != nil {
		b.WriteString(SuccessStyle.Render("Image: ") + BodyStyle.Render(img.Summary()) + "\n")
		for _, line := range img.Details() {
			b.WriteString(MutedStyle.Render("       "+line) + "\n")
		}
	} else {
		b.WriteString(MutedStyle.Render("Image: none selected") + "\n")
	}

	voice, text := MutedStyle.Render(" Voice "), MutedStyle.Render(" Text ")
	if m.state.Mode() == input.ModeVoice {
		voice = BadgeStyle.Render("Voice")
	} else {
		text = BadgeStyle.Render("Text")
	}
	b.WriteString("Mode:  " + voice + " " + text)
	b.WriteString(MutedStyle.Render("   Language: ") + BodyStyle.Render(m.state.Language()) + "\n\n")

	if m.state.Mode() == input.ModeVoice {
		b.WriteString(m.renderRecording())
	} else {
		b.WriteString(m.story.View())
	}

	if m.notice != "" {
		b.WriteString("\n" + WarningStyle.Render(m.notice))
	}

	style := BoxStyle
	if m.focus == focusStory {
		style = FocusedBoxStyle
	}
	return style.Render(b.String())
}

func (m StudioModel) renderRecording() string {
	switch {
	case m.recording:
		return BadgeRecordingStyle.Render("REC") + " " +
			BodyStyle.Render(media.FormatDuration(m.recorder.Elapsed())) +
			MutedStyle.Render("  press r to stop")
	case m.starting:
		return m.spinner.View() + " " + MutedStyle.Render("Opening microphone...")
	case m.finalizing:
		return m.spinner.View() + " " + MutedStyle.Render("Finalizing recording...")
	}

	audio := m.state.Audio()
	if audio.Empty() {
		return MutedStyle.Render("No recording yet. Press r to record your story.")
	}

	line := SuccessStyle.Render("Recorded: ") + BodyStyle.Render(audio.Summary())
	if m.playing {
		line += MutedStyle.Render("  playing...")
	}
	return line
}

func (m StudioModel) renderOutput() string {
	regions := m.ui.Regions()
	width := max(m.width-6, 20)

	switch {
	case regions.Results:
		return m.renderResults(width)
	case regions.Error:
		errorBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(0, 1).
			Width(width).
			Render(ErrorStyle.Render("Error") + "\n" + regions.ErrorMessage)
		return errorBox + "\n" + MutedStyle.Render(placeholderText)
	}

	content := MutedStyle.Render(placeholderText)
	if regions.Loading {
		content = m.spinner.View() + " " + BodyStyle.Render(regions.Status)
	}
	return BoxStyle.Width(width).Render(content)
}

func (m StudioModel) renderResults(width int) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Results") + "\n")

	idx := 0
	for _, section := range m.ui.Sections() {
		b.WriteString(SubtitleStyle.Render(section.Heading) + "\n")
		if len(section.Items) == 0 {
			b.WriteString(MutedStyle.Render("  (none)") + "\n")
		}

		for _, item := range section.Items {
			cursor := "  "
			style := BodyStyle
			if idx == m.cursor {
				cursor = "> "
				style = SelectedStyle
			}

			var line string
			switch section.Kind {
			case render.SectionCaptions:
				line = fmt.Sprintf("%d. %s", item.Index+1, item.Text)
			case render.SectionImages:
				line = item.Label + "  " + MutedStyle.Render(truncateString(item.URL, 50))
			default:
				line = item.Text
			}

			action := MutedStyle.Render("  [c] copy")
			if item.Action == render.ActionDownload {
				action = MutedStyle.Render("  [d] " + item.FileName)
			}

			b.WriteString(style.Width(width-4).Render(cursor+line) + "\n")
			if idx == m.cursor {
				b.WriteString(action + "\n")
			}
			idx++
		}
		b.WriteString("\n")
	}

	return BoxStyle.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func (m StudioModel) renderHelp() string {
	switch m.focus {
	case focusStory:
		return KeyHelp("esc", "Done editing")
	case focusImagePath:
		return KeyHelp("enter", "Load", "esc", "Cancel")
	case focusPicker:
		return KeyHelp("j/k", "Navigate", "enter", "Select", "h/l", "Up/Down dir", "esc", "Cancel")
	}

	keys := []string{"i/o", "Image", "x", "Clear", "tab", "Mode"}
	if m.state.Mode() == input.ModeVoice {
		keys = append(keys, "r", "Record", "p", "Play", "l", "Language")
	} else {
		keys = append(keys, "e", "Edit story")
	}
	if !m.pending {
		keys = append(keys, "g", "Generate")
	}
	if len(m.ui.Sections()) > 0 {
		keys = append(keys, "j/k", "Select", "a", "Save all", "w", "Export")
	}
	keys = append(keys, "q", "Quit")
	return KeyHelp(keys...)
}

// IsQuitting reports whether the user asked to leave
func (m StudioModel) IsQuitting() bool { return m.quitting }

// RunStudio runs the studio until the user quits. image, if not nil, is
// preselected
func RunStudio(ctx context.Context, cfg config.Config, svc Services, image *input.ImagePayload) error {
	model := NewStudioModel(ctx, cfg, svc)
	if image != nil {
		model.state.SetImage(image)
	}
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
