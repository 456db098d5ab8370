package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"kalasetu/input"
	"kalasetu/media"
	"kalasetu/pipeline"
	"kalasetu/render"
	"kalasetu/tui"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/ncruces/zenity"
	"github.com/spf13/cobra"
)

func newWizardCmd(a *app) *cobra.Command {
	var dialog bool

	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Step through a single product with prompts",
		Long: `Walk through one product step by step: choose a photo, tell its story,
review, generate, then copy or save the results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !stdinIsTerminal() {
				return errors.New("the wizard needs an interactive terminal; use kalasetu generate instead")
			}
			w := &wizard{app: a, ctx: cmd.Context(), dialog: dialog}
			for {
				again, err := w.run()
				if err != nil {
					return err
				}
				if !again {
					fmt.Println(tui.SubtitleStyle.Render("Dhanyavaad! Bye bye!"))
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&dialog, "dialog", false, "Choose the photo with the system file dialog and show desktop notifications")

	return cmd
}

// wizard is one linear pass through the pipeline
type wizard struct {
	app    *app
	ctx    context.Context
	dialog bool
}

func form(fields ...huh.Field) *huh.Form {
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCatppuccin())
}

func (w *wizard) run() (bool, error) {
	state := input.NewState(w.app.cfg.Language)

	// Step 1: product photo
	image, err := w.selectImage()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, zenity.ErrCanceled) {
			return false, nil
		}
		return false, err
	}
	state.SetImage(image)

	details := image.Summary()
	if extra := image.Details(); len(extra) > 0 {
		details += "\n" + strings.Join(extra, "\n")
	}
	fmt.Println(tui.Card("Product photo", details, 72))

	// Step 2: story
	mode := input.ModeText
	err = form(
		huh.NewSelect[input.Mode]().
			Title("How would you like to tell the story?").
			Options(
				huh.NewOption("Type it", input.ModeText),
				huh.NewOption("Record it with my microphone", input.ModeVoice),
			).
			Value(&mode),
	).Run()
	if err != nil {
		return w.aborted(err)
	}
	state.SetMode(mode)

	if mode == input.ModeText {
		err = w.typeStory(state)
	} else {
		err = w.recordStory(state)
	}
	if err != nil {
		return w.aborted(err)
	}

	// Step 3: confirm
	sub, err := state.Snapshot()
	if err != nil {
		fmt.Println(tui.ErrorStyle.Render(pipeline.UserMessage(err)))
		return w.askToContinue()
	}

	storyLine := sub.Audio.Summary() + " (" + sub.Language + ")"
	if sub.Mode == input.ModeText {
		storyLine = truncate(sub.Story, 60)
	}
	fmt.Println(tui.Card("Ready to generate", fmt.Sprintf(
		"Photo:  %s\nMode:   %s\nStory:  %s\nServer: %s",
		sub.Image.Name, sub.Mode, storyLine, w.app.cfg.APIBaseURL,
	), 72))

	proceed := true
	err = form(
		huh.NewConfirm().
			Title("Generate marketing content?").
			Affirmative("Yes, generate!").
			Negative("No, start over").
			Value(&proceed),
	).Run()
	if err != nil || !proceed {
		return w.askToContinue()
	}

	// Step 4: run
	result, err := w.generate(sub)
	if err != nil {
		fmt.Println(tui.ErrorStyle.Render("Error: " + pipeline.UserMessage(err)))
		return w.askToContinue()
	}

	sections := render.Render(result)
	printSections(os.Stdout, sections, 72)

	// Step 5: copy and save
	return w.resultActions(result, sections)
}

func (w *wizard) aborted(err error) (bool, error) {
	if errors.Is(err, huh.ErrUserAborted) {
		return w.askToContinue()
	}
	return false, err
}

func (w *wizard) selectImage() (*input.ImagePayload, error) {
	var path string

	if w.dialog {
		patterns := make([]string, 0, len(input.ImageExtensions()))
		for _, ext := range input.ImageExtensions() {
			patterns = append(patterns, "*"+ext)
		}
		p, err := zenity.SelectFile(
			zenity.Title("Select a product photo"),
			zenity.FileFilters{{Name: "Images", Patterns: patterns, CaseFold: true}},
		)
		if err != nil {
			return nil, err
		}
		path = p
	} else {
		startDir, _ := os.Getwd()
		err := form(
			huh.NewFilePicker().
				Title("Select a product photo").
				Description("Navigate and select the photo to present").
				Picking(true).
				CurrentDirectory(startDir).
				ShowHidden(false).
				ShowPermissions(false).
				ShowSize(true).
				Height(15).
				AllowedTypes(input.ImageExtensions()).
				Value(&path),
		).Run()
		if err != nil {
			return nil, err
		}
	}

	var image *input.ImagePayload
	var loadErr error
	err := spinner.New().
		Title("Preparing photo...").
		Action(func() {
			image, loadErr = input.LoadImage(path, w.app.cfg.MaxImageDimension)
		}).
		Run()
	if err != nil {
		return nil, err
	}
	return image, loadErr
}

func (w *wizard) typeStory(state *input.State) error {
	var story string
	err := form(
		huh.NewText().
			Title("Tell the story of your product").
			Description("Who made it, how it is made, what makes it special.").
			Placeholder("This mug was thrown on my grandfather's wheel...").
			CharLimit(4000).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New(input.MsgStoryRequired)
				}
				return nil
			}).
			Value(&story),
	).Run()
	if err != nil {
		return err
	}
	state.SetStory(story)
	return nil
}

func (w *wizard) recordStory(state *input.State) error {
	cfg := w.app.cfg

	if _, err := media.CheckFFmpeg(cfg.FFmpeg); err != nil {
		fmt.Println(tui.ErrorStyle.Render("Recording needs ffmpeg"))
		fmt.Println(tui.MutedStyle.Render(media.FFmpegInstallHelp()))
		return huh.ErrUserAborted
	}

	language := state.Language()
	options := make([]huh.Option[string], 0, len(cfg.Languages))
	for _, l := range cfg.Languages {
		options = append(options, huh.NewOption(l, l))
	}
	ready := true
	err := form(
		huh.NewSelect[string]().
			Title("Which language will you speak?").
			Options(options...).
			Value(&language),
		huh.NewConfirm().
			Title("Start recording?").
			Affirmative("Record").
			Negative("Cancel").
			Value(&ready),
	).Run()
	if err != nil {
		return err
	}
	if !ready {
		return huh.ErrUserAborted
	}
	state.SetLanguage(language)

	recorder := media.NewRecorder(media.NewFFmpegBackend(cfg.FFmpeg, cfg.AudioInputFormat, cfg.AudioInputDevice))
	if err := recorder.Start(w.ctx); err != nil {
		fmt.Println(tui.ErrorStyle.Render(pipeline.UserMessage(err)))
		return huh.ErrUserAborted
	}

	stop := true
	err = form(
		huh.NewConfirm().
			Title(tui.BadgeRecordingStyle.Render("REC") + " Recording... tell your story").
			Description("Press Enter when you are done.").
			Affirmative("Stop").
			Negative("Stop").
			Value(&stop),
	).Run()

	// Stop regardless of how the prompt ended so the microphone is released.
	// A session that already ended on its own still yields its finalization
	endedEarly := !recorder.Recording()
	fin := recorder.Stop()
	if fin == nil {
		fin = recorder.Pending()
	}
	if endedEarly {
		fmt.Println(tui.WarningStyle.Render("The recorder stopped before you did."))
	}

	var audio media.AudioPayload
	var finErr error
	spinErr := spinner.New().
		Title("Finalizing recording...").
		Action(func() {
			audio, finErr = fin.Wait(w.ctx)
		}).
		Run()
	if err != nil {
		return err
	}
	if spinErr != nil {
		return spinErr
	}
	if finErr != nil {
		fmt.Println(tui.ErrorStyle.Render(pipeline.UserMessage(finErr)))
		return huh.ErrUserAborted
	}
	state.SetAudio(audio)
	fmt.Println(tui.StatusCard("[o]", "Recorded", audio.Summary(), tui.StepCompleted, 72))

	var listen bool
	if err := form(
		huh.NewConfirm().
			Title("Play it back?").
			Affirmative("Play").
			Negative("Skip").
			Value(&listen),
	).Run(); err == nil && listen {
		if err := media.NewPlayer(cfg.FFplay).Play(w.ctx, audio); err != nil {
			fmt.Println(tui.WarningStyle.Render("Playback failed: " + err.Error()))
		}
	}
	return nil
}

func (w *wizard) generate(sub input.Submission) (*pipeline.GenerationResult, error) {
	client := w.app.client()
	orch := pipeline.NewOrchestrator(client, client,
		pipeline.WithTimeouts(w.app.cfg.TranscribeTimeout, w.app.cfg.GenerateTimeout),
		pipeline.WithReporter(pipeline.ReporterFunc(func(e pipeline.Event) {
			if e.Transcript != "" {
				fmt.Println(tui.Card("Transcript", e.Transcript, 72))
			}
		})),
	)

	title := pipeline.StatusGenerating
	if sub.Mode == input.ModeVoice {
		title = pipeline.StatusTranscribing + " then generating..."
	}

	var result *pipeline.GenerationResult
	var runErr error
	err := spinner.New().
		Title(title).
		Action(func() {
			result, runErr = orch.Run(w.ctx, sub)
		}).
		Run()
	if err != nil {
		return nil, err
	}
	return result, runErr
}

func (w *wizard) resultActions(result *pipeline.GenerationResult, sections []render.Section) (bool, error) {
	actions := &render.Actions{
		Clipboard: render.SystemClipboard{},
		Fetcher:   w.app.client(),
		Dir:       w.app.cfg.DownloadDir,
	}

	items := render.Items(sections)

	for {
		options := []huh.Option[int]{}
		for i, item := range items {
			if item.Action != render.ActionCopy {
				continue
			}
			label := "Copy " + strings.ToLower(item.Label)
			if item.Label == "Caption" {
				label = fmt.Sprintf("Copy caption %d", item.Index+1)
			}
			options = append(options, huh.NewOption(label, i))
		}
		const (
			choiceDownload = -1
			choiceExport   = -2
			choiceAnother  = -3
			choiceExit     = -4
		)
		if len(result.ImageURLs) > 0 {
			options = append(options, huh.NewOption(fmt.Sprintf("Save %d images to %s", len(result.ImageURLs), actions.Dir), choiceDownload))
		}
		options = append(options,
			huh.NewOption("Export as HTML", choiceExport),
			huh.NewOption("Another product", choiceAnother),
			huh.NewOption("Exit", choiceExit),
		)

		choice := choiceExit
		if err := form(
			huh.NewSelect[int]().
				Title("What next?").
				Options(options...).
				Value(&choice),
		).Run(); err != nil {
			return false, nil
		}

		switch choice {
		case choiceAnother:
			return true, nil
		case choiceExit:
			return false, nil
		case choiceDownload:
			var paths []string
			var dlErr error
			_ = spinner.New().
				Title("Downloading images...").
				Action(func() {
					paths, dlErr = actions.DownloadAll(w.ctx, sections)
				}).
				Run()
			for _, p := range paths {
				fmt.Println(tui.SuccessStyle.Render("Saved ") + p)
			}
			if dlErr != nil {
				fmt.Println(tui.ErrorStyle.Render(dlErr.Error()))
			}
		case choiceExport:
			path := actions.Dir + string(os.PathSeparator) + tui.ExportFileName
			if err := render.WriteHTML(path, sections, result.Title); err != nil {
				fmt.Println(tui.ErrorStyle.Render(err.Error()))
			} else {
				w.acknowledge("Exported " + path)
			}
		default:
			ack, err := actions.Copy(items[choice])
			if err != nil {
				fmt.Println(tui.ErrorStyle.Render(err.Error()))
				continue
			}
			w.acknowledge(ack)
		}
	}
}

func (w *wizard) acknowledge(text string) {
	fmt.Println(tui.ToastStyle.Render(text))
	if w.dialog {
		_ = render.Notify(text)
	}
}

func (w *wizard) askToContinue() (bool, error) {
	var choice string
	err := form(
		huh.NewSelect[string]().
			Title("What next?").
			Options(
				huh.NewOption("Start over", "another"),
				huh.NewOption("Exit", "exit"),
			).
			Value(&choice),
	).Run()
	if err != nil {
		return false, nil
	}
	return choice == "another", nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// stdinIsTerminal reports whether os.Stdin is interactive
func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
