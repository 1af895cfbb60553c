package ui

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"emotion/internal/config"
	"emotion/internal/models"
	"emotion/internal/ui/cwidget"
	"emotion/processing/capture"
	"emotion/processing/detector"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

const (
	windowTitle = "Emotion Detection"

	captureLabel     = "Capture & Analyze"
	closeCameraLabel = "Close Camera"
	openCameraLabel  = "Open Camera"
	openImageLabel   = "Open Image"
	uploadLabel      = "Upload & Analyze"
	noFileLabel      = "No image selected"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

type Options struct {
	// Context ends the app when cancelled, e.g. on SIGINT.
	Context    context.Context
	Config     *config.Config
	ConfigPath string
	Camera     *capture.Camera
	Submitter  detector.Submitter
	Logger     *zap.Logger
}

type DetectApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	parent       context.Context
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once

	config     *config.Config
	configPath string
	log        *zap.Logger

	camera    *capture.Camera
	submitter detector.Submitter
	selector  *capture.Selector
	processor *detector.Processor

	dynamicSettings *fyne.Container
	staticSettings  *fyne.Container

	videoCanvas  *canvas.Image
	captureBtn   *widget.Button
	toggleBtn    *widget.Button
	uploadBtn    *widget.Button
	fileLabel    *widget.Label
	filePreview  *canvas.Image
	resultView   *cwidget.ResultView
	latencyLabel *widget.Label
	statusLabel  *widget.Label
}

func CreateApp(opts Options) *DetectApp {
	return newDetectApp(app.New(), opts)
}

func newDetectApp(a fyne.App, opts Options) *DetectApp {
	w := a.NewWindow(windowTitle)
	w.Resize(fyne.NewSize(1200, 700))

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	da := &DetectApp{
		fyneApp:    a,
		mainWin:    w,
		parent:     parent,
		ctx:        ctx,
		cancel:     cancel,
		config:     opts.Config,
		configPath: opts.ConfigPath,
		log:        log.Named("ui"),
		camera:     opts.Camera,
		submitter:  opts.Submitter,
		selector:   capture.NewSelector(opts.Camera),
	}

	da.processor = detector.NewProcessor(da.selector, opts.Submitter, da, log)
	da.processor.OnResult = da.showResult
	da.processor.OnStateChange = da.showState

	return da
}

// Notify shows a blocking notice. Safe to call from any goroutine.
func (a *DetectApp) Notify(message string) {
	fyne.Do(func() {
		dialog.ShowInformation(windowTitle, message, a.mainWin)
	})
}

func (a *DetectApp) Run() {
	a.mainWin.SetContent(a.buildContent())

	a.mainWin.SetCloseIntercept(func() {
		a.shutdown()
		a.mainWin.Close()
	})

	a.camera.SetOnEnded(func() {
		fyne.Do(a.refreshCameraControls)
	})
	a.openCamera()

	go a.runPlayerLoop()
	go a.runStatLoop()
	go a.quitOnCancel()

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
}

func (a *DetectApp) shutdown() {
	a.shutdownOnce.Do(func() {
		a.cancel()
		a.camera.Close()

		if a.configPath == "" {
			return
		}
		if err := a.config.Save(a.configPath); err != nil {
			a.log.Warn("failed to save config", zap.String("path", a.configPath), zap.Error(err))
		}
	})
}

// quitOnCancel tears the app down when the parent context ends.
// A window close cancels only a.ctx and leaves the app to fyne.
func (a *DetectApp) quitOnCancel() {
	<-a.ctx.Done()
	if a.parent.Err() == nil {
		return
	}

	a.log.Info("shutting down", zap.Error(a.parent.Err()))
	fyne.Do(func() {
		a.shutdown()
		a.fyneApp.Quit()
	})
}

func (a *DetectApp) buildContent() fyne.CanvasObject {
	a.videoCanvas = canvas.NewImageFromImage(nil)
	a.videoCanvas.FillMode = canvas.ImageFillContain
	a.videoCanvas.SetMinSize(fyne.NewSize(480, 360))

	a.captureBtn = widget.NewButtonWithIcon(captureLabel, theme.MediaPhotoIcon(), a.onCapture)
	a.captureBtn.Importance = widget.HighImportance
	a.toggleBtn = widget.NewButtonWithIcon(closeCameraLabel, theme.VisibilityOffIcon(), a.toggleCamera)

	a.fileLabel = widget.NewLabel(noFileLabel)
	a.filePreview = canvas.NewImageFromImage(nil)
	a.filePreview.FillMode = canvas.ImageFillContain
	a.filePreview.SetMinSize(fyne.NewSize(160, 120))

	openBtn := widget.NewButtonWithIcon(openImageLabel, theme.FolderOpenIcon(), a.openImageDialog)
	a.uploadBtn = widget.NewButtonWithIcon(uploadLabel, theme.UploadIcon(), a.onUpload)

	a.resultView = cwidget.NewResultView()
	a.latencyLabel = widget.NewLabel(formatLatency(0))
	a.statusLabel = widget.NewLabel(detector.StateIdle.String())

	cameraPanel := container.NewBorder(
		nil,
		container.NewHBox(a.captureBtn, a.toggleBtn),
		nil, nil,
		a.videoCanvas,
	)

	uploadPanel := container.NewVBox(
		a.filePreview,
		a.fileLabel,
		openBtn,
		a.uploadBtn,
	)

	body := container.NewBorder(
		container.NewHBox(a.statusLabel, widget.NewSeparator(), a.latencyLabel),
		nil, nil, nil,
		container.NewHBox(cameraPanel, uploadPanel, a.resultView),
	)

	split := container.NewHSplit(
		container.NewPadded(a.buildSidebar()),
		container.NewPadded(body),
	)
	split.SetOffset(0.25)

	return split
}

func (a *DetectApp) buildSidebar() fyne.CanvasObject {
	a.dynamicSettings = container.NewVBox()
	a.setupConfigSettings()

	sourceTypeSelect := widget.NewSelect(config.SourcesList[:], func(s string) {
		a.config.SetSource(config.SourceType(s))
		a.refreshSettingsUI(s)
	})
	sourceTypeSelect.SetSelected(string(a.config.GetSource()))

	return container.NewVBox(
		widget.NewLabelWithStyle("Configuration", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		widget.NewLabel("Server: "+a.endpoint()),
		widget.NewSeparator(),
		widget.NewLabel("Camera Source:"),
		sourceTypeSelect,
		widget.NewSeparator(),
		a.dynamicSettings,
		a.staticSettings,
	)
}

func (a *DetectApp) endpoint() string {
	if d, ok := a.submitter.(interface{ URL() string }); ok {
		return d.URL()
	}
	return a.config.PredictURL()
}

func (a *DetectApp) onCapture() {
	go a.processor.CaptureAndAnalyze(a.ctx)
}

func (a *DetectApp) onUpload() {
	go a.processor.UploadAndAnalyze(a.ctx)
}

func (a *DetectApp) showResult(res *models.EmotionResult) {
	fyne.Do(func() {
		a.resultView.SetResult(res)
	})
}

func (a *DetectApp) showState(s detector.State) {
	fyne.Do(func() {
		a.statusLabel.SetText(s.String())
	})
}

func (a *DetectApp) selectFile(payload models.ImagePayload) {
	a.selector.SelectFile(payload)
	a.fileLabel.SetText(fmt.Sprintf("%s (%d bytes)", payload.Filename, len(payload.Data)))

	thumb, err := cwidget.Thumbnail(payload.Data, 160, 120)
	if err != nil {
		// still uploadable; the server decides whether it is an image
		a.log.Debug("no preview for selected file", zap.String("file", payload.Filename), zap.Error(err))
	}
	a.filePreview.Image = thumb
	a.filePreview.Refresh()
}

func (a *DetectApp) openImageDialog() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		payload, err := capture.ReadFile(reader.URI().Name(), reader)
		if err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}

		a.selectFile(payload)
	}, a.mainWin)

	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	fd.Show()
}

func (a *DetectApp) openCamera() {
	if err := a.camera.Open(); err != nil {
		a.log.Warn("camera unavailable", zap.Error(err))
		dialog.ShowError(err, a.mainWin)
	}
	a.refreshCameraControls()
}

func (a *DetectApp) toggleCamera() {
	if _, err := a.camera.Toggle(); err != nil {
		a.log.Warn("camera unavailable", zap.Error(err))
		dialog.ShowError(err, a.mainWin)
	}
	a.refreshCameraControls()
}

func (a *DetectApp) restartCamera() {
	a.camera.Close()
	a.openCamera()
}

func (a *DetectApp) refreshCameraControls() {
	on := a.camera.IsOn()

	if on {
		a.toggleBtn.SetText(closeCameraLabel)
		a.toggleBtn.SetIcon(theme.VisibilityOffIcon())
		a.captureBtn.Show()
	} else {
		a.toggleBtn.SetText(openCameraLabel)
		a.toggleBtn.SetIcon(theme.VisibilityIcon())
		a.captureBtn.Hide()

		a.videoCanvas.Image = nil
		a.videoCanvas.Refresh()
	}
}

func (a *DetectApp) runStatLoop() {
	uiTicker := time.NewTicker(time.Millisecond * 200)
	defer uiTicker.Stop()

	for {
		select {
		case <-uiTicker.C:
			latency := a.processor.Latency()
			fyne.Do(func() {
				a.latencyLabel.SetText(formatLatency(latency))
			})
		case <-a.ctx.Done():
			return
		}
	}
}

func formatLatency(v time.Duration) string {
	return fmt.Sprintf("Latency: %d ms", v.Milliseconds())
}

func (a *DetectApp) runPlayerLoop() {
	fps := a.config.GetFPS()
	if fps == 0 {
		fps = 24
	}

	displayTicker := time.NewTicker(time.Second / time.Duration(fps))
	defer displayTicker.Stop()

	var lastFrame image.Image

	for {
		select {
		case frame := <-a.camera.Preview():
			if frame != nil {
				lastFrame = frame
			}

		case <-displayTicker.C:
			if lastFrame == nil || !a.camera.IsOn() {
				continue
			}
			frame := lastFrame
			fyne.Do(func() {
				a.videoCanvas.Image = frame
				a.videoCanvas.Refresh()
			})

		case <-a.ctx.Done():
			return
		}
	}
}

func (a *DetectApp) setupConfigSettings() {
	a.staticSettings = container.NewVBox()

	fpsInput := cwidget.NewIntInput(
		"FPS",
		"Enter integer",
		int(a.config.GetFPS()),
		func(i int) {
			a.config.SetFPS(uint(i))
		},
	)

	widthInput := cwidget.NewIntInput(
		"Width",
		"Enter integer",
		a.config.GetWidth(),
		func(i int) {
			a.config.SetWidth(i)
		},
	)

	heightInput := cwidget.NewIntInput(
		"Height",
		"Enter integer",
		a.config.GetHeight(),
		func(i int) {
			a.config.SetHeight(i)
		},
	)

	applyCfg := widget.NewButtonWithIcon("Apply camera settings", theme.ViewRefreshIcon(), a.restartCamera)

	a.staticSettings.Add(fpsInput)
	a.staticSettings.Add(widthInput)
	a.staticSettings.Add(heightInput)
	a.staticSettings.Add(applyCfg)
}

func (a *DetectApp) refreshSettingsUI(sourceType string) {
	a.dynamicSettings.Objects = nil

	switch config.SourceType(sourceType) {
	case config.SourceLocal:
		pathInput := cwidget.NewTextInput(
			"Video Path",
			"/path/to/video.mp4",
			a.config.GetLocalPath(),
			nil,
			func(s string) {
				a.config.SetLocalPath(s)
			},
		)

		fileBtn := widget.NewButtonWithIcon("Open Video", theme.FolderOpenIcon(), func() {
			dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
				if err == nil && reader != nil {
					pathInput.SetText(reader.URI().Path())
					reader.Close()
				}
			}, a.mainWin)
		})

		a.dynamicSettings.Add(pathInput)
		a.dynamicSettings.Add(fileBtn)

	case config.SourceWebcam:
		deviceSelect := widget.NewSelect([]string{"Loading cameras..."}, func(s string) {
			if s != "Loading cameras..." && s != "No cameras found" {
				a.config.SetDeviceID(s)
			}
		})
		deviceSelect.SetSelected("Loading cameras...")
		deviceSelect.Disable()

		a.dynamicSettings.Add(widget.NewLabel("Select Camera:"))
		a.dynamicSettings.Add(deviceSelect)

		go func() {
			devices, err := capture.ListCameras()

			fyne.Do(func() {
				switch {
				case err != nil:
					dialog.ShowError(err, a.mainWin)
					deviceSelect.Options = []string{"Error listing cameras"}
				case len(devices) == 0:
					deviceSelect.Options = []string{"No cameras found"}
				default:
					deviceSelect.Options = devices
					deviceSelect.Enable()

					if id := a.config.GetDeviceID(); id != "" {
						deviceSelect.SetSelected(id)
					} else {
						deviceSelect.SetSelected(devices[0])
					}
				}
				deviceSelect.Refresh()
			})
		}()
	}

	a.dynamicSettings.Refresh()
}
