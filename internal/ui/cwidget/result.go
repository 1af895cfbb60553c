package cwidget

import (
	"bytes"
	"image"

	"emotion/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ResultView shows the annotated image and the detected emotions of the
// latest prediction. It stays hidden until the first result arrives.
type ResultView struct {
	widget.BaseWidget

	image *canvas.Image
	title *widget.Label
	list  *fyne.Container

	source   string
	emotions []string
}

func NewResultView() *ResultView {
	v := &ResultView{
		image: canvas.NewImageFromImage(nil),
		title: widget.NewLabelWithStyle("Detected Emotions:", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		list:  container.NewVBox(),
	}
	v.image.FillMode = canvas.ImageFillContain
	v.image.SetMinSize(fyne.NewSize(320, 240))

	v.ExtendBaseWidget(v)
	v.Hide()

	return v
}

// SetResult replaces whatever was shown. A nil result hides the view.
func (v *ResultView) SetResult(res *models.EmotionResult) {
	if res == nil {
		v.source = ""
		v.emotions = nil
		v.image.Image = nil
		v.list.Objects = nil
		v.Hide()
		return
	}

	v.source = res.DataURI()
	v.image.Image = nil
	if data, err := res.ImageBytes(); err == nil && len(data) > 0 {
		if img, err := DecodeImage(data); err == nil {
			v.image.Image = img
		}
	}

	v.emotions = append([]string(nil), res.Emotions...)
	v.list.Objects = nil
	for _, emo := range v.emotions {
		v.list.Add(widget.NewLabel("• " + emo))
	}

	v.Show()
	v.Refresh()
}

// Source is the data URI of the displayed image.
func (v *ResultView) Source() string { return v.source }

func (v *ResultView) Emotions() []string { return v.emotions }

func (v *ResultView) Image() image.Image { return v.image.Image }

func (v *ResultView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewVBox(v.image, v.title, v.list))
}

func DecodeImage(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

// Thumbnail decodes data and fits it into w x h for previews.
func Thumbnail(data []byte, w, h int) (image.Image, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return imaging.Fit(img, w, h, imaging.Lanczos), nil
}
