package cwidget

import (
	"errors"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Input is a labeled entry that parses its text into T and shows parse errors inline.
type Input[T any] struct {
	widget.BaseWidget

	labelWidget *widget.Label
	entryWidget *widget.Entry
	errorWidget *widget.Label

	LabelText   string
	Placeholder string

	Value T

	OnChanged func(T)

	Parse  func(string) (T, error)
	Format func(T) string
}

func NewInput[T any](label, placeholder string, value T, parse func(string) (T, error), format func(T) string, onChanged func(T)) *Input[T] {
	input := &Input[T]{
		LabelText:   label,
		Placeholder: placeholder,
		Value:       value,
		OnChanged:   onChanged,
		Parse:       parse,
		Format:      format,
	}

	input.labelWidget = widget.NewLabel(input.caption())
	input.labelWidget.TextStyle = fyne.TextStyle{Bold: true}

	input.entryWidget = widget.NewEntry()
	input.entryWidget.SetPlaceHolder(placeholder)

	input.errorWidget = widget.NewLabel("")
	input.errorWidget.Hidden = true
	input.errorWidget.TextStyle = fyne.TextStyle{Italic: true}
	input.errorWidget.Importance = widget.DangerImportance

	input.entryWidget.OnChanged = input.onEntryChanged

	input.ExtendBaseWidget(input)

	return input
}

func NewIntInput(label, placeholder string, defaultValue int, onChanged func(int)) *Input[int] {
	parse := func(s string) (int, error) {
		if s == "" {
			return defaultValue, nil
		}

		res, err := strconv.Atoi(s)
		if err != nil {
			return defaultValue, errors.New("not an integer")
		}
		if res <= 0 {
			return defaultValue, errors.New("must be positive")
		}

		return res, nil
	}

	return NewInput(label, placeholder, defaultValue, parse, strconv.Itoa, onChanged)
}

// NewTextInput starts pre-filled with value; validate may be nil.
func NewTextInput(label, placeholder, value string, validate func(string) error, onChanged func(string)) *Input[string] {
	parse := func(s string) (string, error) {
		if validate != nil {
			if err := validate(s); err != nil {
				return s, err
			}
		}
		return s, nil
	}

	input := NewInput(label, placeholder, value, parse, func(s string) string { return s }, onChanged)
	input.entryWidget.Text = value
	input.entryWidget.Refresh()
	return input
}

func (item *Input[T]) onEntryChanged(s string) {
	res, err := item.Parse(s)
	item.SetError(err)

	if err != nil {
		return
	}

	item.Value = res
	item.labelWidget.SetText(item.caption())

	if item.OnChanged != nil {
		item.OnChanged(res)
	}
}

func (item *Input[T]) caption() string {
	if item.Format == nil {
		return item.LabelText
	}

	v := item.Format(item.Value)
	if v == "" {
		return item.LabelText
	}
	return fmt.Sprintf("%s: %s", item.LabelText, v)
}

func (item *Input[T]) CreateRenderer() fyne.WidgetRenderer {
	c := container.NewVBox(
		item.labelWidget,
		item.entryWidget,
		item.errorWidget,
	)

	return widget.NewSimpleRenderer(c)
}

func (item *Input[T]) SetError(err error) {
	item.errorWidget.Hidden = err == nil
	if err != nil {
		item.errorWidget.SetText(err.Error())
	}
	item.errorWidget.Refresh()
}

func (item *Input[T]) SetText(text string) {
	item.entryWidget.SetText(text)
}
