package preview

import (
	"errors"

	"github.com/nvlled/spincap/encoder"
	"github.com/sqweek/dialog"
)

// AskOutput shows a save dialog for the output file. It returns current when
// the dialog is cancelled.
func AskOutput(format encoder.Format, current string) (string, error) {
	filter := format.String()
	filename, err := dialog.File().
		Filter(filter, filter).
		Title("Save capture").
		Save()
	if errors.Is(err, dialog.ErrCancelled) {
		return current, nil
	}
	if err != nil {
		return "", err
	}
	if filename == "" {
		return current, nil
	}
	return encoder.WithFormatExt(filename, format), nil
}
