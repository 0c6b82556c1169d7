package prompt

import (
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxImageBytes caps accepted image files at 50 MiB.
const DefaultMaxImageBytes = 50 * 1024 * 1024

// FormattedPrompt is a template bound to one concrete image, ready to hand
// to an inference runner.
type FormattedPrompt struct {
	Text      string
	ImagePath string
	MIME      string
	Rules     Rules
}

// FormatError reports a prompt that could not be bound to an image.
type FormatError struct {
	ImagePath string
	Err       error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("failed to format prompt for %s: %v", e.ImagePath, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Formatter binds templates to image files after checking the file is a
// supported image within the size cap.
type Formatter struct {
	maxImageBytes int64
}

// NewFormatter creates a formatter. maxImageBytes <= 0 selects the default
// cap.
func NewFormatter(maxImageBytes int64) *Formatter {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &Formatter{maxImageBytes: maxImageBytes}
}

// Format validates imagePath and produces a FormattedPrompt. The MIME type
// is sniffed from content, not the extension; only JPEG and PNG pass.
func (f *Formatter) Format(tpl *Template, imagePath string) (FormattedPrompt, error) {
	info, err := os.Stat(imagePath)
	if err != nil {
		return FormattedPrompt{}, &FormatError{ImagePath: imagePath, Err: fmt.Errorf("image not found: %w", err)}
	}
	if info.IsDir() {
		return FormattedPrompt{}, &FormatError{ImagePath: imagePath, Err: fmt.Errorf("not a file")}
	}
	if info.Size() > f.maxImageBytes {
		return FormattedPrompt{}, &FormatError{ImagePath: imagePath,
			Err: fmt.Errorf("image is %d bytes, exceeds limit of %d", info.Size(), f.maxImageBytes)}
	}

	mtype, err := mimetype.DetectFile(imagePath)
	if err != nil {
		return FormattedPrompt{}, &FormatError{ImagePath: imagePath, Err: fmt.Errorf("failed to detect type: %w", err)}
	}
	if !mtype.Is("image/jpeg") && !mtype.Is("image/png") {
		return FormattedPrompt{}, &FormatError{ImagePath: imagePath,
			Err: fmt.Errorf("unsupported image type %s", mtype.String())}
	}

	return FormattedPrompt{
		Text:      tpl.Template,
		ImagePath: imagePath,
		MIME:      mtype.String(),
		Rules:     tpl.ValidationRules,
	}, nil
}
