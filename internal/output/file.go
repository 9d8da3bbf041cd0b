package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// FileOutput writes each frame to its own file. With Path set every frame
// goes to that path; otherwise files are named after the target and the
// capture time inside Dir.
type FileOutput struct {
	config Config
	Dir    string
	Path   string

	now func() time.Time
}

// NewFileOutput creates a file output rooted at dir
func NewFileOutput(config Config, dir string) *FileOutput {
	return &FileOutput{config: config, Dir: dir, now: time.Now}
}

// Name returns the output type
func (o *FileOutput) Name() string {
	return "file"
}

// WriteFrame encodes frame into a new file and returns its path
func (o *FileOutput) WriteFrame(name string, frame *screen.Image) (string, error) {
	path := o.Path
	cfg := o.config
	if path == "" {
		path = filepath.Join(o.Dir, o.fileName(name))
	} else {
		cfg.Format = FormatForPath(path, cfg.Format)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := cfg.Encode(w, frame); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	logger.WithComponent("output").Debug().
		Str("path", path).
		Int("width", frame.Width).
		Int("height", frame.Height).
		Msg("Frame written")
	return path, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fileName builds screengrab-<name>-<timestamp><ext>
func (o *FileOutput) fileName(name string) string {
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if name == "" {
		name = "capture"
	}
	stamp := o.now().Format("20060102-150405.000")
	return fmt.Sprintf("screengrab-%s-%s%s", name, stamp, o.config.Format.Ext())
}

// WriterOutput encodes frames to a single writer, such as stdout
type WriterOutput struct {
	config Config
	w      io.Writer
}

// NewWriterOutput creates a writer output
func NewWriterOutput(config Config, w io.Writer) *WriterOutput {
	return &WriterOutput{config: config, w: w}
}

// Name returns the output type
func (o *WriterOutput) Name() string {
	return "writer"
}

// WriteFrame encodes frame to the writer
func (o *WriterOutput) WriteFrame(name string, frame *screen.Image) (string, error) {
	if err := o.config.Encode(o.w, frame); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return "-", nil
}
