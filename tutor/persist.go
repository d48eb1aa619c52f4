package tutor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/richinex/tutorgen/model"
)

const (
	// StemLength is the number of leading question characters used as file name.
	StemLength = 6
	// Extension is appended to the stem.
	Extension = ".qmd"

	// PythonFence opens a plain markdown python block.
	PythonFence = "```python"
	// QuartoPythonFence opens an executable Quarto python cell.
	QuartoPythonFence = "```{python}"
)

var (
	// ErrEmptyHistory is returned when there is no turn to save.
	ErrEmptyHistory = errors.New("nothing to save: conversation history is empty")
	// ErrEmptyAnswer is returned when the last turn has no answer text.
	ErrEmptyAnswer = errors.New("nothing to save: last answer is empty")
	// ErrInvalidStem is returned when the question cannot name a file in the output directory.
	ErrInvalidStem = errors.New("question does not yield a usable file name")
)

// Persister writes answers as .qmd documents named after their question.
type Persister struct {
	dir string
}

// NewPersister creates a persister writing into dir. Empty dir means the
// current working directory.
func NewPersister(dir string) *Persister {
	if dir == "" {
		dir = "."
	}
	return &Persister{dir: dir}
}

// Dir returns the output directory.
func (p *Persister) Dir() string {
	return p.dir
}

// Persist writes the answer of the most recent turn to <dir>/<stem>.qmd,
// overwriting any existing file, and returns a confirmation naming the file.
func (p *Persister) Persist(history model.History) (string, error) {
	turn, ok := history.Last()
	if !ok {
		return "", ErrEmptyHistory
	}
	if turn.Answer == "" {
		return "", ErrEmptyAnswer
	}

	stem := Stem(turn.Question)
	if err := validateStem(stem); err != nil {
		return "", err
	}

	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := stem + Extension
	if err := os.WriteFile(p.Path(stem), []byte(FixFences(turn.Answer)), 0644); err != nil {
		return "", fmt.Errorf("failed to save response: %w", err)
	}

	return fmt.Sprintf("response saved to %s", name), nil
}

// Path returns the file path a stem is written to.
func (p *Persister) Path(stem string) string {
	return filepath.Join(p.dir, stem+Extension)
}

// Stem returns the first StemLength characters of question, or all of it
// when shorter. No padding, no trimming.
func Stem(question string) string {
	runes := []rune(question)
	if len(runes) <= StemLength {
		return question
	}
	return string(runes[:StemLength])
}

// FixFences rewrites every python code fence opener to the Quarto cell
// spelling. Plain substring replacement; fences are not parsed.
func FixFences(text string) string {
	return strings.ReplaceAll(text, PythonFence, QuartoPythonFence)
}

func validateStem(stem string) error {
	switch {
	case stem == "", stem == ".", stem == "..":
		return fmt.Errorf("%w: %q", ErrInvalidStem, stem)
	case strings.ContainsAny(stem, `/\`), strings.ContainsRune(stem, 0):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidStem, stem)
	}
	return nil
}
