package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/amishk599/resumeforge/internal/model"
)

var _ model.TextGenerator = (*FileProvider)(nil)

// FileProvider replays a previously saved raw response instead of calling a
// model. The prompt is ignored.
type FileProvider struct {
	path string
}

// NewFileProvider returns a FileProvider reading from path on every call.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Complete returns the file contents.
func (p *FileProvider) Complete(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", fmt.Errorf("read saved response: %w", err)
	}
	return string(data), nil
}
