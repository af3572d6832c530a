// Package artifact keeps the files produced by a render (result JSON,
// diagram SVG, substituted template) under the render's event id.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/qforge/qforge/internal/engine"
)

// ErrNotFound is returned when an artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Store persists render artifacts.
type Store interface {
	Put(ctx context.Context, renderID, name string, content []byte) error
	Get(ctx context.Context, renderID, name string) ([]byte, error)
	List(ctx context.Context, renderID string) ([]string, error)
}

// Artifact names written by Archive.
const (
	ResultFile      = "result.json"
	DiagramFile     = "diagram.svg"
	SubstitutedFile = "substituted.yaml"
)

// Archive writes res under renderID. The diagram and substituted document
// are only written when present.
func Archive(ctx context.Context, s Store, renderID string, res *engine.Result) error {
	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	files := []struct {
		name    string
		content string
	}{
		{ResultFile, string(body)},
		{DiagramFile, res.Diagram.SVG},
		{SubstitutedFile, res.SubstitutedDocument},
	}
	for _, f := range files {
		if f.content == "" {
			continue
		}
		if err := s.Put(ctx, renderID, f.name, []byte(f.content)); err != nil {
			return fmt.Errorf("archive %s: %w", f.name, err)
		}
	}
	return nil
}

func checkKey(renderID, name string) (string, string, error) {
	renderID = strings.TrimSpace(renderID)
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if renderID == "" {
		return "", "", errors.New("render id is required")
	}
	if name == "" {
		return "", "", errors.New("artifact name is required")
	}
	return renderID, name, nil
}

func objectKey(renderID, name string) string {
	return renderID + "/" + name
}
