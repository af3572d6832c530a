package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/qforge/qforge/internal/artifact"
	"github.com/qforge/qforge/internal/engine"
	"github.com/qforge/qforge/internal/service"
	"github.com/qforge/qforge/internal/store"
)

// openStore opens the configured database.
func openStore() (*store.Store, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// newService builds the render service. With persist set it opens the
// store and, when configured, the artifact bucket; the returned func
// releases them.
func newService(persist bool) (*service.Service, func(), error) {
	eng, err := engine.New(cfg.Engine)
	if err != nil {
		return nil, nil, err
	}
	svc := &service.Service{Engine: eng, Log: logger}
	if !persist {
		return svc, func() {}, nil
	}

	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	templates, err := store.NewCachedTemplates(st.TemplateRepo(), cfg.CacheSize)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	svc.Templates = templates
	svc.Events = st.EventRepo()

	if cfg.Artifact.Enabled() {
		arts, err := artifact.NewS3Store(cfg.Artifact.S3Config)
		if err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("artifact store: %w", err)
		}
		svc.Artifacts = arts
	}
	return svc, func() { st.Close() }, nil
}

// readSource reads a template from path, or stdin when path is "-".
func readSource(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

// fileLoader returns a loader that rereads path on every call.
func fileLoader(path string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		return readSource(path)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
