package model

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	domsvc "StockPredictor/internal/domain/service"
	applogger "StockPredictor/pkg/logger"
)

// Options selects the scorer a Holder loads.
type Options struct {
	ArtifactPath string
	ServiceURL   string
	Timeout      time.Duration
}

// Holder loads a scorer once per process and hands the same instance to every caller.
type Holder struct {
	opts    Options
	columns []string
	logger  *applogger.Logger

	once   sync.Once
	scorer domsvc.Scorer
	err    error
}

// NewHolder creates a holder. columns are the pipeline's feature columns, used by
// the remote and fallback scorers.
func NewHolder(opts Options, columns []string, logger *applogger.Logger) *Holder {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &Holder{opts: opts, columns: columns, logger: logger}
}

// Get returns the scorer, loading it on first use. A load error is returned on every call.
func (h *Holder) Get() (domsvc.Scorer, error) {
	h.once.Do(h.load)
	return h.scorer, h.err
}

func (h *Holder) load() {
	if path := h.opts.ArtifactPath; path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			h.scorer, h.err = LoadArtifact(path)
			if h.err != nil {
				h.logger.Error("model artifact load failed", applogger.String("path", path), applogger.Error(h.err))
				h.scorer = nil
				return
			}
			h.logger.Info("model artifact loaded",
				applogger.String("path", path),
				applogger.String("model", h.scorer.Name()),
				applogger.Int("features", len(h.scorer.FeatureNames())),
			)
			return
		case !errors.Is(err, fs.ErrNotExist):
			h.logger.Warn("model artifact not readable", applogger.String("path", path), applogger.Error(err))
		}
	}

	if h.opts.ServiceURL != "" {
		h.scorer = NewRemoteScorer(h.opts.ServiceURL, h.opts.Timeout, h.columns)
		h.logger.Info("using remote model scorer", applogger.String("url", h.opts.ServiceURL))
		return
	}

	h.scorer = NewBaseline(h.columns)
	h.logger.Warn("no model artifact found, using baseline scorer", applogger.String("path", h.opts.ArtifactPath))
}
