package app

import (
	"fmt"
	"log/slog"

	"github.com/soocke/hitlabel-go/config"
	"github.com/soocke/hitlabel-go/domain/dataset"
	"github.com/soocke/hitlabel-go/ui/theme"
)

// AppContainer assembles the shared services every stage draws from.
type AppContainer struct {
	Config  *config.Config
	Logger  *slog.Logger
	Repo    *dataset.FSRepository
	Palette theme.Palette
}

// BuildContainer constructs the shared components. It performs no I/O.
func BuildContainer(cfg *config.Config, logger *slog.Logger) (*AppContainer, error) {
	palette, err := theme.NewPalette(cfg.EnemyColor, cfg.AllyColor, cfg.BaseColor, cfg.TextColor)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	repo := dataset.NewFSRepository(dataset.Layout{
		Root:           cfg.SourceDir,
		ImageExt:       cfg.ImageExt,
		RecordExt:      cfg.RecordExt,
		TargetMarker:   cfg.TargetMarker,
		NoTargetMarker: cfg.NoTargetMarker,
	}, logger)
	return &AppContainer{Config: cfg, Logger: logger, Repo: repo, Palette: palette}, nil
}
