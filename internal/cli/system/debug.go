package system

import (
	"io"
	"strings"

	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/config"
	"github.com/julianstephens/shopline/internal/logger"
	"github.com/julianstephens/shopline/internal/storage"
)

type DebugCmd struct {
	Config DebugConfigCmd `cmd:"" help:"Show the effective configuration."`
	DBPath DebugDBPathCmd `cmd:"" name:"db-path" help:"Show the local database path."`
}

type effectiveConfig struct {
	File           string `json:"file" yaml:"file"`
	Backend        string `json:"backend" yaml:"backend"`
	BackendKind    string `json:"backend_kind" yaml:"backend_kind"`
	Timezone       string `json:"timezone" yaml:"timezone"`
	Locale         string `json:"locale" yaml:"locale"`
	WeekStart      string `json:"week_start" yaml:"week_start"`
	DefaultView    string `json:"default_view" yaml:"default_view"`
	GroupBy        string `json:"group_by" yaml:"group_by"`
	ColorMode      string `json:"color_mode" yaml:"color_mode"`
	RequestTimeout string `json:"request_timeout" yaml:"request_timeout"`
	Debug          bool   `json:"debug" yaml:"debug"`
	LogFile        string `json:"log_file" yaml:"log_file"`
}

// redact hides a PostgreSQL password should one reach the config
func redact(cfg *config.Config) string {
	if cfg.BackendKind() == config.BackendPostgres && storage.HasEmbeddedCredentials(cfg.Backend) {
		return maskPassword(cfg.Backend)
	}
	return cfg.Backend
}

type DebugConfigCmd struct{}

func (cmd *DebugConfigCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	out := effectiveConfig{
		File:           cfg.Path,
		Backend:        redact(cfg),
		BackendKind:    string(cfg.BackendKind()),
		Timezone:       cfg.Timezone,
		Locale:         ctx.Locale.Tag.String(),
		WeekStart:      ctx.Locale.Weekday(ctx.Locale.WeekStart),
		DefaultView:    string(cfg.Granularity()),
		GroupBy:        string(cfg.Group()),
		ColorMode:      string(cfg.Color()),
		RequestTimeout: cfg.RequestTimeout.String(),
		Debug:          cfg.Debug,
		LogFile:        logger.File(),
	}
	if out.File == "" {
		out.File = "(defaults)"
	}
	// the table format falls back to YAML, which reads well enough
	if ctx.Output == cli.FormatTable {
		ctx.Output = cli.FormatYAML
	}
	return ctx.Emit(out, nil)
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	if ctx.Config.BackendKind() != config.BackendSQLite {
		return cli.ErrNotLocal
	}
	path := ctx.Config.Backend
	return ctx.Emit(map[string]string{"path": path}, func(w io.Writer) error {
		_, err := io.WriteString(w, strings.TrimSpace(path)+"\n")
		return err
	})
}
