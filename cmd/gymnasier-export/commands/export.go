package commands

import (
	"context"
	"fmt"

	"gymnasier-export/internal/config"
	"gymnasier-export/internal/ednia"
	"gymnasier-export/internal/export"
	"gymnasier-export/internal/resrobot"
	"gymnasier-export/internal/sink"
	"gymnasier-export/internal/telemetry"
)

func newOutput(cfg config.Config) (telemetry.Output, error) {
	if cfg.Telemetry.DumpHttpDir == "" {
		return nil, nil
	}
	out, err := telemetry.NewFilesystemOutput(cfg.Telemetry.DumpHttpDir)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func newTransportClient(cfg config.Config, output telemetry.Output, tel telemetry.API) *resrobot.Client {
	return resrobot.NewClient(resrobot.Options{
		BaseUrl:   cfg.ResRobot.BaseUrl,
		AccessKey: cfg.ResRobot.AccessKey,
		Interval:  config.Seconds(cfg.ResRobot.DelaySeconds),
		Output:    output,
	}, tel)
}

// runExport fetches everything, writes the rows to cfg.Output and, when
// configured, the metrics of the run to cfg.Telemetry.MetricsFile.
func runExport(ctx context.Context, cfg config.Config, tel telemetry.API) (export.Result, error) {
	err := cfg.Validate()
	if err != nil {
		return export.Result{}, err
	}

	output, err := newOutput(cfg)
	if err != nil {
		return export.Result{}, fmt.Errorf("create http dump dir: %w", err)
	}

	tel.ReportProgress(fmt.Sprintf("Starting export with origin: %s", cfg.Origin))
	tel.ReportProgress(fmt.Sprintf("Output file: %s", cfg.Output))

	transport := newTransportClient(cfg, output, tel)
	schools := ednia.NewClient(ednia.Options{
		BaseUrl:  cfg.Ednia.BaseUrl,
		Interval: config.Seconds(cfg.Ednia.DelaySeconds),
		Output:   output,
	}, tel)

	exporter := export.NewExporter(transport, schools, export.Options{
		Origin:       cfg.Origin,
		Municipality: cfg.Ednia.Municipality,
		Take:         cfg.Ednia.Take,
		SchoolLimit:  cfg.SchoolLimit,
	}, tel)
	result, err := exporter.Run(ctx)
	if err != nil {
		return export.Result{}, err
	}

	tel.ReportProgress(fmt.Sprintf("[Phase 4] Writing %d rows to %s...", len(result.Rows), cfg.Output))
	err = sink.Write(ctx, cfg.Output, result.Rows)
	if err != nil {
		return export.Result{}, err
	}
	tel.ReportProgress(fmt.Sprintf(
		"Done! Exported %d study paths from %d schools.",
		len(result.Rows), len(result.Schools),
	))

	if cfg.Telemetry.MetricsFile != "" {
		err = telemetry.WriteMetricsFile(cfg.Telemetry.MetricsFile)
		if err != nil {
			tel.ReportWarning("metrics-file", err)
		}
	}

	return result, nil
}
