package main

import (
	"context"
	"errors"
	"strings"

	"github.com/fieldtrace/trackstats/internal/util"
)

var errUsage = errors.New("bad usage")

func dispatch(ctx context.Context, args []string) error {
	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "analyze":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		return analyze(ctx, rest[0], optionalArg(rest, 1))
	case "bands":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		return speedBands(ctx, rest[0], optionalArg(rest, 1))
	case "batch":
		if len(rest) == 0 {
			return errUsage
		}
		return batch(ctx, rest)
	case "concat":
		if len(rest) < 2 {
			return errUsage
		}
		return concat(ctx, rest[0], rest[1:])
	default:
		return errUsage
	}
}

func optionalArg(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	return util.TrimQuotes(args[i])
}

func analyze(ctx context.Context, path, segment string) error {
	p, err := newPipeline(ctx, true)
	if err != nil {
		return err
	}
	res, err := p.Analyze(ctx, path, segment)
	for _, f := range res.Files {
		Logger.Info("Output written", "path", f)
	}
	return err
}

func speedBands(ctx context.Context, dir, segment string) error {
	p, err := newPipeline(ctx, false)
	if err != nil {
		return err
	}
	_, path, err := p.Bands(ctx, dir, segment)
	if err != nil {
		return err
	}
	Logger.Info("Speed bands saved", "path", path)
	return nil
}

func batch(ctx context.Context, paths []string) error {
	p, err := newPipeline(ctx, true)
	if err != nil {
		return err
	}
	res, err := p.Batch(ctx, paths)
	for path, segErr := range res.Failed {
		Logger.Warn("Segment not analysed", "path", path, "error", segErr)
	}
	if res.BandsPath != "" {
		Logger.Info("Concatenated speed bands saved", "path", res.BandsPath)
	}
	return err
}

func concat(ctx context.Context, out string, dirs []string) error {
	p, err := newPipeline(ctx, false)
	if err != nil {
		return err
	}
	path, err := p.Concat(dirs, out)
	if err != nil {
		return err
	}
	Logger.Info("Concatenated speed bands saved", "path", path)
	return nil
}
