package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"ebh/convert/html"
	"ebh/pack"
	"ebh/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite, env.KeepPackage = cmd.Bool("nodirs"), cmd.Bool("overwrite"), cmd.Bool("keep-package")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old converter output
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in packages", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the core conversion logic independently of CLI framework.
// It determines the input type (directory or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	}

	if fi.Mode().IsDir() {
		if err := processDir(ctx, src, dst, log); err != nil {
			return errors.New("unable to process directory")
		}
		return nil
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}

	book, err := isEbookFile(src)
	if err != nil {
		return fmt.Errorf("unable to check file type: %w", err)
	}
	if !book {
		return fmt.Errorf("input was not recognized as a supported ebook (%s)", src)
	}
	return processBook(ctx, src, filepath.Base(src), dst, log)
}

// processDir walks directory tree finding ebook files and processes them.
// A single failed book never stops the walk.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		book, err := isEbookFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !book {
			log.Debug("Skipping file, not recognized as an ebook", zap.String("file", path))
			return nil
		}

		count++

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processBook(ctx, path, src, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processBook converts a single ebook. "src" is the source path on disk,
// "rel" its path relative to the original source argument (just the base
// name when a file was specified directly), "dst" the destination
// directory.
func processBook(ctx context.Context, src, rel, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Conversion starting", zap.String("from", rel))
	defer func(start time.Time) {
		// NOTE: image decoding libraries are not always panic free and when
		// multiple books are being processed we do not want to stop.
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	// Bail out before the expensive external conversion when the final name
	// is already known and taken.
	if !env.Cfg.Document.TitleAsFileName {
		outputName = buildOutputPath(rel, dst, "", env)
		if err := checkOutputPath(outputName, env, log); err != nil {
			return err
		}
	}

	pkgPath, convLog, err := runConverter(ctx, src, env, log)
	if err != nil {
		return fmt.Errorf("unable to convert source (%s): %w", rel, err)
	}
	defer func() {
		if env.KeepPackage {
			log.Info("Keeping intermediate package", zap.String("file", pkgPath))
			return
		}
		os.Remove(pkgPath)
	}()
	// The package is removed once the book is done, report needs a copy.
	if err := env.Rpt.StorePackage(filepath.Base(rel), pkgPath); err != nil {
		log.Warn("Unable to store intermediate package in the report", zap.Error(err))
	}

	pkg, err := pack.Load(pkgPath, env.CodePage, log)
	if err != nil {
		return fmt.Errorf("unable to read converted package (%s): %w", rel, err)
	}

	outputName = buildOutputPath(rel, dst, pkg.Metadata.Title, env)
	if err := checkOutputPath(outputName, env, log); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	out, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	res, err := html.Generate(out, pkg, &env.Cfg.Document, convLog, log)
	if cerr := out.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(outputName)
		return fmt.Errorf("unable to generate output: %w", err)
	}
	if len(res.Warnings) > 0 {
		log.Info("Conversion produced warnings", zap.Int("count", len(res.Warnings)))
	}

	// Store conversion result for debugging
	env.Rpt.StoreResult(filepath.Base(outputName), outputName)

	return nil
}

// checkOutputPath implements overwrite protection. When overwriting is
// allowed the existing file is removed so a failed conversion never leaves
// a stale document behind.
func checkOutputPath(outputName string, env *state.LocalEnv, log *zap.Logger) error {
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s (use --overwrite)", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		return os.Remove(outputName)
	} else if !os.IsNotExist(err) {
		return err
	}
	return nil
}
