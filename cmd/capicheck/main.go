// Package main provides the capicheck CLI tool.
//
// capicheck lists the C API symbols that pyinterpret.cpp resolves with
// GetProcAddress but that the given DLL does not export.
//
// Usage:
//
//	capicheck [-v] [-no-color] <DLL路径>
//
// Paths starting with "-" must follow a "--" terminator.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ZacharyZcR/capicheck/internal/capi"
	"github.com/ZacharyZcR/capicheck/internal/cli"
	"github.com/ZacharyZcR/capicheck/internal/pe"
)

// checker holds everything a single run touches.
type checker struct {
	fs        afero.Fs
	companion string
	stdout    io.Writer
	log       *logrus.Logger
}

func main() {
	c := &checker{
		fs:        afero.NewOsFs(),
		companion: companionPath(),
		stdout:    os.Stdout,
		log:       newLogger(os.Stderr),
	}

	if err := c.run(os.Args[1:]); err != nil {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprint(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}

func newLogger(out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(logrus.WarnLevel)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log
}

// companionPath returns pyinterpret.cpp next to the executable.
func companionPath() string {
	exe, err := os.Executable()
	if err != nil {
		return capi.CompanionFile
	}
	return filepath.Join(filepath.Dir(exe), capi.CompanionFile)
}

func (c *checker) run(args []string) error {
	reporter := cli.NewReporter(c.stdout)

	flags := flag.NewFlagSet("capicheck", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	verbose := flags.Bool("v", false, "详细模式：在stderr输出诊断信息")
	noColor := flags.Bool("no-color", false, "禁用彩色输出")

	if err := flags.Parse(args); err != nil {
		reporter.PrintUsageError()
		return nil
	}
	if *noColor {
		color.NoColor = true
	}
	if *verbose {
		c.log.SetLevel(logrus.DebugLevel)
	}

	if flags.NArg() != 1 || !c.isFile(flags.Arg(0)) {
		reporter.PrintUsageError()
		return nil
	}
	path := flags.Arg(0)

	info, err := c.analyze(path)
	if err != nil {
		return err
	}
	if !info.DLL {
		reporter.PrintNotDLL(path)
		return nil
	}

	referenced, err := capi.NewScanner(c.fs).ScanFile(c.companion)
	if err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"file":       c.companion,
		"referenced": len(referenced),
	}).Debug("扫描GetProcAddress调用")

	missing := capi.Missing(referenced, info.Exports)
	c.log.WithField("missing", len(missing)).Debug("比较完成")

	reporter.PrintMissing(path, missing)
	return nil
}

// isFile reports whether path names an existing regular file.
func (c *checker) isFile(path string) bool {
	stat, err := c.fs.Stat(path)
	if err != nil {
		return false
	}
	return stat.Mode().IsRegular()
}

func (c *checker) analyze(path string) (*pe.Info, error) {
	reader, err := pe.Open(c.fs, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	info, err := pe.NewAnalyzer(reader).Analyze()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.log.WithFields(logrus.Fields{
		"file":    info.FilePath,
		"size":    humanize.IBytes(uint64(info.FileSize)),
		"arch":    info.Architecture,
		"dll":     info.DLL,
		"exports": len(info.Exports),
	}).Debug("已加载PE文件")

	return info, nil
}
