package corrections

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatHDF5 Format = "hdf5"
	FormatROOT Format = "root"
)

// FormatFromFilename guesses the format from the file extension.
func FormatFromFilename(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".root":
		return FormatROOT
	default:
		return FormatHDF5
	}
}

func (f Format) extension() string {
	if f == FormatROOT {
		return ".root"
	}
	return ".h5"
}

// OutputFilename is FileOut, or <name>_Cor.<ext> next to the input file.
func (d DatasetConfig) OutputFilename() string {
	if d.FileOut != "" {
		return d.FileOut
	}
	return filepath.Join(filepath.Dir(d.FileIn), d.Name+"_Cor"+d.format().extension())
}

func (d DatasetConfig) format() Format {
	if d.Format != "" {
		return d.Format
	}
	return FormatFromFilename(d.FileIn)
}

// outputFormat follows the extension of FileOut, so that a ROOT input can be
// written as HDF5. Without FileOut the output has the input format.
func (d DatasetConfig) outputFormat() Format {
	if d.FileOut != "" {
		return FormatFromFilename(d.FileOut)
	}
	return d.format()
}

func OpenSource(format Format, filename string, group string) (RecordSource, error) {
	switch format {
	case FormatHDF5:
		return OpenHDF5Source(filename, group)
	case FormatROOT:
		return OpenROOTSource(filename, group)
	}
	return nil, fmt.Errorf("%w: unknown format %q", ErrSourceUnavailable, format)
}

func CreateSink(format Format, filename string, source RecordSource, mode Mode) (RecordSink, error) {
	switch format {
	case FormatHDF5:
		return CreateHDF5Sink(filename, sourceGroup(source), mode)
	case FormatROOT:
		rootSource, ok := source.(*ROOTSource)
		if !ok {
			return nil, fmt.Errorf("%w: ROOT output needs a ROOT input, got %T", ErrSinkUnavailable, source)
		}
		return CreateROOTSink(filename, rootSource, mode)
	}
	return nil, fmt.Errorf("%w: unknown format %q", ErrSinkUnavailable, format)
}

func sourceGroup(source RecordSource) string {
	switch s := source.(type) {
	case *HDF5Source:
		return s.Group
	case *ROOTSource:
		return s.TreeName
	}
	return "Events"
}

// CorrectDataset opens the input of a dataset, corrects it and writes the
// output file. If sink is not nil it is used instead of the output file.
// An output file whose run failed is closed and removed.
func CorrectDataset(ctx context.Context, dataset DatasetConfig, processor *Processor, sink RecordSink) (summary Summary, err error) {
	source, err := OpenSource(dataset.format(), dataset.FileIn, dataset.Tree)
	if err != nil {
		return summary, err
	}
	defer func() {
		if cerr := source.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("error closing %s: %w", dataset.FileIn, cerr))
		}
	}()

	if sink == nil {
		output := dataset.OutputFilename()
		sink, err = CreateSink(dataset.outputFormat(), output, source, processor.Config().Mode())
		if err != nil {
			return summary, err
		}
		fileSink := sink
		defer func() {
			if err != nil {
				err = errors.Join(err, discardOutput(fileSink, output))
			}
		}()
	}
	return processor.Run(ctx, source, sink)
}

// discardOutput releases the file handles of an output that was not
// finalized and deletes the file.
func discardOutput(sink RecordSink, filename string) error {
	logger.Info(fmt.Sprintf("Removing incomplete output %s", filename), "dataset")
	var errs []error
	if err := sink.Close(); err != nil && !errors.Is(err, errSinkClosed) {
		errs = append(errs, fmt.Errorf("error releasing %s: %w", filename, err))
	}
	if err := os.Remove(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
