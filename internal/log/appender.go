package log

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/mapstructure"
)

type MultiWriter struct {
	writers []io.Writer
}

func (m *MultiWriter) Write(p []byte) (n int, err error) {
	for _, w := range m.writers {
		_, e := w.Write(p)
		if e != nil {
			err = e
		}
	}
	return len(p), err
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.writers = append(m.writers, writer)
	return m
}

func (m *MultiWriter) Len() int {
	return len(m.writers)
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{writers: make([]io.Writer, 0)}
}

type ConsoleAppenderOpt struct {
	Target string `mapstructure:"target"` // stdout | stderr
}

// AddConsoleAppender writes to stderr unless target is stdout, keeping stdout
// free for decoded records.
func (m *MultiWriter) AddConsoleAppender(options ConsoleAppenderOpt) *MultiWriter {
	if options.Target == "stdout" {
		return m.Add(os.Stdout)
	}
	return m.Add(os.Stderr)
}

// buildWriter assembles the configured appenders. An empty list yields a
// console appender.
func buildWriter(appenders []AppenderConfig) (*MultiWriter, error) {
	w := NewMultiWriter()
	for _, a := range appenders {
		switch a.Type {
		case "console", "":
			var opt ConsoleAppenderOpt
			if err := mapstructure.Decode(a.Options, &opt); err != nil {
				return nil, fmt.Errorf("console appender options: %w", err)
			}
			w.AddConsoleAppender(opt)
		case "file":
			var opt FileAppenderOpt
			if err := mapstructure.WeakDecode(a.Options, &opt); err != nil {
				return nil, fmt.Errorf("file appender options: %w", err)
			}
			if opt.Filename == "" {
				return nil, fmt.Errorf("file appender requires 'filename' option")
			}
			w.AddFileAppender(opt)
		default:
			return nil, fmt.Errorf("unknown appender type: %s", a.Type)
		}
	}
	if w.Len() == 0 {
		w.AddConsoleAppender(ConsoleAppenderOpt{})
	}
	return w, nil
}
