package cli

import (
	"fmt"
	"io"

	"github.com/crossbario/crossbar-shell/internal/render"
)

// OutputWriter writes command views. Without an explicit --output-format
// views are printed as text tables; otherwise they are serialized like
// shell results.
type OutputWriter struct {
	opts   render.Options
	text   bool
	writer io.Writer
}

// NewOutputWriter creates an OutputWriter for the current CLI settings.
func (cli *CLI) NewOutputWriter() *OutputWriter {
	opts := render.DefaultOptions()
	if cli.State != nil {
		opts = cli.State.Options()
	}
	explicit := cli.formatFlag != "" || (cli.Config != nil && cli.Config.Output.Format != "")
	return &OutputWriter{
		opts:   opts,
		text:   !explicit || opts.Format == render.FormatPlain,
		writer: cli.Stdout,
	}
}

// Write writes data according to the configured format.
// textFunc is called for text output, data is serialized otherwise.
func (o *OutputWriter) Write(data any, textFunc func(w io.Writer)) error {
	if o.text {
		textFunc(o.writer)
		return nil
	}

	out, err := render.Serialize(data, o.opts.Format, o.opts.Style)
	if err != nil {
		return err
	}
	fmt.Fprintln(o.writer, out)
	return nil
}

// IsText returns true if views are printed as text.
func (o *OutputWriter) IsText() bool {
	return o.text
}
