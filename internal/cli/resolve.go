package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/bignyap/cloudvault/internal/value"
	"github.com/bignyap/cloudvault/internal/vaulterr"
)

// resolveStoreValue implements store's value-source precedence: an
// explicit --value wins, then --file, then stdin ("--file -" also reads
// stdin). Reading from stdin without an explicit key name is rejected by
// resolveKeyName below since there is no filename to derive one from.
func resolveStoreValue(c *cli.Context) (value.Value, error) {
	if v := c.String("value"); v != "" {
		return value.FromBase64OrUTF8(v), nil
	}
	if path := c.String("file"); path != "" && path != "-" {
		return value.FromPath(path)
	}
	return value.FromReader(os.Stdin)
}

// resolveKeyName returns the explicit positional name if given, or — for
// store only — derives it from the --file basename, with its extension
// removed, when no name was given. Stdin input with no name is an error:
// there is nothing to derive a name from.
func resolveKeyName(c *cli.Context) (string, error) {
	if name := c.Args().First(); name != "" {
		return name, nil
	}
	if path := c.String("file"); path != "" && path != "-" {
		return filenameFromPath(path), nil
	}
	return "", vaulterr.New(vaulterr.KindBuildIdentifier, "no name given and none could be derived from --file")
}

func filenameFromPath(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// writeValueOutput sends v to --outfile if set, otherwise to stdout.
func writeValueOutput(c *cli.Context, v value.Value) error {
	if out := c.String("outfile"); out != "" {
		return v.OutputToFile(out)
	}
	return v.OutputToStdout(c.App.Writer)
}

func printf(c *cli.Context, format string, args ...any) {
	if c.Bool("quiet") {
		return
	}
	fmt.Fprintf(c.App.Writer, format, args...)
}

func readBase64Arg(c *cli.Context) (string, error) {
	if v := c.Args().First(); v != "" {
		return v, nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", vaulterr.Wrap(vaulterr.KindStdinRead, "read stdin", err)
	}
	return string(b), nil
}
