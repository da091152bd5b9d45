package commands

import (
	"errors"
	"os"

	"go.trai.ch/zerr"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/codec"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/lockfile"
)

// load reads the lockfile at path. A lockfile the codecs reject as fatally
// malformed is reported as ErrCorruptLockfile.
func (c *CLI) load(path string) (*lockfile.Lockfile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to read lockfile"), "path", path)
	}
	lf, err := c.parse(data)
	if err != nil {
		var fatal *codec.FatalError
		if errors.As(err, &fatal) {
			return nil, nil, zerr.With(errors.Join(ErrCorruptLockfile, err), "path", path)
		}
		return nil, nil, zerr.With(zerr.Wrap(err, "invalid lockfile"), "path", path)
	}
	c.logger.Debug("loaded lockfile", "path", path, "modules", lf.ModuleCount())
	return lf, data, nil
}

func (c *CLI) parse(data []byte) (lf *lockfile.Lockfile, err error) {
	defer codec.Recover(&err)
	return lockfile.Parse(data, c.factory, lockfile.WithLogger(c.logger))
}
