package store

import (
	"errors"
	"fmt"
)

var errClosed = errors.New("closed") // want "use errors.New from github.com/cockroachdb/errors instead of errors.New"

func open(path string) error {
	if path == "" {
		return fmt.Errorf("empty path") // want "use errors.Wrapf or errors.Newf from github.com/cockroachdb/errors instead of fmt.Errorf"
	}
	return errClosed
}

func describe(path string) string {
	return fmt.Sprintf("store at %s", path)
}
