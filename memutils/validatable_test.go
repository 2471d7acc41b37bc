package memutils_test

import "github.com/cockroachdb/errors"

type failingValidatable struct{}

func (failingValidatable) Validate() error { return errors.New("broken") }
