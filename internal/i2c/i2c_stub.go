//go:build !linux

package i2c

import "errors"

var errUnsupported = errors.New("i2c: unsupported OS (need linux)")

type Bus struct{}

type Dev struct{}

func Open(path string) (*Bus, error) { return nil, errUnsupported }

func (b *Bus) Close() error { return nil }

func (b *Bus) Dev(addr uint16) *Dev { return &Dev{} }

func (d *Dev) String() string { return "i2c(unsupported)" }

func (d *Dev) tx(w, r []byte) (int, error) { return 0, errUnsupported }
