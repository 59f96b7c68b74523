//go:build !linux

package scsi

import "github.com/pkg/errors"

// SGOpener is unavailable off Linux; identity falls back to the host
// inventory.
type SGOpener struct{}

func (SGOpener) Open(path string) (Device, error) {
	return nil, errors.Errorf("scsi pass-through not supported for %s", path)
}
