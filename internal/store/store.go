package store

import (
	"errors"

	"github.com/yourorg/apidecl/pkg/types"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

type Store interface {
	SaveInterface(itf *types.Interface) error
	GetInterface(id int64) (*types.Interface, error)
	ListInterfaces() ([]types.Interface, error)
	DeleteInterface(id int64) error

	SaveSnippet(sn *types.Snippet) error
	GetSnippet(id int64) (*types.Snippet, error)
	ListSnippets() ([]types.Snippet, error)

	Close() error
}
