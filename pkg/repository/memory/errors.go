package memory

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = goerr.New("not found", goerr.T(model.TagPermanent))
