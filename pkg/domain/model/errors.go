package model

import "github.com/m-mizutani/goerr/v2"

// TagPermanent marks errors that retrying cannot fix, such as rejected input
// or a record that does not exist. Retry loops give up on them immediately.
var TagPermanent = goerr.NewTag("permanent")
