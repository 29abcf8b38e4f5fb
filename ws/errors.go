package ws

import "errors"

var errNotServing = errors.New("ws: Send called outside an active Serve call")
