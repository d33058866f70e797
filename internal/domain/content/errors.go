package content

import "errors"

var (
	ErrEmptyPost   = errors.New("post text is empty")
	ErrPostTooLong = errors.New("post text exceeds the message limit")
)
