package model

// Fixed entity filter: published posts of the core "post" type.
const (
	PostType          = "post"
	PostStatusPublish = "publish"
)
