package handler

import (
	"quickdrop/internal/app/chat"
	"quickdrop/internal/app/storage"
	"quickdrop/internal/configs"
)

// AppDeps bundles the shared dependencies handlers need.
type AppDeps struct {
	Hub    *chat.Hub
	Config *configs.AppConfig
	Store  storage.BlobStore
}
