package config

import "github.com/servicekit/go-service-template/domain/interfaces"

// AppState carries the configuration and collaborators shared by request handlers
type AppState struct {
	Config         *Config
	TaskRepository interfaces.TaskRepository
	EventProducer  interfaces.EventProducer
}
