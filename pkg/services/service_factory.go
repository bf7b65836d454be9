package services

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/afero"
)

// ServiceFactory creates and holds the document service for a filesystem
type ServiceFactory struct {
	fs              afero.Fs
	logger          *slog.Logger
	options         []Option
	documentService DocumentService
	mu              sync.RWMutex
	initialized     bool
}

// NewServiceFactory creates a factory for fs. A nil fs means the OS filesystem.
func NewServiceFactory(fs afero.Fs, logger *slog.Logger, opts ...Option) *ServiceFactory {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ServiceFactory{fs: fs, logger: logger, options: opts}
}

// Initialize creates the services
func (sf *ServiceFactory) Initialize() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if sf.initialized {
		return nil
	}
	sf.documentService = NewDocumentService(sf.fs, sf.logger, sf.options...)
	sf.initialized = true
	return nil
}

// DocumentService returns the document service, initializing the factory if needed
func (sf *ServiceFactory) DocumentService() (DocumentService, error) {
	if err := sf.Initialize(); err != nil {
		return nil, err
	}
	sf.mu.RLock()
	defer sf.mu.RUnlock()

	if sf.documentService == nil {
		return nil, ErrServiceNotAvailable
	}
	return sf.documentService, nil
}

// Filesystem returns the filesystem the services operate on
func (sf *ServiceFactory) Filesystem() afero.Fs {
	return sf.fs
}

// Shutdown releases the services
func (sf *ServiceFactory) Shutdown() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	sf.documentService = nil
	sf.initialized = false
	return nil
}

// IsInitialized returns whether the factory has been initialized
func (sf *ServiceFactory) IsInitialized() bool {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return sf.initialized
}

// ErrServiceNotAvailable is returned when a service could not be created
var ErrServiceNotAvailable = fmt.Errorf("service not available")
