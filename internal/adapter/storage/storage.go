// Package storage abstracts the artifact store the pipeline writes its
// outputs to (parquet exports, rendered maps, reports). Backends register
// themselves via RegisterFactory; the local and gcs subpackages are wired
// in through blank imports in main.
package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	appconfig "github.com/marina21-cs/weteweta.github.io/internal/config"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const moduleName = "storage"

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	// Type is the storage backend ("local", "gcs").
	Type string `yaml:"type"`
	// BucketName is the bucket for object store backends.
	BucketName string `yaml:"bucket_name"`
	// CredentialsFile is the path to a service account key, if any.
	CredentialsFile string `yaml:"credentials_file"`
	// BaseDir is the base directory for local file system backends.
	BaseDir string `yaml:"base_dir"`
}

// Connection represents one artifact store connection.
type Connection interface {
	// Type returns the backend type (e.g., "local", "gcs").
	Type() string
	// Name returns the connection name (e.g., "artifacts").
	Name() string
	// Close releases resources held by the connection.
	Close() error

	// Upload writes data to the given object name. contentType is the MIME
	// type of the data.
	Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error
	// Download opens the given object for reading. The returned ReadCloser
	// must be closed by the caller.
	Download(ctx context.Context, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for each object name under the given prefix.
	ListObjects(ctx context.Context, prefix string, fn func(objectName string) error) error
	// DeleteObject deletes the given object.
	DeleteObject(ctx context.Context, objectName string) error
}

// Factory builds a Connection from its configuration.
type Factory func(cfg StorageConfig, name string) (Connection, error)

var (
	factoryRegistry = make(map[string]Factory)
	factoryMutex    sync.RWMutex
)

// RegisterFactory registers a Factory for the given storage type.
func RegisterFactory(storageType string, factory Factory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	if _, exists := factoryRegistry[storageType]; exists {
		logger.Warnf("Storage factory for type '%s' already registered. Overwriting.", storageType)
	}
	factoryRegistry[storageType] = factory
}

// GetFactory retrieves the Factory for the given storage type.
func GetFactory(storageType string) (Factory, error) {
	factoryMutex.RLock()
	defer factoryMutex.RUnlock()
	factory, ok := factoryRegistry[storageType]
	if !ok {
		return nil, fmt.Errorf("no storage factory registered for type: %s", storageType)
	}
	return factory, nil
}

// Provider opens and caches named storage connections declared under the
// "storage" configuration key.
type Provider struct {
	cfg *appconfig.Config

	mu          sync.Mutex
	connections map[string]Connection
}

// NewProvider creates a new Provider over the application configuration.
func NewProvider(cfg *appconfig.Config) *Provider {
	return &Provider{
		cfg:         cfg,
		connections: make(map[string]Connection),
	}
}

// GetConnection retrieves an existing connection or establishes a new one.
func (p *Provider) GetConnection(name string) (Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.connections[name]; ok {
		return conn, nil
	}

	rawConfig, ok := p.cfg.Weteweta.StorageConfigs[name]
	if !ok {
		return nil, exception.Newf(moduleName, "storage configuration '%s' not found", name)
	}
	rawMap, ok := rawConfig.(map[string]interface{})
	if !ok {
		return nil, exception.Newf(moduleName, "storage configuration '%s' is not a map", name)
	}

	var storageCfg StorageConfig
	if err := appconfig.BindProperties(rawMap, &storageCfg); err != nil {
		return nil, exception.New(moduleName, fmt.Sprintf("failed to decode storage config for '%s'", name), err, false)
	}

	factory, err := GetFactory(storageCfg.Type)
	if err != nil {
		return nil, exception.New(moduleName, "failed to resolve storage factory", err, false)
	}
	conn, err := factory(storageCfg, name)
	if err != nil {
		return nil, exception.New(moduleName, fmt.Sprintf("failed to open storage connection '%s'", name), err, false)
	}

	p.connections[name] = conn
	logger.Infof("Established new storage connection: %s (%s)", name, storageCfg.Type)

	return conn, nil
}

// CloseAll closes every connection opened by this provider.
func (p *Provider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close storage connection '%s': %w", name, err)
		}
		delete(p.connections, name)
	}
	return firstErr
}
