package config

// ManagerInterface is the load/save contract the CLI depends on
type ManagerInterface interface {
	Load() (*Config, error)
	Save(*Config) error
	Path() string
}

// Ensure Manager implements ManagerInterface
var _ ManagerInterface = (*Manager)(nil)
