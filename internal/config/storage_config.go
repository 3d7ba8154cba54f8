package config

type StorageConfig interface {
	GetDataFolder() string
	GetUserDatabasePath() string
}

type Storage struct {
	file *FileSettings
}

var _ StorageConfig = Storage{}

func (s Storage) GetDataFolder() string {
	return lookup("FOLDER", s.file.Storage.DataFolder, "./data")
}

// GetUserDatabasePath returns the SQLite file holding user records. Empty means
// users live in memory for the lifetime of the process.
func (s Storage) GetUserDatabasePath() string {
	return lookup("USER_DATABASE", s.file.Storage.UserDatabase, "")
}
