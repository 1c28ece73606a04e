package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads the dotenv files that exist among envFiles into the process
// environment. Variables already set are not overridden. It returns the number of
// files loaded.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}
