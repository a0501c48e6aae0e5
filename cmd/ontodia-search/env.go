package main

import (
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/anhcx0209/ontodia-search/errors"
)

// loadEnvFile loads dotenv variables without overriding the environment.
// A missing file is only an error when the user named it explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errors.WrapInvalid(err, "cli", "loadEnvFile", "load "+path)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return defaultValue
}

// splitIDs accepts repeated or comma-separated identifiers.
func splitIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, part)
			}
		}
	}
	return ids
}
