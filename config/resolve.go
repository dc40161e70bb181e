package config

import (
	"os"
	"path"
	"strings"

	"github.com/joho/godotenv"
)

// FileSystem abstracts the file operations the resolver needs.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem is the FileSystem backed by the OS.
type RealFileSystem struct{}

func (RealFileSystem) Exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// LoadEnv loads a .env file without overriding variables already set.
func (RealFileSystem) LoadEnv(p string) error {
	return godotenv.Load(p)
}

// Resolver locates the YAML and .env files for a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the files picked by a Resolver. Empty means none.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns the explicit paths from opts, searching standard
// locations for whichever is missing.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(configCandidates(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(envCandidates(serviceName))
	}
	return files
}

func (r *Resolver) first(candidates []string) string {
	for _, c := range candidates {
		if r.FileSystem.Exists(c) {
			return c
		}
	}
	return ""
}

// shortName drops a dash-separated prefix: "acme-checkout" -> "checkout".
func shortName(serviceName string) string {
	if idx := strings.LastIndex(serviceName, "-"); idx != -1 {
		return serviceName[idx+1:]
	}
	return serviceName
}

// configCandidates lists YAML files from most to least specific.
func configCandidates(serviceName string) []string {
	return []string{
		"./config/" + serviceName + ".yml",
		"./config/" + shortName(serviceName) + ".yml",
		"./" + serviceName + ".yml",
		"../config/" + serviceName + ".yml",
		"./config/config.yml",
		"../config/config.yml",
		"./config.yml",
	}
}

// envCandidates lists .env files: the service-specific name in every search
// directory first, then the plain .env.
func envCandidates(serviceName string) []string {
	dirs := envDirs(serviceName)
	if short := shortName(serviceName); short != serviceName {
		dirs = append(dirs, envDirs(short)...)
	}

	var out []string
	for _, name := range []string{".env." + serviceName, ".env"} {
		for _, dir := range dirs {
			if dir == "" {
				out = append(out, name)
				continue
			}
			out = append(out, dir+"/"+name)
		}
	}
	return out
}

// envDirs lists the directories searched for .env files. The empty string
// is the working directory.
func envDirs(serviceName string) []string {
	var dirs []string
	for _, sub := range []string{path.Join("config", serviceName), "config"} {
		dirs = append(dirs, "./"+sub, "../"+sub, "../../"+sub)
	}
	return append(dirs, "", "..", "../..")
}
