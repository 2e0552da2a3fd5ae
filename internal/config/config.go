package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default values applied when no other configuration source supplies a field.
const (
	DefaultHost     = "localhost"
	DefaultUsername = "guest"
	DefaultPassword = "guest"
	DefaultPort     = 5672
	DefaultVHost    = "batam"
	DefaultQueue    = "batam"
	DefaultPublish  = "off"
)

// Environment variable names recognized by the connector.
const (
	EnvHost     = "BATAM_HOST"
	EnvUsername = "BATAM_USERNAME"
	EnvPassword = "BATAM_PASSWORD"
	EnvPort     = "BATAM_PORT"
	EnvVHost    = "BATAM_VHOST"
	EnvQueue    = "BATAM_QUEUE"
	EnvPublish  = "BATAM_PUBLISHER"
	EnvConfig   = "BATAM_CONFIG"
)

// Settings is the fully resolved broker configuration used for a connection
// attempt.
type Settings struct {
	Host     string
	Username string
	Password string
	Port     int
	VHost    string
	Queue    string

	// Publish reports whether messages go to the broker. When false the
	// connector prints envelopes to its output writer instead.
	Publish bool
}

// URL renders the settings as an AMQP connection URI.
func (s Settings) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", s.Username, s.Password, s.Host, s.Port, s.VHost)
}

// Overrides carries explicit call-time values. Nil fields mean "not supplied"
// and fall through to the next configuration source.
type Overrides struct {
	Host     *string
	Username *string
	Password *string
	Port     *int
	VHost    *string
	Queue    *string
	Publish  *string
}

// File mirrors the YAML config file layout:
//
//	host: rabbit.internal
//	username: batam
//	password: secret
//	port: 5672
//	vhost: batam
//	queue: batam
//	publisher: "on"
type File struct {
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Port     int    `yaml:"port"`
	VHost    string `yaml:"vhost"`
	Queue    string `yaml:"queue"`
	Publish  string `yaml:"publisher"`
}

// LoadFile reads and parses the YAML config file at path. A missing file is
// not an error: the connector then runs on env values and defaults alone.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return f, nil
}

// Resolve merges configuration sources field by field. Highest wins:
// explicit override > previously resolved value > environment variable >
// config file value > compiled default.
//
// The publish toggle is the exception: it never sticks to a previous resolve
// and is recomputed from override > environment > file > default each call.
func Resolve(prev *Settings, ov Overrides, file File) Settings {
	var s Settings

	s.Host = resolveString(ov.Host, prevString(prev, func(p Settings) string { return p.Host }), EnvHost, file.Host, DefaultHost)
	s.Username = resolveString(ov.Username, prevString(prev, func(p Settings) string { return p.Username }), EnvUsername, file.Username, DefaultUsername)
	s.Password = resolveString(ov.Password, prevString(prev, func(p Settings) string { return p.Password }), EnvPassword, file.Password, DefaultPassword)
	s.VHost = resolveString(ov.VHost, prevString(prev, func(p Settings) string { return p.VHost }), EnvVHost, file.VHost, DefaultVHost)
	s.Queue = resolveString(ov.Queue, prevString(prev, func(p Settings) string { return p.Queue }), EnvQueue, file.Queue, DefaultQueue)
	s.Port = resolvePort(ov.Port, prev, file.Port)

	s.Publish = publishEnabled(resolveString(ov.Publish, "", EnvPublish, file.Publish, DefaultPublish))

	return s
}

// publishEnabled recognizes "on" and "true"; anything else disables
// publishing.
func publishEnabled(v string) bool {
	return v == "on" || v == "true"
}

func prevString(prev *Settings, get func(Settings) string) string {
	if prev == nil {
		return ""
	}
	return get(*prev)
}

func resolveString(override *string, prev, envKey, fileVal, def string) string {
	if override != nil {
		return *override
	}
	if prev != "" {
		return prev
	}
	if v, ok := os.LookupEnv(envKey); ok && v != "" {
		return v
	}
	if fileVal != "" {
		return fileVal
	}
	return def
}

func resolvePort(override *int, prev *Settings, fileVal int) int {
	if override != nil {
		return *override
	}
	if prev != nil && prev.Port != 0 {
		return prev.Port
	}
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			return p
		}
	}
	if fileVal != 0 {
		return fileVal
	}
	return DefaultPort
}

// Path returns the config file location: BATAM_CONFIG when set, otherwise
// batam.yaml in the working directory.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return "batam.yaml"
}
