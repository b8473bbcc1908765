package config

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/prettymuchbryce/batchmove/internal/fs"
	"github.com/prettymuchbryce/batchmove/internal/notify"
	"github.com/prettymuchbryce/batchmove/internal/pathutil"
	"github.com/prettymuchbryce/batchmove/internal/sink"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrMissingEnv is returned when an ENV: value names an unset variable.
	ErrMissingEnv = errors.New("environment variable not set")
)

// EnvPrefix marks a string value that is read from the environment.
const EnvPrefix = "ENV:"

// DefaultTimestampFormat is the strftime layout that starts log file names.
const DefaultTimestampFormat = "%Y_%m_%d_%H%M%S (%a)"

// Config represents the top-level configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source" json:"source"`
	Destination DestinationConfig `yaml:"destination" json:"destination"`
	Settings    SettingsConfig    `yaml:"settings" json:"settings"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// SourceConfig selects the files a batch processes.
type SourceConfig struct {
	Folder       string `yaml:"folder" json:"folder"`
	MatchPattern string `yaml:"matchPattern" json:"matchPattern"`
}

// DestinationConfig controls where and under which name files land.
type DestinationConfig struct {
	Folder         string `yaml:"folder" json:"folder"`
	YearFolder     bool   `yaml:"yearFolder" json:"yearFolder"`
	FileNamePrefix string `yaml:"fileNamePrefix" json:"fileNamePrefix"`
	FileExtension  string `yaml:"fileExtension" json:"fileExtension"`
	OnConflict     string `yaml:"onConflict" json:"onConflict"`
}

// SettingsConfig holds the reporting configuration.
type SettingsConfig struct {
	ScriptName     string             `yaml:"scriptName" json:"scriptName"`
	SaveLogFiles   SaveLogFilesConfig `yaml:"saveLogFiles" json:"saveLogFiles"`
	SaveInEventLog EventLogConfig     `yaml:"saveInEventLog" json:"saveInEventLog"`
	SendMail       SendMailConfig     `yaml:"sendMail" json:"sendMail"`
}

type SaveLogFilesConfig struct {
	Where               LogWhereConfig `yaml:"where" json:"where"`
	What                LogWhatConfig  `yaml:"what" json:"what"`
	DeleteLogsAfterDays int            `yaml:"deleteLogsAfterDays" json:"deleteLogsAfterDays"`
	DeleteLogsRecursive bool           `yaml:"deleteLogsRecursive" json:"deleteLogsRecursive"`
}

type LogWhereConfig struct {
	Folder          string   `yaml:"folder" json:"folder"`
	FileExtensions  []string `yaml:"fileExtensions" json:"fileExtensions"`
	Append          bool     `yaml:"append" json:"append"`
	TimestampFormat string   `yaml:"timestampFormat" json:"timestampFormat"`
}

type LogWhatConfig struct {
	SystemErrors     bool `yaml:"systemErrors" json:"systemErrors"`
	AllActions       bool `yaml:"allActions" json:"allActions"`
	OnlyActionErrors bool `yaml:"onlyActionErrors" json:"onlyActionErrors"`
}

// Any reports whether at least one log file kind is enabled.
func (w LogWhatConfig) Any() bool {
	return w.SystemErrors || w.AllActions || w.OnlyActionErrors
}

type EventLogConfig struct {
	Save    bool   `yaml:"save" json:"save"`
	LogName string `yaml:"logName" json:"logName"`
}

type SendMailConfig struct {
	When                string     `yaml:"when" json:"when"`
	From                string     `yaml:"from" json:"from"`
	FromDisplayName     string     `yaml:"fromDisplayName" json:"fromDisplayName"`
	To                  []string   `yaml:"to" json:"to"`
	Bcc                 []string   `yaml:"bcc" json:"bcc"`
	Subject             string     `yaml:"subject" json:"subject"`
	Body                string     `yaml:"body" json:"body"`
	MaxAttachmentSizeMB int        `yaml:"maxAttachmentSizeMB" json:"maxAttachmentSizeMB"`
	Attachments         []string   `yaml:"attachments" json:"attachments"`
	SMTP                SMTPConfig `yaml:"smtp" json:"smtp"`

	// AssemblyPath is accepted so existing configuration files load; the
	// mail transport does not need it.
	AssemblyPath map[string]any `yaml:"assemblyPath" json:"assemblyPath"`
}

type SMTPConfig struct {
	ServerName     string `yaml:"serverName" json:"serverName"`
	Port           int    `yaml:"port" json:"port"`
	ConnectionType string `yaml:"connectionType" json:"connectionType"`
	UserName       string `yaml:"userName" json:"userName"`
	Password       string `yaml:"password" json:"password"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	// File, when set, receives a JSON copy of the run log.
	File string `yaml:"file" json:"file"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Source: SourceConfig{MatchPattern: "*"},
		Settings: SettingsConfig{
			SaveLogFiles: SaveLogFilesConfig{
				Where: LogWhereConfig{TimestampFormat: DefaultTimestampFormat},
			},
			SendMail: SendMailConfig{
				When:                string(notify.Never),
				MaxAttachmentSizeMB: 20,
			},
		},
		Logging: DefaultLoggingConfig(),
	}
}

// DefaultLoggingConfig returns the default logging configuration.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level: "info",
	}
}

// Load reads and parses a configuration file using the real filesystem.
func Load(path string) (*Config, error) {
	return LoadWithFs(path, afero.NewOsFs())
}

// LoadWithFs reads and parses a configuration file using the provided filesystem.
// A .json file is decoded as JSON, anything else as YAML. The result is not
// validated and ENV: values are not resolved yet.
func LoadWithFs(path string, afs afero.Fs) (*Config, error) {
	expanded := pathutil.ExpandPath(path)

	data, err := afero.ReadFile(afs, expanded)
	if err != nil {
		return nil, err
	}

	config := Default()

	if strings.EqualFold(filepath.Ext(expanded), ".json") {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Errorf("failed to parse %s: %w", expanded, err)
	}

	return config, nil
}

// ResolveEnv returns raw unchanged unless it starts with "ENV:", in which
// case the named variable is looked up. A missing variable is an error.
func ResolveEnv(raw string, lookup func(string) (string, bool)) (string, error) {
	if !strings.HasPrefix(raw, EnvPrefix) {
		return raw, nil
	}
	name := strings.TrimSpace(strings.TrimPrefix(raw, EnvPrefix))
	value, ok := lookup(name)
	if !ok {
		return "", errors.Errorf("%w: %s", ErrMissingEnv, name)
	}
	return value, nil
}

// ResolveEnvValues replaces every ENV: string in c and expands %NAME% and a
// leading ~ in folder paths.
func (c *Config) ResolveEnvValues(lookup func(string) (string, bool)) error {
	strs := []*string{
		&c.Source.Folder,
		&c.Destination.Folder,
		&c.Settings.SaveLogFiles.Where.Folder,
		&c.Settings.ScriptName,
		&c.Settings.SaveInEventLog.LogName,
		&c.Settings.SendMail.From,
		&c.Settings.SendMail.FromDisplayName,
		&c.Settings.SendMail.Subject,
		&c.Settings.SendMail.Body,
		&c.Settings.SendMail.SMTP.ServerName,
		&c.Settings.SendMail.SMTP.ConnectionType,
		&c.Settings.SendMail.SMTP.UserName,
		&c.Settings.SendMail.SMTP.Password,
		&c.Logging.File,
	}
	for _, list := range [][]string{c.Settings.SendMail.To, c.Settings.SendMail.Bcc, c.Settings.SendMail.Attachments} {
		for i := range list {
			strs = append(strs, &list[i])
		}
	}

	for _, s := range strs {
		v, err := ResolveEnv(*s, lookup)
		if err != nil {
			return err
		}
		*s = v
	}

	for _, p := range []*string{&c.Source.Folder, &c.Destination.Folder, &c.Settings.SaveLogFiles.Where.Folder, &c.Logging.File} {
		*p = pathutil.ExpandPath(*p)
	}
	for i, a := range c.Settings.SendMail.Attachments {
		c.Settings.SendMail.Attachments[i] = pathutil.ExpandPath(a)
	}
	return nil
}

// Validate checks the configuration and returns the first problem found.
// Mail recipients are checked by the notifier when a mail is due, so a bad
// recipient list fails only the mail stage.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}

	if c.Source.Folder == "" {
		return invalid("source.folder is required")
	}
	if c.Destination.Folder == "" {
		return invalid("destination.folder is required")
	}
	if c.Source.MatchPattern != "" && !doublestar.ValidatePattern(c.Source.MatchPattern) {
		return invalid("source.matchPattern %q is not a valid pattern", c.Source.MatchPattern)
	}
	if !fs.ConflictMode(c.Destination.OnConflict).Valid() {
		return invalid("destination.onConflict %q must be one of overwrite, rename_with_suffix, fail", c.Destination.OnConflict)
	}
	if strings.TrimSpace(c.Settings.ScriptName) == "" {
		return invalid("settings.scriptName is required")
	}

	logs := c.Settings.SaveLogFiles
	if logs.What.Any() {
		if logs.Where.Folder == "" {
			return invalid("settings.saveLogFiles.where.folder is required when log files are saved")
		}
		formats := sink.NormalizeFormats(logs.Where.FileExtensions)
		if len(formats) == 0 {
			return invalid("settings.saveLogFiles.where.fileExtensions needs at least one format")
		}
		for _, f := range formats {
			if !sink.Supported(f) {
				return invalid("settings.saveLogFiles.where.fileExtensions: %q is not one of %v", f, sink.SupportedFormats())
			}
		}
	}

	if c.Settings.SaveInEventLog.Save && strings.TrimSpace(c.Settings.SaveInEventLog.LogName) == "" {
		return invalid("settings.saveInEventLog.logName is required when saving to the event log")
	}

	mail := c.Settings.SendMail
	mode, err := notify.ParseMode(mail.When)
	if err != nil {
		return invalid("settings.sendMail.when: %v", err)
	}
	if mail.MaxAttachmentSizeMB < 0 {
		return invalid("settings.sendMail.maxAttachmentSizeMB must not be negative")
	}
	if mode == notify.Never {
		return nil
	}
	if !notify.ValidAddress(mail.From) {
		return invalid("settings.sendMail.from %q is not a valid address", mail.From)
	}
	if mail.SMTP.ServerName == "" {
		return invalid("settings.sendMail.smtp.serverName is required")
	}
	if !notify.ConnectionType(mail.SMTP.ConnectionType).Valid() {
		return invalid("settings.sendMail.smtp.connectionType %q is not supported", mail.SMTP.ConnectionType)
	}
	return nil
}
