package batch

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/prettymuchbryce/batchmove/internal/config"
	"github.com/prettymuchbryce/batchmove/internal/eventlog"
	"github.com/prettymuchbryce/batchmove/internal/fs"
	"github.com/prettymuchbryce/batchmove/internal/notify"
	"github.com/prettymuchbryce/batchmove/internal/rename"
	"github.com/prettymuchbryce/batchmove/internal/report"
	"github.com/prettymuchbryce/batchmove/internal/retention"
	"github.com/prettymuchbryce/batchmove/internal/sink"
	"github.com/prettymuchbryce/batchmove/internal/utils"
)

// LogOptions selects which log files are written and where.
type LogOptions struct {
	Folder          string
	Formats         []string
	Append          bool
	TimestampFormat string

	SystemErrors     bool
	AllActions       bool
	OnlyActionErrors bool

	DeleteAfterDays int
	DeleteRecursive bool
}

func (o LogOptions) enabled() bool {
	return o.Folder != "" && len(o.Formats) > 0
}

// Options configures a Runner.
type Options struct {
	ScriptName        string
	SourceFolder      string
	MatchPattern      string
	DestinationFolder string
	Renamer           rename.Renamer
	OnConflict        fs.ConflictMode

	Logs LogOptions

	EventLog     bool
	EventLogName string

	// DryRun skips event publishing and mail; the filesystem is expected to
	// be a dry-run one.
	DryRun bool
}

// OptionsFromConfig maps a validated configuration onto Options.
func OptionsFromConfig(c *config.Config, dryRun bool) Options {
	logs := c.Settings.SaveLogFiles
	return Options{
		ScriptName:        c.Settings.ScriptName,
		SourceFolder:      c.Source.Folder,
		MatchPattern:      c.Source.MatchPattern,
		DestinationFolder: c.Destination.Folder,
		Renamer: rename.Renamer{
			Prefix:     c.Destination.FileNamePrefix,
			Extension:  c.Destination.FileExtension,
			YearFolder: c.Destination.YearFolder,
		},
		OnConflict: fs.ConflictMode(c.Destination.OnConflict),
		Logs: LogOptions{
			Folder:           logs.Where.Folder,
			Formats:          logs.Where.FileExtensions,
			Append:           logs.Where.Append,
			TimestampFormat:  logs.Where.TimestampFormat,
			SystemErrors:     logs.What.SystemErrors,
			AllActions:       logs.What.AllActions,
			OnlyActionErrors: logs.What.OnlyActionErrors,
			DeleteAfterDays:  logs.DeleteLogsAfterDays,
			DeleteRecursive:  logs.DeleteLogsRecursive,
		},
		EventLog:     c.Settings.SaveInEventLog.Save,
		EventLogName: c.Settings.SaveInEventLog.LogName,
		DryRun:       dryRun,
	}
}

// NotifySettings maps the mail configuration onto notify.Settings.
func NotifySettings(c *config.Config) notify.Settings {
	m := c.Settings.SendMail
	return notify.Settings{
		Policy: notify.Policy{
			When:    notify.Mode(m.When),
			Subject: m.Subject,
			Body:    m.Body,
		},
		From:               m.From,
		FromDisplayName:    m.FromDisplayName,
		To:                 m.To,
		Bcc:                m.Bcc,
		ExtraAttachments:   m.Attachments,
		MaxAttachmentBytes: int64(m.MaxAttachmentSizeMB) * 1024 * 1024,
		SMTP: notify.SMTP{
			ServerName:     m.SMTP.ServerName,
			Port:           m.SMTP.Port,
			ConnectionType: notify.ConnectionType(m.SMTP.ConnectionType),
			UserName:       m.SMTP.UserName,
			Password:       m.SMTP.Password,
		},
	}
}

// Runner executes a batch and its reporting stages.
type Runner struct {
	fs       fs.FileSystem
	opts     Options
	writer   *sink.Writer
	events   *eventlog.Adapter
	notifier *notify.Notifier
	now      func() time.Time
}

// NewRunner creates a Runner. events and notifier may be nil to disable
// those stages.
func NewRunner(filesystem fs.FileSystem, opts Options, events eventlog.Sink, notifier *notify.Notifier, now func() time.Time) *Runner {
	if now == nil {
		now = time.Now
	}
	w := sink.NewWriter(filesystem)
	w.Style = cellStyle

	r := &Runner{
		fs:       filesystem,
		opts:     opts,
		writer:   w,
		notifier: notifier,
		now:      now,
	}
	if events != nil {
		r.events = eventlog.NewAdapter(events)
	}
	return r
}

// Run processes the source folder and then runs the log sinks, retention,
// the event log and the notification, in that order.
func (r *Runner) Run() *report.RunReport {
	rep := report.NewRunReport(r.opts.ScriptName, r.now)
	slog.Info("batch started", "script", rep.ScriptName, "run", rep.ID, "source", r.opts.SourceFolder)

	r.process(rep)
	rep.Finish()

	stem := r.logStem(rep)
	logFiles := r.writeLogs(rep, stem)
	r.sweepLogs(rep)
	r.publishEvents(rep, stem)
	r.sendMail(rep, logFiles)

	slog.Info("batch finished",
		"processed", len(rep.Results),
		"moved", rep.MovedCount(),
		"failed", len(rep.ActionErrors()),
		"systemErrors", len(rep.SystemErrors))
	return rep
}

func (r *Runner) process(rep *report.RunReport) {
	for _, folder := range []struct{ role, path string }{
		{"source", r.opts.SourceFolder},
		{"destination", r.opts.DestinationFolder},
	} {
		exists, err := afero.DirExists(r.fs, folder.path)
		if err != nil || !exists {
			r.systemError(rep, "the "+folder.role+" folder "+folder.path+" does not exist")
			return
		}
	}

	files, err := r.fs.ListFiles(r.opts.SourceFolder, r.opts.MatchPattern)
	if err != nil {
		r.systemError(rep, "failed to list files in "+r.opts.SourceFolder+": "+err.Error())
		return
	}
	slog.Debug("files to process", "count", len(files), "pattern", r.opts.MatchPattern)

	recorder := NewRecorder(r.fs, r.opts.Renamer, r.opts.DestinationFolder, r.opts.OnConflict, rep.Now)
	for _, path := range files {
		rec := recorder.RecordAttempt(path)
		rep.AddResult(rec)
		if rec.Failed() {
			slog.Warn("file not moved", "file", path, "error", rec.Err)
			continue
		}
		slog.Info("file moved", "file", path, "dest", filepath.Join(rec.DestinationFolder, rec.NewFileName))
	}
}

// logStem returns the path every log file of this run starts with, or ""
// when no log files are configured.
func (r *Runner) logStem(rep *report.RunReport) string {
	if !r.opts.Logs.enabled() {
		return ""
	}
	format := r.opts.Logs.TimestampFormat
	if format == "" {
		format = config.DefaultTimestampFormat
	}
	name := utils.Template(format + " - ${script}").
		ExpandWithTime(rep.StartedAt).
		ExpandWithVars(map[string]string{"script": rep.ScriptName, "run": rep.ID.String()})
	return filepath.Join(r.opts.Logs.Folder, name.String())
}

// writeLogs writes every enabled log kind that has records. The tables are
// built before any write so sink failures only reach the later stages.
func (r *Runner) writeLogs(rep *report.RunReport, stem string) []string {
	if stem == "" {
		return nil
	}

	var tables []sink.Table
	if r.opts.Logs.SystemErrors && len(rep.SystemErrors) > 0 {
		tables = append(tables, SystemErrorsTable(KindSystemErrors, rep.SystemErrors))
	}
	if r.opts.Logs.AllActions && len(rep.Results) > 0 {
		tables = append(tables, ActionsTable(KindAllActions, rep.Results))
	}
	if failed := rep.ActionErrors(); r.opts.Logs.OnlyActionErrors && len(failed) > 0 {
		tables = append(tables, ActionsTable(KindActionErrors, failed))
	}

	var written []string
	var errs []error
	for _, t := range tables {
		paths, werrs := r.writer.Write(t, stem+" - "+t.Name, r.opts.Logs.Formats, r.opts.Logs.Append)
		written = append(written, paths...)
		errs = append(errs, werrs...)
	}
	for _, err := range errs {
		r.systemError(rep, err.Error())
	}
	return written
}

func (r *Runner) sweepLogs(rep *report.RunReport) {
	if r.opts.Logs.Folder == "" || r.opts.Logs.DeleteAfterDays <= 0 {
		return
	}
	sweeper := retention.NewSweeper(r.fs, r.opts.Logs.DeleteRecursive, r.now)
	for _, err := range sweeper.Sweep(r.opts.Logs.Folder, r.opts.Logs.DeleteAfterDays) {
		r.systemError(rep, err.Error())
	}
}

// publishEvents sends the report to the event log. A publish failure is
// added as a system error and written next to the other log files.
func (r *Runner) publishEvents(rep *report.RunReport, stem string) {
	if !r.opts.EventLog || r.events == nil {
		return
	}
	if r.opts.DryRun {
		slog.Info("dry run: skipping event log", "log", r.opts.EventLogName)
		return
	}

	err := r.events.Publish(rep.ScriptName, r.opts.EventLogName, eventlog.Entries(rep))
	if err == nil {
		return
	}
	r.systemError(rep, err.Error())

	if stem == "" {
		return
	}
	last := rep.SystemErrors[len(rep.SystemErrors)-1]
	t := SystemErrorsTable(KindEventLogErrors, []report.SystemError{last})
	_, werrs := r.writer.Write(t, stem+" - "+t.Name, r.opts.Logs.Formats, true)
	for _, werr := range werrs {
		slog.Warn("event log failure could not be saved", "error", werr)
	}
}

func (r *Runner) sendMail(rep *report.RunReport, logFiles []string) {
	if r.notifier == nil {
		return
	}
	if r.opts.DryRun {
		d, err := r.notifier.Prepare(rep, logFiles)
		if err == nil {
			slog.Info("dry run: skipping mail", "wouldSend", d.ShouldSend, "subject", d.Subject)
		}
		return
	}
	if _, err := r.notifier.Notify(rep, logFiles); err != nil {
		r.systemError(rep, err.Error())
	}
}

func (r *Runner) systemError(rep *report.RunReport, msg string) {
	slog.Error(msg)
	rep.AddSystemError(msg)
}
