package batch

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/prettymuchbryce/batchmove/internal/eventlog"
	"github.com/prettymuchbryce/batchmove/internal/fs"
	"github.com/prettymuchbryce/batchmove/internal/notify"
	"github.com/prettymuchbryce/batchmove/internal/rename"
	"github.com/prettymuchbryce/batchmove/internal/testutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

var (
	inDir   = testutil.Path("/", "in")
	outDir  = testutil.Path("/", "out")
	logsDir = testutil.Path("/", "logs")
)

func fixedNow() time.Time { return time.Date(2025, 3, 26, 8, 0, 0, 0, time.UTC) }

const stemName = "2025_03_26_080000 (Wed) - Move analyses"

// failingMove rejects moves of one file name.
type failingMove struct {
	*fs.MemFileSystem
	fail string
}

func (f *failingMove) Move(src, dst string) error {
	if filepath.Base(src) == f.fail {
		return errors.New("access to the path is denied")
	}
	return f.MemFileSystem.Move(src, dst)
}

type eventSink struct {
	published int
	err       error
}

func (s *eventSink) EnsureChannel(name, source string) error { return nil }

func (s *eventSink) Publish(name, source string, severity eventlog.Severity, code int, message string) error {
	if s.err != nil {
		return s.err
	}
	s.published++
	return nil
}

type mailSender struct {
	sent []notify.Message
}

func (m *mailSender) Send(msg notify.Message, server notify.SMTP) error {
	m.sent = append(m.sent, msg)
	return nil
}

func newFolders() *fs.MemFileSystem {
	mem := fs.NewMemTest()
	mem.MustMkdirAll(inDir)
	mem.MustMkdirAll(outDir)
	return mem
}

func baseOptions() Options {
	return Options{
		ScriptName:        "Move analyses",
		SourceFolder:      inDir,
		MatchPattern:      "*",
		DestinationFolder: outDir,
		Renamer:           rename.Renamer{Prefix: "AnalysesJour", YearFolder: true},
		Logs: LogOptions{
			Folder:          logsDir,
			TimestampFormat: "%Y_%m_%d_%H%M%S (%a)",
		},
	}
}

func logFileNames(t *testing.T, afs afero.Fs) []string {
	t.Helper()
	entries, err := afero.ReadDir(afs, logsDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRun_MovesMatchingFile(t *testing.T) {
	mem := newFolders()
	src := filepath.Join(inDir, "Analyse_26032025.xlsx")
	mem.MustWriteFile(src, "data")

	rep := NewRunner(mem, baseOptions(), nil, nil, fixedNow).Run()

	require.Len(t, rep.Results, 1)
	rec := rep.Results[0]
	assert.True(t, rec.Moved)
	assert.NoError(t, rec.Err)
	assert.Equal(t, "AnalysesJour_20250326.xlsx", rec.NewFileName)
	assert.Equal(t, filepath.Join(outDir, "2025"), rec.DestinationFolder)

	exists, _ := afero.Exists(mem, filepath.Join(outDir, "2025", "AnalysesJour_20250326.xlsx"))
	assert.True(t, exists)
	exists, _ = afero.Exists(mem, src)
	assert.False(t, exists)

	assert.Empty(t, rep.SystemErrors)
	assert.Equal(t, 0, rep.ExitCode())
}

func TestRun_OneResultPerDiscoveredFile(t *testing.T) {
	mem := newFolders()
	mem.MustWriteFile(filepath.Join(inDir, "Analyse_26032025.xlsx"), "a")
	mem.MustWriteFile(filepath.Join(inDir, "Analyse_2603.xlsx"), "b")
	mem.MustWriteFile(filepath.Join(inDir, "notes.txt"), "c")
	mem.MustMkdirAll(filepath.Join(inDir, "sub"))

	rep := NewRunner(mem, baseOptions(), nil, nil, fixedNow).Run()

	require.Len(t, rep.Results, 3)
	assert.Equal(t, 1, rep.MovedCount())
	for _, rec := range rep.ActionErrors() {
		assert.ErrorIs(t, rec.Err, rename.ErrNoMatch)
		assert.Contains(t, rec.Err.Error(), rec.SourceFileName)
		assert.False(t, rec.Moved)
	}
	assert.Equal(t, 0, rep.ExitCode(), "item errors do not fail the batch")
}

func TestRun_MoveFailureWritesActionErrorLogs(t *testing.T) {
	mem := &failingMove{MemFileSystem: newFolders(), fail: "Analyse_27032025.xlsx"}
	mem.MustWriteFile(filepath.Join(inDir, "Analyse_26032025.xlsx"), "a")
	mem.MustWriteFile(filepath.Join(inDir, "Analyse_27032025.xlsx"), "b")

	opts := baseOptions()
	opts.Logs.Formats = []string{"json", "csv"}
	opts.Logs.OnlyActionErrors = true

	rep := NewRunner(mem, opts, nil, nil, fixedNow).Run()

	require.Len(t, rep.Results, 2)
	require.Len(t, rep.ActionErrors(), 1)
	assert.Contains(t, rep.ActionErrors()[0].Err.Error(), "failed to move file")

	names := logFileNames(t, mem)
	assert.Equal(t, []string{
		stemName + " - Action errors.csv",
		stemName + " - Action errors.json",
	}, names)

	data, err := afero.ReadFile(mem, filepath.Join(logsDir, stemName+" - Action errors.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "access to the path is denied")
	assert.NotContains(t, string(data), "Analyse_26032025.xlsx")
}

func TestRun_MissingSourceFolderIsSystemError(t *testing.T) {
	mem := fs.NewMemTest()
	mem.MustMkdirAll(outDir)

	opts := baseOptions()
	opts.Logs.Formats = []string{"csv"}
	opts.Logs.SystemErrors = true
	opts.Logs.AllActions = true

	rep := NewRunner(mem, opts, nil, nil, fixedNow).Run()

	assert.Empty(t, rep.Results)
	require.Len(t, rep.SystemErrors, 1)
	assert.Contains(t, rep.SystemErrors[0].Message, "source folder")
	assert.Equal(t, 1, rep.ExitCode())

	assert.Equal(t, []string{stemName + " - System errors.csv"}, logFileNames(t, mem),
		"empty record sets are not written")
}

func TestRun_SinkFailureIsNotWrittenToEarlierSinks(t *testing.T) {
	mem := newFolders()
	mem.MustWriteFile(filepath.Join(inDir, "Analyse_26032025.xlsx"), "a")
	mem.MustWriteFile(filepath.Join(logsDir, stemName+" - All actions.xlsx"), "not a workbook")

	opts := baseOptions()
	opts.Logs.Formats = []string{"csv", "xlsx"}
	opts.Logs.Append = true
	opts.Logs.SystemErrors = true
	opts.Logs.AllActions = true

	rep := NewRunner(mem, opts, nil, nil, fixedNow).Run()

	require.Len(t, rep.SystemErrors, 1)
	assert.Contains(t, rep.SystemErrors[0].Message, "All actions.xlsx")

	exists, _ := afero.Exists(mem, filepath.Join(logsDir, stemName+" - All actions.csv"))
	assert.True(t, exists)
	exists, _ = afero.Exists(mem, filepath.Join(logsDir, stemName+" - System errors.csv"))
	assert.False(t, exists)
}

func TestRun_EventLog(t *testing.T) {
	t.Run("published", func(t *testing.T) {
		mem := newFolders()
		mem.MustWriteFile(filepath.Join(inDir, "Analyse_26032025.xlsx"), "a")
		sink := &eventSink{}

		opts := baseOptions()
		opts.EventLog = true
		opts.EventLogName = "Scripts"

		rep := NewRunner(mem, opts, sink, nil, fixedNow).Run()
		assert.Empty(t, rep.SystemErrors)
		assert.Equal(t, 4, sink.published)
	})

	t.Run("failure is persisted", func(t *testing.T) {
		mem := newFolders()
		sink := &eventSink{err: errors.New("source not registered")}

		opts := baseOptions()
		opts.Logs.Formats = []string{"csv"}
		opts.EventLog = true
		opts.EventLogName = "Scripts"

		rep := NewRunner(mem, opts, sink, nil, fixedNow).Run()
		require.Len(t, rep.SystemErrors, 1)
		assert.Contains(t, rep.SystemErrors[0].Message, "source not registered")

		data, err := afero.ReadFile(mem, filepath.Join(logsDir, stemName+" - Event log errors.csv"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "source not registered")
	})

	t.Run("skipped in dry run", func(t *testing.T) {
		sink := &eventSink{}
		opts := baseOptions()
		opts.EventLog = true
		opts.DryRun = true

		NewRunner(newFolders(), opts, sink, nil, fixedNow).Run()
		assert.Equal(t, 0, sink.published)
	})
}

func TestRun_Retention(t *testing.T) {
	mem := newFolders()
	old := filepath.Join(logsDir, "old - All actions.csv")
	recent := filepath.Join(logsDir, "recent - All actions.csv")
	mem.MustWriteFile(old, "x")
	mem.MustWriteFile(recent, "x")
	mem.MustChtimes(old, fixedNow().AddDate(0, 0, -40))
	mem.MustChtimes(recent, fixedNow().AddDate(0, 0, -2))

	opts := baseOptions()
	opts.Logs.DeleteAfterDays = 30

	rep := NewRunner(mem, opts, nil, nil, fixedNow).Run()

	assert.Empty(t, rep.SystemErrors)
	assert.Equal(t, []string{"recent - All actions.csv"}, logFileNames(t, mem))
}

func TestRun_RetentionWithoutLogFolder(t *testing.T) {
	mem := newFolders()
	mem.MustWriteFile(filepath.Join(inDir, "Analyse_26032025.xlsx"), "data")

	opts := baseOptions()
	opts.Logs.Formats = []string{"csv"}
	opts.Logs.OnlyActionErrors = true
	opts.Logs.DeleteAfterDays = 30

	rep := NewRunner(mem, opts, nil, nil, fixedNow).Run()

	assert.Equal(t, 1, rep.MovedCount())
	assert.Empty(t, rep.SystemErrors)
	assert.Equal(t, 0, rep.ExitCode())
	assert.Empty(t, logFileNames(t, mem))
}

func TestRun_Notification(t *testing.T) {
	settings := notify.Settings{
		Policy: notify.Policy{When: notify.OnError, Subject: "Move analyses"},
		From:   "batch@example.com",
		To:     []string{"ops@example.com"},
	}

	t.Run("item error mails the log files", func(t *testing.T) {
		mem := newFolders()
		mem.MustWriteFile(filepath.Join(inDir, "bad.xlsx"), "a")
		sender := &mailSender{}

		opts := baseOptions()
		opts.Logs.Formats = []string{"csv"}
		opts.Logs.AllActions = true

		rep := NewRunner(mem, opts, nil, notify.NewNotifier(mem, sender, settings), fixedNow).Run()

		assert.Empty(t, rep.SystemErrors)
		require.Len(t, sender.sent, 1)
		msg := sender.sent[0]
		assert.Equal(t, notify.PriorityHigh, msg.Priority)
		assert.Equal(t, "1 action, 1 error, Move analyses", msg.Subject)
		assert.Equal(t, []string{filepath.Join(logsDir, stemName+" - All actions.csv")}, msg.Attachments)
	})

	t.Run("clean run sends nothing", func(t *testing.T) {
		mem := newFolders()
		mem.MustWriteFile(filepath.Join(inDir, "Analyse_26032025.xlsx"), "a")
		sender := &mailSender{}

		NewRunner(mem, baseOptions(), nil, notify.NewNotifier(mem, sender, settings), fixedNow).Run()
		assert.Empty(t, sender.sent)
	})

	t.Run("missing recipients fail only the mail stage", func(t *testing.T) {
		mem := newFolders()
		mem.MustWriteFile(filepath.Join(inDir, "bad.xlsx"), "a")
		mem.MustWriteFile(filepath.Join(inDir, "Analyse_26032025.xlsx"), "b")
		s := settings
		s.To = nil

		rep := NewRunner(mem, baseOptions(), nil, notify.NewNotifier(mem, &mailSender{}, s), fixedNow).Run()
		assert.Equal(t, 1, rep.MovedCount())
		require.Len(t, rep.SystemErrors, 1)
		assert.True(t, strings.Contains(rep.SystemErrors[0].Message, "no mail recipients"))
		assert.Equal(t, 1, rep.ExitCode())
	})

	t.Run("invalid recipient is named", func(t *testing.T) {
		mem := newFolders()
		mem.MustWriteFile(filepath.Join(inDir, "bad.xlsx"), "a")
		sender := &mailSender{}
		s := settings
		s.To = []string{"ops@example.com", "ops-at-example"}

		rep := NewRunner(mem, baseOptions(), nil, notify.NewNotifier(mem, sender, s), fixedNow).Run()
		assert.Empty(t, sender.sent)
		require.Len(t, rep.SystemErrors, 1)
		assert.Contains(t, rep.SystemErrors[0].Message, "ops-at-example")
	})

	t.Run("skipped in dry run", func(t *testing.T) {
		mem := newFolders()
		mem.MustWriteFile(filepath.Join(inDir, "bad.xlsx"), "a")
		sender := &mailSender{}

		opts := baseOptions()
		opts.DryRun = true
		NewRunner(mem, opts, nil, notify.NewNotifier(mem, sender, settings), fixedNow).Run()
		assert.Empty(t, sender.sent)
	})
}

func TestRecorder_Conflicts(t *testing.T) {
	renamer := rename.Renamer{Prefix: "AnalysesJour"}
	src := filepath.Join(inDir, "Analyse_26032025.xlsx")
	dest := filepath.Join(outDir, "AnalysesJour_20250326.xlsx")

	tests := []struct {
		mode      fs.ConflictMode
		wantMoved bool
		wantName  string
		wantDest  string
	}{
		{fs.ConflictOverwrite, true, "AnalysesJour_20250326.xlsx", "new"},
		{fs.ConflictRenameWithSuffix, true, "AnalysesJour_20250326_2.xlsx", "old"},
		{fs.ConflictFail, false, "AnalysesJour_20250326.xlsx", "old"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			mem := newFolders()
			mem.MustWriteFile(src, "new")
			mem.MustWriteFile(dest, "old")

			rec := NewRecorder(mem, renamer, outDir, tt.mode, fixedNow).RecordAttempt(src)

			assert.Equal(t, tt.wantMoved, rec.Moved)
			assert.Equal(t, tt.wantName, rec.NewFileName)
			if !tt.wantMoved {
				require.Error(t, rec.Err)
				assert.Contains(t, rec.Err.Error(), "destination already exists")
			}
			content, err := afero.ReadFile(mem, dest)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDest, string(content))
		})
	}
}

func TestRecorder_MoveErrorKeepsCause(t *testing.T) {
	mem := &failingMove{MemFileSystem: newFolders(), fail: "Analyse_26032025.xlsx"}
	src := filepath.Join(inDir, "Analyse_26032025.xlsx")
	mem.MustWriteFile(src, "a")

	rec := NewRecorder(mem, rename.Renamer{}, outDir, "", fixedNow).RecordAttempt(src)

	require.Error(t, rec.Err)
	assert.False(t, rec.Moved)
	assert.Equal(t, fixedNow(), rec.Timestamp)
	assert.Contains(t, rec.Err.Error(), "failed to move file "+src+" to "+filepath.Join(outDir, "Analyse_20250326.xlsx"))
	assert.Contains(t, rec.Err.Error(), "access to the path is denied")
}

func TestCellStyle(t *testing.T) {
	assert.Same(t, movedStyle, cellStyle("Moved", true))
	assert.Same(t, failedStyle, cellStyle("Moved", false))
	assert.Same(t, failedStyle, cellStyle("Error", errors.New("x")))
	assert.Nil(t, cellStyle("Error", nil))
	assert.Nil(t, cellStyle("SourceFileName", "a.xlsx"))
}
