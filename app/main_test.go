package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yourdaily/daily-podcaster/app/cfg"
	"github.com/yourdaily/daily-podcaster/app/timeutil"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		rest     []string
		wantCmd  string
		wantOpts cmdOptions
		wantErr  bool
	}{
		{
			name:     "command only defaults to yesterday",
			rest:     []string{"discover"},
			wantCmd:  "discover",
			wantOpts: cmdOptions{date: timeutil.Yesterday(), days: 1},
		},
		{
			name:     "date flag with separate value",
			rest:     []string{"run", "--date", "2024-01-15"},
			wantCmd:  "run",
			wantOpts: cmdOptions{date: "2024-01-15", days: 1},
		},
		{
			name:     "date flag with equals",
			rest:     []string{"stats", "--date=2024-01-15"},
			wantCmd:  "stats",
			wantOpts: cmdOptions{date: "2024-01-15", days: 1},
		},
		{
			name:     "purge date flag",
			rest:     []string{"cleanup", "--purge-date", "2024-01-10"},
			wantCmd:  "cleanup",
			wantOpts: cmdOptions{date: timeutil.Yesterday(), purgeDate: "2024-01-10", days: 1},
		},
		{
			name:     "purge date flag with equals",
			rest:     []string{"cleanup", "--purge-date=2024-01-10"},
			wantCmd:  "cleanup",
			wantOpts: cmdOptions{date: timeutil.Yesterday(), purgeDate: "2024-01-10", days: 1},
		},
		{
			name:     "days flag",
			rest:     []string{"stats", "--days", "7"},
			wantCmd:  "stats",
			wantOpts: cmdOptions{date: timeutil.Yesterday(), days: 7},
		},
		{
			name:    "no command",
			rest:    nil,
			wantErr: true,
		},
		{
			name:    "invalid date",
			rest:    []string{"run", "--date", "15-01-2024"},
			wantErr: true,
		},
		{
			name:    "invalid purge date",
			rest:    []string{"cleanup", "--purge-date", "garbage"},
			wantErr: true,
		},
		{
			name:    "zero days",
			rest:    []string{"stats", "--days", "0"},
			wantErr: true,
		},
		{
			name:    "non-numeric days",
			rest:    []string{"stats", "--days", "week"},
			wantErr: true,
		},
		{
			name:    "flag without value",
			rest:    []string{"cleanup", "--purge-date"},
			wantErr: true,
		},
		{
			name:    "unexpected argument",
			rest:    []string{"run", "extra"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, opts, err := parseCommand(tt.rest)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %v", tt.rest)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if cmd != tt.wantCmd {
				t.Errorf("Expected command '%s', got '%s'", tt.wantCmd, cmd)
			}
			if opts != tt.wantOpts {
				t.Errorf("Expected options %+v, got %+v", tt.wantOpts, opts)
			}
		})
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()

	dir := t.TempDir()
	config := &cfg.Cfg{
		SearchDBPath:  filepath.Join(dir, "search_index.db"),
		ArticleDBPath: filepath.Join(dir, "article_data.db"),
		AudioDir:      filepath.Join(dir, "audio"),
		TempAudioDir:  filepath.Join(dir, "tmp"),
		LogsDir:       filepath.Join(dir, "logs"),
	}

	a, err := newApp(config)
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	t.Cleanup(a.Close)

	return a
}

func TestDispatchCleanupPurgeDate(t *testing.T) {
	a := newTestApp(t)

	a.store.RecordDiscovery("Technology", "Keep", "https://news.example.com/keep", "Example", "", "2024-01-16")
	a.store.RecordDiscovery("Technology", "Drop", "https://news.example.com/drop", "Example", "", "2024-01-15")

	opts := cmdOptions{date: timeutil.Yesterday(), purgeDate: "2024-01-15", days: 1}
	if err := a.dispatch(context.Background(), "cleanup", opts); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Only the purge date is removed. The age-based sweep would have
	// taken both rows.
	if got := a.store.StatsForDate("2024-01-15").Discovered; got != 0 {
		t.Errorf("Expected purged date to be empty, got %d rows", got)
	}
	if got := a.store.StatsForDate("2024-01-16").Discovered; got != 1 {
		t.Errorf("Expected other date to survive, got %d rows", got)
	}
}

func TestDispatchStatsRange(t *testing.T) {
	a := newTestApp(t)

	a.store.RecordDiscovery("Technology", "Article", "https://news.example.com/a", "Example", "", timeutil.Today())

	opts := cmdOptions{date: timeutil.Yesterday(), days: 3}
	if err := a.dispatch(context.Background(), "stats", opts); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}
