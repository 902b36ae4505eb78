package updater

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/smazurov/climalight/internal/version"
)

// DefaultRepository is the GitHub slug releases are fetched from.
const DefaultRepository = "smazurov/climalight"

// Options configures the updater.
type Options struct {
	Repository string // GitHub repo slug (e.g., "smazurov/climalight")
	Prerelease bool   // Whether to include prereleases
	DataDir    string // Backups are kept under DataDir/backup
}

// UpdateInfo describes the latest release relative to the running binary.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes,omitempty"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	AssetSize       int       `json:"asset_size,omitempty"`
	UpdateAvailable bool      `json:"update_available"`
}

// Updater replaces the running executable with a newer GitHub release,
// keeping one backup for rollback.
type Updater struct {
	repository selfupdate.Repository
	updater    *selfupdate.Updater
	backups    *backupManager
	logger     *slog.Logger
}

// New creates an Updater. It does not touch the network.
func New(opts Options, logger *slog.Logger) (*Updater, error) {
	if opts.Repository == "" {
		opts.Repository = DefaultRepository
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	backups, err := newBackupManager(filepath.Join(opts.DataDir, "backup"), selfupdate.ExecutablePath, logger)
	if err != nil {
		logger.Warn("Rollback unavailable", "error", err)
	}

	return &Updater{
		repository: selfupdate.ParseSlug(opts.Repository),
		updater:    updater,
		backups:    backups,
		logger:     logger,
	}, nil
}

// Check queries the latest release without downloading it.
func (u *Updater) Check(ctx context.Context) (*UpdateInfo, *selfupdate.Release, error) {
	release, found, err := u.updater.DetectLatest(ctx, u.repository)
	if err != nil {
		return nil, nil, newError(ErrCodeCheckFailed, "failed to check for updates", err)
	}
	if !found {
		return nil, nil, newError(ErrCodeNotFound, "repository not found or has no releases", nil)
	}

	current := version.Version
	info := &UpdateInfo{
		CurrentVersion:  current,
		LatestVersion:   release.Version(),
		UpdateAvailable: newer(current, release.GreaterThan),
	}
	if info.UpdateAvailable {
		info.ReleaseNotes = release.ReleaseNotes
		info.ReleaseURL = release.URL
		info.PublishedAt = release.PublishedAt
		info.AssetSize = release.AssetByteSize
	}
	return info, release, nil
}

// Apply installs the latest release if it is newer than the running one.
// The current binary is backed up first and restored if the install
// fails. The service must be restarted to run the new version.
func (u *Updater) Apply(ctx context.Context) (*UpdateInfo, error) {
	info, release, err := u.Check(ctx)
	if err != nil {
		return nil, err
	}
	if !info.UpdateAvailable {
		return info, newError(ErrCodeNoUpdate, "already running the latest release", nil)
	}

	if u.backups != nil {
		if err := u.backups.createBackup(); err != nil {
			return info, newError(ErrCodeBackupFailed, "failed to create backup", err)
		}
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return info, newError(ErrCodeApplyFailed, "failed to get executable path", err)
	}

	u.logger.Info("Applying update", "from", info.CurrentVersion, "to", info.LatestVersion)
	if err := u.updater.UpdateTo(ctx, release, exe); err != nil {
		u.attemptRollback()
		return info, newError(ErrCodeApplyFailed, "failed to apply update", err)
	}

	u.logger.Info("Update applied", "version", info.LatestVersion)
	return info, nil
}

// Rollback restores the binary saved by the last Apply and returns the
// restored version.
func (u *Updater) Rollback() (string, error) {
	if u.backups == nil || !u.backups.hasBackup() {
		return "", newError(ErrCodeNoBackup, "no backup available for rollback", nil)
	}
	if err := u.backups.restore(); err != nil {
		return "", newError(ErrCodeRollbackFailed, "failed to restore backup", err)
	}
	return u.backups.backupVersion(), nil
}

func (u *Updater) attemptRollback() {
	if u.backups == nil || !u.backups.hasBackup() {
		u.logger.Error("No backup available for automatic rollback")
		return
	}
	if err := u.backups.restore(); err != nil {
		u.logger.Error("Failed to restore backup", "error", err)
		return
	}
	u.logger.Info("Automatic rollback completed")
}

// newer reports whether a release is an upgrade. Development builds are
// always considered outdated.
func newer(current string, greaterThan func(string) bool) bool {
	return version.IsDev(current) || greaterThan(current)
}
