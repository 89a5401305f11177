package rpc

import (
	"context"
	"errors"

	"github.com/blang/semver/v4"
)

// VersionInfo is the daemon's answer to the version command.
type VersionInfo struct {
	Version string
	Commit  string
	Repo    string
	System  string
	Golang  string
}

// Version asks the daemon for its version.
func (api *HttpApi) Version(ctx context.Context) (*VersionInfo, error) {
	var out VersionInfo
	if err := api.get("version").Exec(ctx, &out); err != nil {
		return nil, err
	}
	if out.Version == "" {
		return nil, &DecodeError{Command: "version", Err: errors.New(`response has no "Version" field`)}
	}

	if v, err := semver.ParseTolerant(out.Version); err == nil {
		api.versionMu.Lock()
		if api.version == nil {
			api.version = &v
		}
		api.versionMu.Unlock()
	}
	return &out, nil
}

func (api *HttpApi) cachedVersion() *semver.Version {
	api.versionMu.Lock()
	defer api.versionMu.Unlock()
	return api.version
}

// RemoteVersion returns the daemon version as semver. The first parsable
// answer to any version call is cached for the life of the handle.
func (api *HttpApi) RemoteVersion(ctx context.Context) (*semver.Version, error) {
	if v := api.cachedVersion(); v != nil {
		return v, nil
	}

	info, err := api.Version(ctx)
	if err != nil {
		return nil, err
	}
	if v := api.cachedVersion(); v != nil {
		return v, nil
	}

	_, err = semver.ParseTolerant(info.Version)
	return nil, &DecodeError{Command: "version", Err: err}
}

// Shutdown asks the daemon process to exit. The reply body is discarded.
func (api *HttpApi) Shutdown(ctx context.Context) error {
	return api.get("shutdown").Exec(ctx, nil)
}
