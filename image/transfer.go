// Package image moves container images from the local docker daemon into
// the k0s containerd image store.
package image

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/containerd/errdefs"
	dockerimage "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/cache"
	"github.com/mensylisir/xmstack/common"
	"github.com/mensylisir/xmstack/runner"
	"github.com/mensylisir/xmstack/util"
)

// importedTTL bounds how long an import is trusted within one session.
const importedTTL = 30 * time.Minute

// DockerAPI is the subset of the docker client a Transferrer uses.
type DockerAPI interface {
	ImageInspect(ctx context.Context, ref string, opts ...client.ImageInspectOption) (dockerimage.InspectResponse, error)
	ImagePull(ctx context.Context, ref string, options dockerimage.PullOptions) (io.ReadCloser, error)
	ImageSave(ctx context.Context, refs []string, opts ...client.ImageSaveOption) (io.ReadCloser, error)
}

// Dial connects to the docker daemon configured by the environment.
func Dial() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connect to docker: %w", err)
	}
	return cli, nil
}

// Request describes one image transfer.
type Request struct {
	Ref  string
	Pull bool // pull when the daemon does not have the image
	Sudo bool // run the import command through sudo
}

// Transferrer saves images to a cache directory and imports the archives
// into containerd. Imports are remembered for the session.
type Transferrer struct {
	docker    DockerAPI
	runner    runner.Runner
	cacheDir  string
	importCmd string
	imported  *cache.Cache[string, string]
}

// NewTransferrer creates a Transferrer. importCmd is a printf template whose
// single %s receives the archive path; empty selects the k0s default.
func NewTransferrer(docker DockerAPI, r runner.Runner, cacheDir, importCmd string) *Transferrer {
	if importCmd == "" {
		importCmd = common.ImageImportCmdTpl
	}
	return &Transferrer{
		docker:    docker,
		runner:    r,
		cacheDir:  cacheDir,
		importCmd: importCmd,
		imported:  cache.NewCache[string, string](cache.WithDefaultTTL[string, string](importedTTL)),
	}
}

// ArchivePath is where the tarball for ref is cached.
func (t *Transferrer) ArchivePath(ref string) string {
	return filepath.Join(t.cacheDir, util.SanitizeFileName(ref)+".tar")
}

// Transfer makes req.Ref available to containerd and returns the archive
// used. An archive already in the cache directory is reused without
// contacting docker.
func (t *Transferrer) Transfer(ctx context.Context, log *logrus.Entry, req Request) (string, error) {
	if archive, ok := t.imported.Get(req.Ref); ok {
		log.Infof("image %s already imported this session", req.Ref)
		return archive, nil
	}

	archive := t.ArchivePath(req.Ref)
	if util.FileExists(archive) {
		log.Infof("using cached archive %s", archive)
	} else if err := t.save(ctx, log, req, archive); err != nil {
		return "", err
	}

	cmd := fmt.Sprintf(t.importCmd, archive)
	log.Infof("importing %s into containerd", req.Ref)
	var (
		stdout, stderr string
		exitCode       int
		err            error
	)
	if req.Sudo {
		stdout, stderr, exitCode, err = t.runner.SudoRun(ctx, cmd)
	} else {
		stdout, stderr, exitCode, err = t.runner.Run(ctx, cmd)
	}
	if err := runner.CommandError(cmd, util.FirstNonEmpty(stderr, stdout), exitCode, err); err != nil {
		return "", err
	}

	t.imported.Set(req.Ref, archive)
	return archive, nil
}

func (t *Transferrer) save(ctx context.Context, log *logrus.Entry, req Request, archive string) error {
	if _, err := t.docker.ImageInspect(ctx, req.Ref); err != nil {
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("inspect image %s: %w", req.Ref, err)
		}
		if !req.Pull {
			return fmt.Errorf("image %s is not present in docker and pulling is disabled", req.Ref)
		}
		if err := t.pull(ctx, log, req.Ref); err != nil {
			return err
		}
	}

	if err := util.EnsureDir(t.cacheDir); err != nil {
		return err
	}
	log.Infof("saving %s to %s", req.Ref, archive)
	rc, err := t.docker.ImageSave(ctx, []string{req.Ref})
	if err != nil {
		return fmt.Errorf("save image %s: %w", req.Ref, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(t.cacheDir, ".partial-*.tar")
	if err != nil {
		return fmt.Errorf("create archive for %s: %w", req.Ref, err)
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save image %s: read response: %w", req.Ref, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save image %s: %w", req.Ref, err)
	}
	if err := os.Rename(tmp.Name(), archive); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save image %s: %w", req.Ref, err)
	}
	return nil
}

// pull drains the progress stream to completion.
func (t *Transferrer) pull(ctx context.Context, log *logrus.Entry, ref string) error {
	log.Infof("pulling image %s", ref)
	resp, err := t.docker.ImagePull(ctx, ref, dockerimage.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer resp.Close()
	if _, err := io.Copy(io.Discard, resp); err != nil {
		return fmt.Errorf("pull image %s: read response: %w", ref, err)
	}
	return nil
}

// Forget drops the cached archive of ref and the session memo. A missing
// archive is not an error.
func (t *Transferrer) Forget(ref string) error {
	t.imported.Delete(ref)
	if err := os.Remove(t.ArchivePath(ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove archive for %s: %w", ref, err)
	}
	return nil
}
