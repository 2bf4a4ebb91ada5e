package registry

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/chathubio/chathub/util"
)

// DefaultIcon is the fallback icon sentinel persisted whenever no valid icon
// is available. The UI layer maps it to the bundled default image.
const DefaultIcon = "default-icon"

// IconFetcher downloads server icons into a local directory under
// content-addressed names. Fetch never fails: any error degrades to
// DefaultIcon so icon trouble can never block adding or refreshing a server.
type IconFetcher struct {
	dir string
}

func NewIconFetcher(dir string) *IconFetcher {
	return &IconFetcher{dir: dir}
}

// Fetch downloads iconURL and returns the local file path, or DefaultIcon on
// any failure. Inputs that are already local (the sentinel or a previously
// stored path) pass through unchanged without a network call.
func (f *IconFetcher) Fetch(ctx context.Context, iconURL, domainURL string, ignoreCerts bool) string {
	if iconURL == DefaultIcon {
		return DefaultIcon
	}
	if !strings.HasPrefix(iconURL, "http://") && !strings.HasPrefix(iconURL, "https://") {
		return iconURL
	}

	if err := util.EnsureDir(f.dir); err != nil {
		log.Warnf("icon directory for %s unavailable: %v", domainURL, err)
		return DefaultIcon
	}

	localPath := filepath.Join(f.dir, iconFileName(iconURL))

	if err := f.download(ctx, iconURL, localPath, ignoreCerts); err != nil {
		log.Debugf("failed to fetch icon %s for %s: %v", iconURL, domainURL, err)
		return DefaultIcon
	}

	return localPath
}

func (f *IconFetcher) download(ctx context.Context, iconURL, localPath string, ignoreCerts bool) error {
	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: ignoreCerts}, // #nosec G402
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(localPath)
		return err
	}

	return out.Close()
}

// iconFileName derives a deterministic local name from the icon URL: a 32-bit
// rolling hash (seed 5381, multiply-by-33 XOR byte, applied right to left)
// plus the URL's file extension with any query string stripped. Re-fetching
// the same URL overwrites the same file.
func iconFileName(iconURL string) string {
	h := uint32(5381)
	for i := len(iconURL) - 1; i >= 0; i-- {
		h = h*33 ^ uint32(iconURL[i])
	}

	trimmed := iconURL
	if i := strings.Index(trimmed, "?"); i >= 0 {
		trimmed = trimmed[:i]
	}

	return fmt.Sprintf("%d%s", h, path.Ext(trimmed))
}
