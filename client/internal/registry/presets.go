package registry

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"
)

// PresetFile is the enterprise/preset organization list shipped next to the
// application. Only URLs are listed; everything else comes from verification.
type PresetFile struct {
	Organizations []string `yaml:"organizations"`
}

// LoadPresets reads a preset organization file.
func LoadPresets(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset file %s: %w", path, err)
	}

	var preset PresetFile
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("parse preset file %s: %w", path, err)
	}

	return preset.Organizations, nil
}

// BootstrapError aggregates per-organization failures from a preset import.
// Successfully added organizations are kept.
type BootstrapError struct {
	Failures map[string]error
}

func (e *BootstrapError) Error() string {
	urls := make([]string, 0, len(e.Failures))
	for u := range e.Failures {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	parts := make([]string, 0, len(urls))
	for _, u := range urls {
		parts = append(parts, fmt.Sprintf("%s: %v", u, e.Failures[u]))
	}
	return fmt.Sprintf("failed to add %d organization(s): %s", len(urls), strings.Join(parts, "; "))
}

// Bootstrap verifies and adds all preset organizations concurrently, joining
// on every verification before reporting. Already registered organizations
// are skipped silently, since the bootstrap runs on every start. The returned
// count is the number of organizations actually added.
func (r *Registry) Bootstrap(ctx context.Context, urls []string) (int, error) {
	var (
		mu       sync.Mutex
		added    int
		failures = map[string]error{}
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, rawURL := range urls {
		if r.DuplicateExists(rawURL) {
			log.Debugf("preset organization %s already added, skipping", rawURL)
			continue
		}

		rawURL := rawURL
		g.Go(func() error {
			d, err := r.CheckDomain(ctx, rawURL, false, false)
			if err == nil {
				err = r.Add(ctx, d)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[rawURL] = err
				return nil
			}
			added++
			return nil
		})
	}

	_ = g.Wait()

	if len(failures) > 0 {
		return added, &BootstrapError{Failures: failures}
	}
	return added, nil
}
