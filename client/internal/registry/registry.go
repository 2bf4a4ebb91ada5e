package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/chathubio/chathub/client/internal/store"
)

// LastActiveTabKey is the scalar setting holding the position of the tab that
// was focused last. It is reset to 0 whenever a domain is removed, since
// positions shift.
const LastActiveTabKey = "lastActiveTab"

// Confirmer asks the user a yes/no question, used for certificate-trust
// escalation. Implementations must not return an error; a failed prompt is a
// decline.
type Confirmer interface {
	Confirm(message, detail string) bool
}

// Registry owns the persistent domain collection. All mutations go through
// it; callers hold only snapshots and re-fetch by index or URL before acting.
// The store file is re-read around every operation, so the registry itself
// carries no collection state between calls.
type Registry struct {
	mu       sync.Mutex
	store    *store.Store
	verifier *Verifier
	icons    *IconFetcher
	confirm  Confirmer

	corruptNotified bool
}

func New(s *store.Store, v *Verifier, icons *IconFetcher, confirm Confirmer) *Registry {
	return &Registry{
		store:    s,
		verifier: v,
		icons:    icons,
		confirm:  confirm,
	}
}

// load reads the store, absorbing corruption after a single user-visible
// notice. It always returns a usable document.
func (r *Registry) load() *store.Document {
	doc, err := r.store.Load()
	if err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			if !r.corruptNotified {
				r.corruptNotified = true
				log.Errorf("the saved server list could not be read and was reset: %v", err)
			}
		} else {
			log.Errorf("failed to load server list: %v", err)
		}
	}
	return doc
}

// List returns the registered domains in stored order. An absent collection
// is an empty list, not an error.
func (r *Registry) List() []store.Domain {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	out := make([]store.Domain, len(doc.Domains))
	copy(out, doc.Domains)
	return out
}

// Get returns the domain at the given position.
func (r *Registry) Get(index int) (store.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	if index < 0 || index >= len(doc.Domains) {
		return store.Domain{}, fmt.Errorf("domain index %d out of range (%d domains)", index, len(doc.Domains))
	}
	return doc.Domains[index], nil
}

// Add appends a verified domain record. A record without an icon gets the
// default sentinel; a record with a remote icon URL has it downloaded and
// replaced by the local path first. The icon fetch happens outside the store
// lock, and never fails.
func (r *Registry) Add(ctx context.Context, d store.Domain) error {
	if d.Icon == "" {
		d.Icon = DefaultIcon
	} else {
		d.Icon = r.icons.Fetch(ctx, d.Icon, d.URL, d.IgnoreCerts)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	doc.Domains = append(doc.Domains, d)
	return r.store.Save(doc)
}

// Update overwrites the record at the given position in place.
func (r *Registry) Update(index int, d store.Domain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	if index < 0 || index >= len(doc.Domains) {
		return fmt.Errorf("domain index %d out of range (%d domains)", index, len(doc.Domains))
	}

	if d.ID == "" {
		d.ID = doc.Domains[index].ID
	}
	doc.Domains[index] = d
	return r.store.Save(doc)
}

// updateByID overwrites the record carrying the given stable id, wherever it
// sits now. A record removed while the caller was suspended on network I/O
// is skipped silently.
func (r *Registry) updateByID(id string, d store.Domain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	for i := range doc.Domains {
		if doc.Domains[i].ID == id {
			d.ID = id
			doc.Domains[i] = d
			return r.store.Save(doc)
		}
	}

	log.Debugf("domain %s disappeared before update, skipping", d.URL)
	return nil
}

// Remove deletes the record at the given position and compacts the
// collection. The last-active-tab setting is reset because positions shift.
func (r *Registry) Remove(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	if index < 0 || index >= len(doc.Domains) {
		return fmt.Errorf("domain index %d out of range (%d domains)", index, len(doc.Domains))
	}

	doc.Domains = append(doc.Domains[:index], doc.Domains[index+1:]...)
	if err := doc.SetSetting(LastActiveTabKey, 0); err != nil {
		return err
	}
	return r.store.Save(doc)
}

// DuplicateExists reports whether the normalized URL is already registered.
// Matching is exact string equality: trailing slashes and case differences
// count as distinct servers.
func (r *Registry) DuplicateExists(rawURL string) bool {
	u := Normalize(rawURL)
	for _, d := range r.List() {
		if d.URL == u {
			return true
		}
	}
	return false
}

// CheckDomain normalizes and verifies a candidate server.
//
// In the interactive mode (silent=false) a duplicate fails fast before any
// network call, and a certificate failure drives the trust prompt: accepting
// retries the verification with certificate checks disabled, declining fails
// with UntrustedCertificateError. Nothing is persisted either way.
//
// In silent mode verification failures are absorbed: the previously stored
// record is returned unchanged, so a best-effort refresh can never destroy
// existing state.
func (r *Registry) CheckDomain(ctx context.Context, rawURL string, ignoreCerts, silent bool) (store.Domain, error) {
	u := Normalize(rawURL)

	if !silent && r.DuplicateExists(u) {
		return store.Domain{}, &DuplicateServerError{URL: u}
	}

	d, err := r.verifier.Verify(ctx, u, ignoreCerts)
	if err == nil {
		return d, nil
	}

	if silent {
		if prev, ok := r.findByURL(u); ok {
			return prev, nil
		}
		return store.Domain{}, err
	}

	var certErr *CertificateTrustRequiredError
	if errors.As(err, &certErr) {
		detail := ""
		if certErr.Err != nil {
			detail = certErr.Err.Error()
		}
		if r.confirm != nil && r.confirm.Confirm(
			fmt.Sprintf("Do you trust the certificate presented by %s?", u), detail) {
			return r.verifier.Verify(ctx, u, true)
		}
		return store.Domain{}, &UntrustedCertificateError{URL: u}
	}

	return store.Domain{}, err
}

func (r *Registry) findByURL(u string) (store.Domain, bool) {
	for _, d := range r.List() {
		if d.URL == u {
			return d, true
		}
	}
	return store.Domain{}, false
}

// Refresh re-verifies an already registered domain in the background and
// overwrites its record. All errors are swallowed: stale data is preferred
// over a disruptive failure, and a failed refresh leaves the stored record
// untouched.
func (r *Registry) Refresh(ctx context.Context, rawURL string, index int) {
	if err := r.refresh(ctx, rawURL, index); err != nil {
		log.Debugf("background refresh of %s failed: %v", rawURL, err)
	}
}

// refresh captures the record's stable id before suspending on network I/O,
// so a concurrent remove or reorder cannot make it update the wrong slot.
func (r *Registry) refresh(ctx context.Context, rawURL string, index int) error {
	existing, err := r.Get(index)
	if err != nil {
		return err
	}
	return r.refreshRecord(ctx, rawURL, existing)
}

func (r *Registry) refreshRecord(ctx context.Context, rawURL string, existing store.Domain) error {
	d, err := r.verifier.Verify(ctx, Normalize(rawURL), existing.IgnoreCerts)
	if err != nil {
		return err
	}

	d.Icon = r.icons.Fetch(ctx, d.Icon, d.URL, d.IgnoreCerts)
	d.LoggedIn = existing.LoggedIn

	return r.updateByID(existing.ID, d)
}
