package registry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"html"
	"net/http"
	"net/url"
	"strings"

	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/chathubio/chathub/client/internal/store"
)

const settingsEndpoint = "/api/v1/server_settings"

// minSupportedServerVersion is the oldest server release the client is known
// to work with. Older servers are still added, with a warning.
const minSupportedServerVersion = "4.0"

// defaultTrustedDomains are hosted instances that are accepted even when the
// settings probe fails for a non-certificate reason.
var defaultTrustedDomains = []string{"chathub.com", "chathubdev.com"}

// serverSettings is the relevant subset of the settings endpoint response.
// A non-empty realm icon is what identifies a host as a real server.
type serverSettings struct {
	RealmIcon     string `json:"realm_icon"`
	RealmName     string `json:"realm_name"`
	RealmURI      string `json:"realm_uri"`
	ServerVersion string `json:"server_version"`
}

// Verifier performs the network round-trip that validates a candidate server
// and maps its settings response to a domain record.
type Verifier struct {
	// TrustedDomains overrides defaultTrustedDomains when non-nil.
	TrustedDomains []string
}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify probes the settings endpoint of domainURL. Certificate validation is
// bypassed only when ignoreCerts is set. The returned record uses the
// server-reported canonical origin, which may differ from domainURL.
func (v *Verifier) Verify(ctx context.Context, domainURL string, ignoreCerts bool) (store.Domain, error) {
	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: ignoreCerts}, // #nosec G402
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, domainURL+settingsEndpoint, nil)
	if err != nil {
		return v.acceptTrustedOrFail(domainURL, ignoreCerts, ReasonProtocol, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if classifyTransportError(err) == ReasonCertificate {
			return store.Domain{}, &CertificateTrustRequiredError{URL: domainURL, Err: err}
		}
		return v.acceptTrustedOrFail(domainURL, ignoreCerts, ReasonNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return v.acceptTrustedOrFail(domainURL, ignoreCerts, ReasonProtocol, nil)
	}

	var settings serverSettings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return v.acceptTrustedOrFail(domainURL, ignoreCerts, ReasonProtocol, err)
	}

	if settings.RealmIcon == "" {
		return store.Domain{}, &InvalidServerError{URL: domainURL, NoOrgs: true, Reason: ReasonProtocol}
	}

	origin := settings.RealmURI
	if origin == "" {
		origin = domainURL
	}

	alias := html.EscapeString(settings.RealmName)
	if alias == "" {
		alias = origin
	}

	checkServerVersion(origin, settings.ServerVersion)

	return store.Domain{
		URL:         origin,
		Alias:       alias,
		Icon:        resolveIconURL(origin, settings.RealmIcon),
		IgnoreCerts: ignoreCerts,
	}, nil
}

// acceptTrustedOrFail turns a non-certificate verification failure into a
// minimal accepted record for trusted hosted domains, and into an
// InvalidServerError for everything else.
func (v *Verifier) acceptTrustedOrFail(domainURL string, ignoreCerts bool, reason FailureReason, err error) (store.Domain, error) {
	if v.isTrusted(domainURL) {
		log.Debugf("accepting trusted domain %s despite failed verification: %v", domainURL, err)
		return store.Domain{
			URL:         domainURL,
			Alias:       domainURL,
			Icon:        DefaultIcon,
			IgnoreCerts: ignoreCerts,
		}, nil
	}

	return store.Domain{}, &InvalidServerError{URL: domainURL, Reason: reason, Err: err}
}

func (v *Verifier) isTrusted(domainURL string) bool {
	parsed, err := url.Parse(domainURL)
	if err != nil {
		return false
	}

	host := parsed.Hostname()
	trusted := v.TrustedDomains
	if trusted == nil {
		trusted = defaultTrustedDomains
	}

	for _, d := range trusted {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// resolveIconURL makes a server-reported icon path absolute against the
// server's canonical origin. Absolute icon URLs pass through unchanged.
func resolveIconURL(origin, icon string) string {
	base, err := url.Parse(origin)
	if err != nil {
		return icon
	}

	ref, err := url.Parse(icon)
	if err != nil {
		return icon
	}

	return base.ResolveReference(ref).String()
}

func checkServerVersion(origin, reported string) {
	if reported == "" {
		return
	}

	current, err := goversion.NewVersion(reported)
	if err != nil {
		log.Debugf("unparseable server version %q from %s", reported, origin)
		return
	}

	minimum, err := goversion.NewVersion(minSupportedServerVersion)
	if err != nil {
		return
	}

	if current.LessThan(minimum) {
		log.Warnf("server %s runs version %s, older than the supported minimum %s", origin, reported, minSupportedServerVersion)
	}
}
