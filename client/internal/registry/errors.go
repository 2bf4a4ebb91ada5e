package registry

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
)

// DuplicateServerError is returned when the normalized URL is already
// registered. Nothing is mutated.
type DuplicateServerError struct {
	URL string
}

func (e *DuplicateServerError) Error() string {
	return fmt.Sprintf("%s is already added", e.URL)
}

// InvalidServerError is returned when a candidate server is unreachable,
// answers with an unexpected status or body, or (NoOrgs) is reachable but
// hosts no organizations.
type InvalidServerError struct {
	URL    string
	NoOrgs bool
	Reason FailureReason
	Err    error
}

func (e *InvalidServerError) Error() string {
	if e.NoOrgs {
		return fmt.Sprintf("%s does not have any organizations added", e.URL)
	}
	return fmt.Sprintf("%s is not a valid chat server", e.URL)
}

func (e *InvalidServerError) Unwrap() error {
	return e.Err
}

// CertificateTrustRequiredError is returned when verification failed because
// the server presented a certificate the system does not trust. The caller
// is expected to ask the user and retry with ignoreCerts on acceptance.
type CertificateTrustRequiredError struct {
	URL string
	Err error
}

func (e *CertificateTrustRequiredError) Error() string {
	return fmt.Sprintf("%s presented an untrusted certificate", e.URL)
}

func (e *CertificateTrustRequiredError) Unwrap() error {
	return e.Err
}

// UntrustedCertificateError is returned when the user declined to trust the
// certificate. The add flow terminates without mutation.
type UntrustedCertificateError struct {
	URL string
}

func (e *UntrustedCertificateError) Error() string {
	return fmt.Sprintf("untrusted certificate for %s was declined", e.URL)
}

// FailureReason tags a verification failure at the point the transport error
// originates, instead of matching on error text.
type FailureReason int

const (
	ReasonNetwork FailureReason = iota
	ReasonProtocol
	ReasonCertificate
)

func classifyTransportError(err error) FailureReason {
	var (
		certVerify       *tls.CertificateVerificationError
		unknownAuthority x509.UnknownAuthorityError
		hostnameErr      x509.HostnameError
		certInvalid      x509.CertificateInvalidError
	)

	switch {
	case errors.As(err, &certVerify),
		errors.As(err, &unknownAuthority),
		errors.As(err, &hostnameErr),
		errors.As(err, &certInvalid):
		return ReasonCertificate
	default:
		return ReasonNetwork
	}
}
