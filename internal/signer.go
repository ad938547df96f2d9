package internal

import (
	"crypto"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
)

// Signer produces and checks GloDiPay request signatures: an RSA signature
// over the MD5 digest of the canonical JSON payload, base64 encoded.
//
// MD5 is a compliance requirement of the gateway protocol, not a choice;
// the counterparty verifies with the md5WithRSAEncryption scheme and both
// sides must change together if the digest is ever upgraded. The algorithm
// is confined to this type so such a swap stays local.
type Signer struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// NewSigner parses the PEM key pair. The private key must be PKCS#8, the
// public key SPKI, both RSA. Any parse failure is a configuration defect
// and fatal for the service.
func NewSigner(privatePem, publicPem string) (*Signer, error) {
	privateDer, err := decodeKeyBody(privatePem)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %v", err)
	}
	parsedPrivate, err := x509.ParsePKCS8PrivateKey(privateDer)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %v", err)
	}
	privateKey, ok := parsedPrivate.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, expected RSA", parsedPrivate)
	}

	publicDer, err := decodeKeyBody(publicPem)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %v", err)
	}
	parsedPublic, err := x509.ParsePKIXPublicKey(publicDer)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %v", err)
	}
	publicKey, ok := parsedPublic.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, expected RSA", parsedPublic)
	}

	return &Signer{private: privateKey, public: publicKey}, nil
}

// decodeKeyBody reduces PEM text to the DER key bytes: header and footer
// lines are dropped, line wrapping is removed, and the remaining body is
// base64 decoded. The gateway counterparty loads keys the same low-level
// way, so this step must stay byte-identical with it.
func decodeKeyBody(pemText string) ([]byte, error) {
	if strings.TrimSpace(pemText) == "" {
		return nil, fmt.Errorf("empty key material")
	}
	var body strings.Builder
	for _, line := range strings.Split(pemText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-----") {
			continue
		}
		body.WriteString(line)
	}
	der, err := base64.StdEncoding.DecodeString(body.String())
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %v", err)
	}
	return der, nil
}

// Sign returns the base64 signature of the canonical payload.
func (s *Signer) Sign(payload string) (string, error) {
	digest := md5.Sum([]byte(payload))
	signature, err := rsa.SignPKCS1v15(rand.Reader, s.private, crypto.MD5, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign payload: %v", err)
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

// Verify checks a base64 signature against the configured public key.
// It is run on every just-produced signature before transmission, so a key
// mismatch is caught locally instead of as a rejected remote transaction.
func (s *Signer) Verify(payload, signature string) bool {
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	digest := md5.Sum([]byte(payload))
	return rsa.VerifyPKCS1v15(s.public, crypto.MD5, digest[:], raw) == nil
}
