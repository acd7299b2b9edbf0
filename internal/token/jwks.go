package token

// JWK is a single JSON Web Key entry for the RSA signing key.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSDocument is the key-set published at the discovery path. It is
// list-valued so a rotated-in key can be appended without breaking tokens
// whose header names the old kid.
type JWKSDocument struct {
	Keys []JWK `json:"keys"`
}

// JWKS builds the key-set document for the active signing key.
func (i *Issuer) JWKS() JWKSDocument {
	n, e := i.keys.PublicComponents()

	return JWKSDocument{
		Keys: []JWK{
			{
				Kty: "RSA",
				Use: "sig",
				Alg: "RS256",
				Kid: i.keys.KeyID(),
				N:   n,
				E:   e,
			},
		},
	}
}
