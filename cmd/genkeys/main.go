// Command genkeys writes a fresh RSA-2048 signing key pair as PKCS#8 and
// PKIX PEM files, the formats the server loads at startup.
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	privPath := flag.String("private", "private.pem", "output path for the private key")
	pubPath := flag.String("public", "public.pem", "output path for the public key")
	bits := flag.Int("bits", 2048, "RSA key size")
	flag.Parse()

	priv, err := rsa.GenerateKey(rand.Reader, *bits)
	if err != nil {
		log.Fatalf("generate key: %v", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		log.Fatalf("marshal private key: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		log.Fatalf("marshal public key: %v", err)
	}

	if err := writePEM(*privPath, "PRIVATE KEY", privDER, 0o600); err != nil {
		log.Fatalf("write private key: %v", err)
	}
	if err := writePEM(*pubPath, "PUBLIC KEY", pubDER, 0o644); err != nil {
		log.Fatalf("write public key: %v", err)
	}

	fmt.Printf("Keys generated: %s & %s\n", *privPath, *pubPath)
}

func writePEM(path, blockType string, der []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer f.Close()
	return pem.Encode(f, &pem.Block{Type: blockType, Bytes: der})
}
